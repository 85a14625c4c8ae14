/*
Package main implements dictcompile, a small CLI that compiles a JSON
word -> frequency dictionary into the compact binary trie format the
engine loads at startup (see pkg/bintrie).

	dictcompile -in en_US.json -out en_US.bin

The binary form is preferred by the engine whenever a binary file for a
language is present (see cmd/keyserve's loadDictionaries), since it
avoids rebuilding the trie node-by-node on every process start.
*/
package main

import (
	"flag"
	"os"

	"github.com/bastiangx/keypredict/internal/utils"
	"github.com/bastiangx/keypredict/pkg/bintrie"
	"github.com/charmbracelet/log"
)

func main() {
	inPath := flag.String("in", "", "Path to a JSON word -> frequency dictionary file")
	outPath := flag.String("out", "", "Path to write the compiled binary trie file")
	debugMode := flag.Bool("v", false, "Toggle verbose mode")
	flag.Parse()

	if *debugMode {
		log.SetLevel(log.DebugLevel)
	}

	if *inPath == "" || *outPath == "" {
		log.Fatal("both -in and -out are required")
		os.Exit(1)
	}

	data, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *inPath, err)
		os.Exit(1)
	}

	trie, err := bintrie.BuildFromJSON(data)
	if err != nil {
		log.Fatalf("failed to build trie from %s: %v", *inPath, err)
		os.Exit(1)
	}

	out, err := trie.Serialize()
	if err != nil {
		log.Fatalf("failed to serialize trie: %v", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outPath, out, 0644); err != nil {
		log.Fatalf("failed to write %s: %v", *outPath, err)
		os.Exit(1)
	}

	log.Infof("compiled %s words (%d nodes, %d canonical forms) into %s",
		utils.FormatWithCommas(trie.WordCount()), trie.NodeCount(), trie.CanonicalCount(), *outPath)
}
