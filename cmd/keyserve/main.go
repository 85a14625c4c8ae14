/*
Package main implements the keypredict demo server and commandline interface.

keypredict provides keyboard-side word completion, spell-check, and
next-word prediction driven by per-language binary or JSON dictionaries,
a personal adaptation store, and an n-gram model. It can operate as a
MessagePack IPC server for host integrations or as a standalone CLI for
interactive testing.

# Server Mode

The server loads one dictionary bundle per language from a data directory
and dispatches suggest/spell_check/predict_next/learn_word requests
against the currently active language.

# CLI Mode

The CLI provides an interactive shell for debugging suggestions and
spell-check without going through the IPC protocol.

# Data Files

The data directory should contain one dictionary file per language, named
<lang>.bin (binary trie, preferred) or <lang>.json (word -> frequency
map), e.g. en_US.bin, es_ES.json.

# Config

Runtime configuration is managed via a config.toml file covering the
engine, personal store, n-gram model, and demo server/CLI knobs. A
default configuration is created automatically if one does not exist.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bastiangx/keypredict/internal/cli"
	"github.com/bastiangx/keypredict/internal/utils"
	"github.com/bastiangx/keypredict/pkg/config"
	"github.com/bastiangx/keypredict/pkg/dictionary"
	"github.com/bastiangx/keypredict/pkg/engine"
	"github.com/bastiangx/keypredict/pkg/ipc"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0-beta"
	AppName = "keypredict"
	gh      = "https://github.com/bastiangx/keypredict"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	configFile := flag.String("config", "config.toml", "Path to config.toml file")
	dataDir := flag.String("data", "data/", "Directory containing per-language dictionary files")
	lang := flag.String("lang", "en_US", "Active language at startup")
	debugMode := flag.Bool("v", false, "Toggle verbose mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of suggestions to return")
	minPrefix := flag.Int("prmin", defaultConfig.CLI.DefaultMinLen, "Minimum prefix length for suggestions")
	maxPrefix := flag.Int("prmax", 32, "Maximum prefix length for suggestions")
	noFilter := flag.Bool("no-filter", defaultConfig.CLI.DefaultNoFilter, "Disable input filtering (DBG only)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	resolvedDataDir := *dataDir
	resolvedConfigFile := *configFile
	if resolver, err := utils.NewPathResolver(); err != nil {
		log.Debugf("path resolver unavailable, using paths as given: %v", err)
	} else {
		if dir, err := resolver.GetDataDir(*dataDir); err == nil {
			resolvedDataDir = dir
		}
		if !filepath.IsAbs(*configFile) && *configFile == "config.toml" {
			if path, err := resolver.GetConfigPath("config.toml"); err == nil {
				resolvedConfigFile = path
			}
		}
	}

	appConfig, err := config.InitConfig(resolvedConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}

	eng := engine.NewWithConfig(appConfig)
	loaded := loadDictionaries(eng, resolvedDataDir)
	eng.SetLanguage(*lang)

	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:",
			"minPrefix", *minPrefix,
			"maxPrefix", *maxPrefix,
			"limit", *limit,
			"noFilter", *noFilter)

		inputHandler := cli.NewInputHandler(eng, *minPrefix, *maxPrefix, *limit, *noFilter)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
			os.Exit(1)
		}
		return
	}

	log.Debug("spawning IPC")

	srv := ipc.NewServer(eng, appConfig, resolvedConfigFile)

	showStartupInfo(resolvedDataDir, loaded, eng.GetLanguage())

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}

// loadDictionaries scans dataDir for <lang>.bin / <lang>.json files and
// loads each into the engine under its language code, preferring the
// binary trie when both are present for the same language.
func loadDictionaries(eng *engine.Engine, dataDir string) []string {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		log.Warnf("no data dir at %s, running with empty dictionaries: %v", dataDir, err)
		return nil
	}

	seen := make(map[string]bool)
	var langs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".bin" && ext != ".json" {
			continue
		}
		lang := strings.TrimSuffix(name, filepath.Ext(name))
		if seen[lang] {
			continue
		}

		path := filepath.Join(dataDir, name)
		format, err := dictionary.DetectFileFormat(path)
		if err != nil {
			log.Warnf("skipping %s: %v", path, err)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("failed to read %s: %v", path, err)
			continue
		}

		switch format {
		case dictionary.FormatBinary:
			err = eng.LoadDictionaryBinaryForLanguage(lang, data)
		case dictionary.FormatJSON:
			err = eng.LoadDictionaryJSONForLanguage(lang, data)
		}
		if err != nil {
			log.Warnf("failed to load dictionary %s: %v", path, err)
			continue
		}

		seen[lang] = true
		langs = append(langs, lang)
		log.Debugf("loaded dictionary for language %s from %s", lang, path)
	}
	return langs
}

// printVersion shows a styled version banner.
func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[keypredict] keyboard-side word prediction")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use --help to see available options")
	logger.Print("")
	logger.Print("Find out more at", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(dataDir string, loaded []string, activeLang string) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("=============")
	println(" keypredict  ")
	println("=============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("data dir: ( %s )", dataDir)
	log.Infof("languages loaded: %v", loaded)
	log.Infof("active language: %s", activeLang)
	log.Info("status: ready")
	println("=============")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
