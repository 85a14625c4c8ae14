// Package bintrie implements the binary trie dictionary format: a
// cache-dense, checksummed, LZ4-compressed array-of-nodes trie with an
// auxiliary canonical-forms side table for contractions, acronyms, and
// proper nouns.
//
// The on-disk layout is fixed (see Serialize/Deserialize) so that a
// dictionary compiled once can be shipped and loaded across process
// restarts and host languages without re-running the JSON build step.
package bintrie

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// Magic is the fixed 4-byte file identifier.
	Magic = "FBTD"
	// Version is the only file format version this package writes or
	// accepts. Readers MUST reject any other version.
	Version uint32 = 3

	headerSize = 28
	nodeSize   = 12
)

// Node is a single entry in the array-of-nodes trie. The zero Node (char
// code 0, frequency 0, no children) is the convention for "unused slot";
// index 0 itself is the root sentinel and its CharCode is unused.
type Node struct {
	CharCode    uint16
	Frequency   uint8
	Flags       uint8
	FirstChild  uint32
	NextSibling uint32
}

// Trie is the in-memory, already-decoded form of a compiled dictionary.
type Trie struct {
	nodes     []Node
	canonical map[string]string
	wordCount uint32
}

// New returns an empty Trie containing only the root sentinel at index 0.
func New() *Trie {
	return &Trie{
		nodes:     []Node{{}},
		canonical: make(map[string]string),
	}
}

// NodeCount returns the number of nodes, including the root sentinel.
func (t *Trie) NodeCount() int { return len(t.nodes) }

// WordCount returns the number of words inserted with freq > 0.
func (t *Trie) WordCount() int { return int(t.wordCount) }

// CanonicalCount returns the number of entries in the canonical side table.
func (t *Trie) CanonicalCount() int { return len(t.canonical) }

// CanonicalForms returns the normalized-key -> display-form side table.
// Callers must not mutate the returned map.
func (t *Trie) CanonicalForms() map[string]string { return t.canonical }

// Insert adds word with frequency freq. Empty words, a zero frequency,
// and words outside the Basic Multilingual Plane (CharCode is 16-bit)
// are silently ignored, per the format's validation rules. Insertion
// walks from the root, finding the child whose CharCode matches or
// appending a new sibling, and marks the terminal node's Frequency.
func (t *Trie) Insert(word string, freq uint8) {
	if word == "" || freq == 0 || !isBMP(word) {
		return
	}
	cur := uint32(0)
	for _, r := range word {
		cur = t.findOrCreateChild(cur, uint16(r))
	}
	if t.nodes[cur].Frequency == 0 {
		t.wordCount++
	}
	t.nodes[cur].Frequency = freq
}

// isBMP reports whether every rune in s fits in the Basic Multilingual
// Plane, i.e. is representable as a 16-bit CharCode without truncation.
func isBMP(s string) bool {
	for _, r := range s {
		if r > 0xFFFF {
			return false
		}
	}
	return true
}

// findOrCreateChild returns the index of parent's child carrying charCode,
// creating it (appended to the sibling list) if absent.
func (t *Trie) findOrCreateChild(parent uint32, charCode uint16) uint32 {
	first := t.nodes[parent].FirstChild
	if first == 0 {
		idx := t.appendNode(charCode)
		t.nodes[parent].FirstChild = idx
		return idx
	}
	cur := first
	for {
		if t.nodes[cur].CharCode == charCode {
			return cur
		}
		next := t.nodes[cur].NextSibling
		if next == 0 {
			idx := t.appendNode(charCode)
			t.nodes[cur].NextSibling = idx
			return idx
		}
		cur = next
	}
}

func (t *Trie) appendNode(charCode uint16) uint32 {
	t.nodes = append(t.nodes, Node{CharCode: charCode})
	return uint32(len(t.nodes) - 1)
}

// findChild returns the index of parent's child carrying charCode, or
// (0, false) if none exists (index 0 is never a valid child, since it is
// the root).
func (t *Trie) findChild(parent uint32, charCode uint16) (uint32, bool) {
	cur := t.nodes[parent].FirstChild
	for cur != 0 {
		if t.nodes[cur].CharCode == charCode {
			return cur, true
		}
		cur = t.nodes[cur].NextSibling
	}
	return 0, false
}

// SearchPrefix walks word from the root and returns the index of the node
// reached, if the whole word is present as a path in the trie (regardless
// of whether that node is terminal).
func (t *Trie) SearchPrefix(word string) (index uint32, found bool) {
	cur := uint32(0)
	for _, r := range word {
		next, ok := t.findChild(cur, uint16(r))
		if !ok {
			return 0, false
		}
		cur = next
	}
	return cur, true
}

// CollectWords performs a depth-first walk beneath startIndex, emitting
// (prefix+path, frequency) for every node with Frequency > 0, stopping
// once out has reached limit entries. prefix is prepended to every emitted
// word, letting callers resume a walk from a non-root node reached via
// SearchPrefix.
func (t *Trie) CollectWords(startIndex uint32, prefix string, limit int) []Word {
	out := make([]Word, 0, limit)
	var walk func(idx uint32, path []rune)
	walk = func(idx uint32, path []rune) {
		if len(out) >= limit {
			return
		}
		n := t.nodes[idx]
		if n.Frequency > 0 {
			out = append(out, Word{Text: prefix + string(path), Frequency: n.Frequency})
			if len(out) >= limit {
				return
			}
		}
		child := n.FirstChild
		for child != 0 {
			walk(child, append(path, rune(t.nodes[child].CharCode)))
			if len(out) >= limit {
				return
			}
			child = t.nodes[child].NextSibling
		}
	}
	walk(startIndex, nil)
	return out
}

// Word is a single collected completion.
type Word struct {
	Text      string
	Frequency uint8
}

// checksum computes the format's wrapping 32-bit node checksum: for each
// node at index i, add i*char_code + frequency, all with u32 wraparound.
func (t *Trie) checksum() uint32 {
	var sum uint32
	for i, n := range t.nodes {
		sum += uint32(i) * uint32(n.CharCode)
		sum += uint32(n.Frequency)
	}
	return sum
}

// BuildFromJSON builds a Trie from a {word: frequency} map, as produced by
// the compiler CLI from a JSON dictionary. Words are processed in
// descending-frequency order (stable on ties) so that, for words that
// collide after normalization, the higher-frequency spelling's canonical
// form wins. Each word satisfying a canonical predicate is recorded in the
// side table keyed by NormalizeForLookup(word); the trie itself always
// stores the lower-cased, apostrophe-stripped form.
func BuildFromJSON(data []byte) (*Trie, error) {
	var freqs map[string]uint8
	if err := json.Unmarshal(data, &freqs); err != nil {
		return nil, fmt.Errorf("bintrie: decoding json dictionary: %w", err)
	}

	type entry struct {
		word string
		freq uint8
	}
	entries := make([]entry, 0, len(freqs))
	for w, f := range freqs {
		entries = append(entries, entry{w, f})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].freq > entries[j].freq
	})

	t := New()
	for _, e := range entries {
		trimmed := strings.TrimSpace(e.word)
		if trimmed == "" {
			continue
		}
		if ShouldPreserveCanonical(trimmed) {
			t.canonical[NormalizeForLookup(trimmed)] = trimmed
		}
		t.Insert(NormalizeForLookup(strings.ToLower(trimmed)), e.freq)
	}
	return t, nil
}

// NormalizeForLookup lower-cases s and strips apostrophes. The binary
// trie, the dynamic trie, and the suggestion engine all agree on this
// exact definition for canonical-map keys.
func NormalizeForLookup(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "'", "")
}

// Serialize encodes the trie into the on-disk format: a 28-byte header
// followed by an LZ4-framed node section and an LZ4-framed canonical-forms
// JSON section.
func (t *Trie) Serialize() ([]byte, error) {
	nodeBytes := make([]byte, len(t.nodes)*nodeSize)
	for i, n := range t.nodes {
		off := i * nodeSize
		binary.LittleEndian.PutUint16(nodeBytes[off:], n.CharCode)
		nodeBytes[off+2] = n.Frequency
		nodeBytes[off+3] = n.Flags
		binary.LittleEndian.PutUint32(nodeBytes[off+4:], n.FirstChild)
		binary.LittleEndian.PutUint32(nodeBytes[off+8:], n.NextSibling)
	}
	compressedNodes, err := compressBlock(nodeBytes)
	if err != nil {
		return nil, fmt.Errorf("bintrie: compressing nodes: %w", err)
	}

	canonicalJSON, err := json.Marshal(t.canonical)
	if err != nil {
		return nil, fmt.Errorf("bintrie: encoding canonical forms: %w", err)
	}
	compressedCanonical, err := compressBlock(canonicalJSON)
	if err != nil {
		return nil, fmt.Errorf("bintrie: compressing canonical forms: %w", err)
	}

	buf := make([]byte, headerSize, headerSize+len(compressedNodes)+len(compressedCanonical))
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], Version)
	binary.LittleEndian.PutUint32(buf[8:12], t.wordCount)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(t.nodes)))
	binary.LittleEndian.PutUint32(buf[16:20], t.checksum())
	binary.LittleEndian.PutUint32(buf[20:24], uint32(len(t.canonical)))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(compressedNodes)))
	buf = append(buf, compressedNodes...)
	buf = append(buf, compressedCanonical...)

	log.Debugf("bintrie: serialized %d nodes, %d words, %d canonical forms", len(t.nodes), t.wordCount, len(t.canonical))
	return buf, nil
}

// Deserialize decodes the on-disk format produced by Serialize. The trie
// is never partially populated on failure: any decode error returns a nil
// Trie.
func Deserialize(data []byte) (*Trie, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("bintrie: buffer too small: %d bytes", len(data))
	}
	if !bytes.Equal(data[0:4], []byte(Magic)) {
		return nil, fmt.Errorf("bintrie: bad magic %q", data[0:4])
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != Version {
		return nil, fmt.Errorf("bintrie: unsupported version %d", version)
	}
	wordCount := binary.LittleEndian.Uint32(data[8:12])
	nodeCount := binary.LittleEndian.Uint32(data[12:16])
	wantChecksum := binary.LittleEndian.Uint32(data[16:20])
	canonicalCount := binary.LittleEndian.Uint32(data[20:24])
	compressedNodesLen := binary.LittleEndian.Uint32(data[24:28])

	rest := data[headerSize:]
	if uint32(len(rest)) < compressedNodesLen {
		return nil, fmt.Errorf("bintrie: truncated node section")
	}
	nodeBytes, err := decompressBlock(rest[:compressedNodesLen])
	if err != nil {
		return nil, fmt.Errorf("bintrie: decompressing nodes: %w", err)
	}
	if uint32(len(nodeBytes)) != nodeCount*nodeSize {
		return nil, fmt.Errorf("bintrie: node section size mismatch: got %d bytes, want %d", len(nodeBytes), nodeCount*nodeSize)
	}

	canonicalBytes, err := decompressBlock(rest[compressedNodesLen:])
	if err != nil {
		return nil, fmt.Errorf("bintrie: decompressing canonical forms: %w", err)
	}

	nodes := make([]Node, nodeCount)
	for i := range nodes {
		off := i * nodeSize
		nodes[i] = Node{
			CharCode:    binary.LittleEndian.Uint16(nodeBytes[off:]),
			Frequency:   nodeBytes[off+2],
			Flags:       nodeBytes[off+3],
			FirstChild:  binary.LittleEndian.Uint32(nodeBytes[off+4:]),
			NextSibling: binary.LittleEndian.Uint32(nodeBytes[off+8:]),
		}
	}
	for i, n := range nodes {
		if n.FirstChild >= uint32(len(nodes)) || n.NextSibling >= uint32(len(nodes)) {
			return nil, fmt.Errorf("bintrie: node %d has out-of-bounds link", i)
		}
	}

	var canonical map[string]string
	if err := json.Unmarshal(canonicalBytes, &canonical); err != nil {
		return nil, fmt.Errorf("bintrie: decoding canonical forms: %w", err)
	}
	if uint32(len(canonical)) != canonicalCount {
		return nil, fmt.Errorf("bintrie: canonical count mismatch: got %d, want %d", len(canonical), canonicalCount)
	}

	t := &Trie{nodes: nodes, canonical: canonical, wordCount: wordCount}
	if t.checksum() != wantChecksum {
		return nil, fmt.Errorf("bintrie: checksum mismatch: got %d, want %d", t.checksum(), wantChecksum)
	}
	return t, nil
}
