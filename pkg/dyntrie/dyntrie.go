// Package dyntrie implements a mutable, character-keyed word trie.
//
// It backs the personal store and any dictionary staged from JSON before it
// is compiled into a bintrie.Trie. Unlike the bintrie package's dense
// array-of-nodes layout, dyntrie favors cheap inserts and removals over
// traversal density: it wraps a single patricia.Trie keyed by the UTF-8
// bytes of each word, carrying the word's frequency as the item payload.
package dyntrie

import (
	"errors"
	"sort"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Entry is a (word, frequency) pair produced by Collect.
type Entry struct {
	Word      string
	Frequency int
}

// Trie is a mutable word -> frequency store.
//
// Zero value is not usable; use New.
type Trie struct {
	t         *patricia.Trie
	wordCount int
}

// New returns an empty Trie.
func New() *Trie {
	return &Trie{t: patricia.NewTrie()}
}

// Insert adds or overwrites word with freq. Empty words and freq <= 0 are
// silently ignored, matching the binary trie's insert semantics.
func (dt *Trie) Insert(word string, freq int) {
	if word == "" || freq <= 0 {
		return
	}
	if dt.t.Get(patricia.Prefix(word)) == nil {
		dt.wordCount++
	}
	dt.t.Set(patricia.Prefix(word), freq)
}

// SearchPrefix reports the frequency stored for the exact word, if any.
func (dt *Trie) SearchPrefix(word string) (freq int, found bool) {
	item := dt.t.Get(patricia.Prefix(word))
	if item == nil {
		return 0, false
	}
	f, ok := item.(int)
	return f, ok
}

// Remove deletes word from the trie. Returns true if it was present.
func (dt *Trie) Remove(word string) bool {
	if dt.t.Get(patricia.Prefix(word)) == nil {
		return false
	}
	dt.t.Delete(patricia.Prefix(word))
	dt.wordCount--
	return true
}

// errLimitReached stops a VisitSubtree walk once the caller's limit is hit,
// so the whole subtree is never materialized for a short, bounded completion
// request.
var errLimitReached = errors.New("dyntrie: collection limit reached")

// Collect performs a depth-first walk of every word beneath prefix, emitting
// up to limit entries. Traversal stops as soon as the limit is reached; the
// whole subtree is never materialized first.
func (dt *Trie) Collect(prefix string, limit int) []Entry {
	if limit <= 0 {
		return nil
	}
	out := make([]Entry, 0, limit)
	err := dt.t.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		freq, ok := item.(int)
		if !ok {
			return nil
		}
		out = append(out, Entry{Word: string(p), Frequency: freq})
		if len(out) >= limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && err != errLimitReached {
		return out
	}
	return out
}

// CollectSorted is Collect followed by a stable sort on descending
// frequency; used by callers that need ranked completions rather than
// insertion order.
func (dt *Trie) CollectSorted(prefix string, limit int) []Entry {
	entries := dt.Collect(prefix, limit)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Frequency > entries[j].Frequency
	})
	return entries
}

// WordCount returns the number of distinct words currently stored.
func (dt *Trie) WordCount() int {
	return dt.wordCount
}

// normalizeForLookup lower-cases s and strips apostrophes, matching the
// bintrie package's canonical-key normalization.
func normalizeForLookup(s string) string {
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "'", "")
}

// NormalizeForLookup exports normalizeForLookup for callers outside this
// package that need the same normalization rule (the engine and the
// canonical side table agree on this exact definition).
func NormalizeForLookup(s string) string {
	return normalizeForLookup(s)
}
