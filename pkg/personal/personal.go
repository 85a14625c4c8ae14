// Package personal implements the engine's per-user adaptation store: a
// learned-word frequency table with decay, a personal completion trie, and
// a bigram context map keyed by the preceding word.
package personal

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/bastiangx/keypredict/pkg/config"
	"github.com/bastiangx/keypredict/pkg/dyntrie"
)

const (
	// MaxPersonalFrequency is config.DefaultConfig's saturation ceiling for
	// learned-word frequencies, matching the compiled dictionary's 8-bit
	// frequency range. A Store built with NewWithConfig may use a
	// different ceiling; this is the default New falls back to.
	MaxPersonalFrequency = 255
)

// Store holds the engine's per-user adaptation state: the personal
// dictionary, the personal trie, and the bigram context map. The three are
// always read and written together by the operations below, so a single
// lock guards all of them rather than the spec's field-by-field
// granularity — see DESIGN.md for why this collapse is safe here.
//
// The zero value is not usable; use New or NewWithConfig.
type Store struct {
	mu      sync.RWMutex
	dict    map[string]uint32
	trie    *dyntrie.Trie
	context map[string]map[string]uint32

	maxFreq         uint32
	learnIncrement  uint32
	penalizeDecay   float64
	maxContextWords int
}

// New returns an empty Store using config.DefaultConfig's personal-store
// knobs.
func New() *Store {
	return NewWithConfig(config.DefaultConfig().Personal)
}

// NewWithConfig returns an empty Store using cfg's learn/decay/saturation
// knobs, so editing config.toml's [personal] section actually changes
// runtime behavior instead of being decorative.
func NewWithConfig(cfg config.PersonalConfig) *Store {
	return &Store{
		dict:            make(map[string]uint32),
		trie:            dyntrie.New(),
		context:         make(map[string]map[string]uint32),
		maxFreq:         uint32(cfg.MaxFrequency),
		learnIncrement:  uint32(cfg.LearnIncrement),
		penalizeDecay:   cfg.PenalizeDecay,
		maxContextWords: cfg.MaxContextWords,
	}
}

// MaxFrequency returns this Store's configured saturation ceiling.
func (s *Store) MaxFrequency() uint32 {
	return s.maxFreq
}

// LearnWord records a use of w, raising its personal frequency by the
// configured learn increment (saturating at the configured max frequency)
// and, for each of the first maxContextWords preceding context words,
// incrementing the bigram count context[i] -> w. Words shorter than 2
// characters are ignored.
func (s *Store) LearnWord(w string, context []string) {
	norm := strings.ToLower(strings.TrimSpace(w))
	if len(norm) < 2 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	freq := s.dict[norm] + s.learnIncrement
	if freq > s.maxFreq {
		freq = s.maxFreq
	}
	s.dict[norm] = freq
	s.trie.Insert(norm, int(freq))

	n := len(context)
	if n > s.maxContextWords {
		n = s.maxContextWords
	}
	for i := 0; i < n; i++ {
		prev := strings.ToLower(context[i])
		bucket, ok := s.context[prev]
		if !ok {
			bucket = make(map[string]uint32)
			s.context[prev] = bucket
		}
		bucket[norm]++
	}
}

// PenalizeWord decays w's personal frequency by the configured penalize
// decay factor, removing it entirely once it reaches zero.
func (s *Store) PenalizeWord(w string) {
	norm := strings.ToLower(strings.TrimSpace(w))

	s.mu.Lock()
	defer s.mu.Unlock()

	freq, ok := s.dict[norm]
	if !ok {
		return
	}
	newFreq := uint32(float64(freq) * s.penalizeDecay)
	if newFreq == 0 {
		delete(s.dict, norm)
		return
	}
	s.dict[norm] = newFreq
}

// RemoveWord deletes w from the personal dictionary and prunes it from the
// personal trie, so a removed word cannot resurface as a prefix completion
// afterward. Returns whether w was present in the dictionary.
func (s *Store) RemoveWord(w string) bool {
	norm := strings.ToLower(strings.TrimSpace(w))

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.dict[norm]
	delete(s.dict, norm)
	s.trie.Remove(norm)
	return ok
}

// Frequency returns w's personal frequency and whether it is known.
func (s *Store) Frequency(w string) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	freq, ok := s.dict[strings.ToLower(strings.TrimSpace(w))]
	return freq, ok
}

// Contains reports whether w has a personal-dictionary entry.
func (s *Store) Contains(w string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dict[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

// CollectPrefix returns up to limit (word, frequency) completions from the
// personal trie beneath prefix, ranked by descending frequency.
func (s *Store) CollectPrefix(prefix string, limit int) []dyntrie.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trie.CollectSorted(prefix, limit)
}

// ContextScore sums, over context positions, the bigram count
// context_map[context[i]][w] weighted by (1 - i/len(context)), clamped to
// 1.0.
func (s *Store) ContextScore(w string, context []string) float64 {
	if len(context) == 0 {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	norm := strings.ToLower(w)
	var score float64
	for i, prev := range context {
		bucket, ok := s.context[strings.ToLower(prev)]
		if !ok {
			continue
		}
		count, ok := bucket[norm]
		if !ok {
			continue
		}
		weight := 1.0 - float64(i)/float64(len(context))
		score += float64(count) * weight
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// ExportDict serializes the word -> frequency map as JSON.
func (s *Store) ExportDict() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.dict)
}

// ImportDict replaces the word -> frequency map and personal trie from a
// JSON-encoded word -> frequency object.
func (s *Store) ImportDict(data []byte) error {
	var dict map[string]uint32
	if err := json.Unmarshal(data, &dict); err != nil {
		return fmt.Errorf("personal: decoding dict: %w", err)
	}

	trie := dyntrie.New()
	for w, f := range dict {
		trie.Insert(w, int(f))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dict = dict
	s.trie = trie
	return nil
}

// ExportContextMap serializes the bigram context map as JSON.
func (s *Store) ExportContextMap() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.context)
}

// ImportContextMap replaces the bigram context map from JSON.
func (s *Store) ImportContextMap(data []byte) error {
	var ctx map[string]map[string]uint32
	if err := json.Unmarshal(data, &ctx); err != nil {
		return fmt.Errorf("personal: decoding context map: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = ctx
	return nil
}

// Clear resets the store to empty.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dict = make(map[string]uint32)
	s.trie = dyntrie.New()
	s.context = make(map[string]map[string]uint32)
}
