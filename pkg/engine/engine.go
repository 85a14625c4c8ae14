// Package engine implements the suggestion engine: the orchestration layer
// that gathers completion and correction candidates from the binary trie,
// the dynamic trie, and the personal store, scores and formats them, and
// exposes the host-facing Core API (load, spell-check, suggest, predict,
// learn, export/import, language switching).
package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bastiangx/keypredict/internal/logger"
	"github.com/bastiangx/keypredict/pkg/bintrie"
	"github.com/bastiangx/keypredict/pkg/config"
	"github.com/bastiangx/keypredict/pkg/dyntrie"
	"github.com/bastiangx/keypredict/pkg/fuzzy"
	"github.com/bastiangx/keypredict/pkg/ngram"
	"github.com/bastiangx/keypredict/pkg/personal"
)

var log = logger.Default("engine")

const (
	defaultLanguage = "en_US"

	minSuggestPrefixLen = 2

	personalBonus = 0.25

	prefixFreqWeight  = 0.6
	prefixCtxWeight   = 0.2
	prefixBaseBonus   = 0.3
	exactMatchBonus   = 1.0

	typoFreqWeight = 0.7
	typoCtxWeight  = 0.2

	spellFreqWeight   = 0.4
	spellDistWeight   = 0.4
	spellPrefixWeight = 0.2
	spellCtxWeight    = 0.15
	spellPrefixBonus  = 0.2

	maxPrefixCollect = 100
)

// Suggestion is a single ranked completion or prediction.
type Suggestion struct {
	Text                    string
	Confidence              float64
	IsEligibleForAutoCommit bool
}

// SpellCheckResult is the outcome of SpellCheck.
type SpellCheckResult struct {
	IsValid     bool
	IsTypo      bool
	Suggestions []string
}

// bundle holds one language's loaded dictionary state. The "main store" is
// a variant over {binary trie present, dynamic trie present, neither}:
// Binary is preferred when present; Dynamic backs freshly loaded JSON
// dictionaries that have not been compiled.
type bundle struct {
	binary    *bintrie.Trie
	dynamic   *dyntrie.Trie
	wordFreq  map[string]uint8
	canonical map[string]string
	ngrams    *ngram.Model
}

func (e *Engine) newBundle() *bundle {
	return &bundle{
		wordFreq:  make(map[string]uint8),
		canonical: make(map[string]string),
		ngrams:    ngram.NewWithConfig(e.ngramCfg),
	}
}

// Engine is the process-wide, interior-mutable suggestion engine. The zero
// value is not usable; use New or NewWithConfig. All exported methods are
// safe for concurrent use.
type Engine struct {
	activeLangMu sync.RWMutex
	activeLang   string

	languagesMu sync.RWMutex
	languages   map[string]*bundle

	personal *personal.Store
	cfg      config.EngineConfig
	ngramCfg config.NgramConfig
}

// New returns an Engine with no loaded dictionaries and an empty personal
// store, active language defaulted to en_US, using config.DefaultConfig's
// scoring and window knobs.
func New() *Engine {
	return NewWithConfig(config.DefaultConfig())
}

// NewWithConfig returns an Engine configured from cfg: its Engine section
// drives suggestion scoring/caps, its Personal section seeds the personal
// store, and its Ngram section seeds every per-language n-gram model, so
// editing config.toml actually changes runtime behavior.
func NewWithConfig(cfg *config.Config) *Engine {
	return &Engine{
		activeLang: defaultLanguage,
		languages:  make(map[string]*bundle),
		personal:   personal.NewWithConfig(cfg.Personal),
		cfg:        cfg.Engine,
		ngramCfg:   cfg.Ngram,
	}
}

// SetLanguage sets the active language code. It does not require the
// language to already have a loaded dictionary.
func (e *Engine) SetLanguage(lang string) {
	e.activeLangMu.Lock()
	defer e.activeLangMu.Unlock()
	e.activeLang = lang
}

// GetLanguage returns the active language code.
func (e *Engine) GetLanguage() string {
	e.activeLangMu.RLock()
	defer e.activeLangMu.RUnlock()
	return e.activeLang
}

// Clear releases all per-language bundles and resets personal state.
func (e *Engine) Clear() {
	e.languagesMu.Lock()
	e.languages = make(map[string]*bundle)
	e.languagesMu.Unlock()
	e.personal.Clear()
}

func (e *Engine) bundleFor(lang string) *bundle {
	e.languagesMu.RLock()
	b, ok := e.languages[lang]
	e.languagesMu.RUnlock()
	if ok {
		return b
	}
	e.languagesMu.Lock()
	defer e.languagesMu.Unlock()
	if b, ok := e.languages[lang]; ok {
		return b
	}
	b = e.newBundle()
	e.languages[lang] = b
	return b
}

func (e *Engine) activeBundle() *bundle {
	return e.bundleFor(e.GetLanguage())
}

// LoadDictionaryJSON loads a {word: frequency} JSON dictionary into the
// active language's dynamic trie, staging it for later compilation.
// Frequencies are sorted descending (stable) before insertion so that,
// consistent with the binary trie's build path, canonical-form collisions
// favor the higher-frequency spelling.
func (e *Engine) LoadDictionaryJSON(data []byte) error {
	return e.LoadDictionaryJSONForLanguage(e.GetLanguage(), data)
}

// LoadDictionaryJSONForLanguage is LoadDictionaryJSON for an explicit
// language code.
func (e *Engine) LoadDictionaryJSONForLanguage(lang string, data []byte) error {
	var freqs map[string]uint8
	if err := json.Unmarshal(data, &freqs); err != nil {
		return fmt.Errorf("engine: decoding json dictionary: %w", err)
	}

	type entry struct {
		word string
		freq uint8
	}
	entries := make([]entry, 0, len(freqs))
	for w, f := range freqs {
		entries = append(entries, entry{w, f})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].freq > entries[j].freq })

	b := e.newBundle()
	b.dynamic = dyntrie.New()
	for _, e2 := range entries {
		trimmed := strings.TrimSpace(e2.word)
		if trimmed == "" {
			continue
		}
		if bintrie.ShouldPreserveCanonical(trimmed) {
			b.canonical[bintrie.NormalizeForLookup(trimmed)] = trimmed
		}
		norm := bintrie.NormalizeForLookup(strings.ToLower(trimmed))
		b.dynamic.Insert(norm, int(e2.freq))
		b.wordFreq[norm] = e2.freq
	}

	e.languagesMu.Lock()
	e.languages[lang] = b
	e.languagesMu.Unlock()
	log.Debugf("loaded %d words into dynamic trie for %s", len(entries), lang)
	return nil
}

// LoadDictionaryBinary decodes a compiled bintrie.Trie and installs it as
// the active language's main store.
func (e *Engine) LoadDictionaryBinary(data []byte) error {
	return e.LoadDictionaryBinaryForLanguage(e.GetLanguage(), data)
}

// LoadDictionaryBinaryForLanguage is LoadDictionaryBinary for an explicit
// language code.
func (e *Engine) LoadDictionaryBinaryForLanguage(lang string, data []byte) error {
	t, err := bintrie.Deserialize(data)
	if err != nil {
		log.Errorf("decoding binary dictionary for %s: %v", lang, err)
		return fmt.Errorf("engine: decoding binary dictionary: %w", err)
	}
	b := e.newBundle()
	b.binary = t
	b.canonical = t.CanonicalForms()

	e.languagesMu.Lock()
	e.languages[lang] = b
	e.languagesMu.Unlock()
	return nil
}

// knownWord reports whether word is present (with freq > 0) in the
// bundle's main store, checking {as-is, Capitalized, UPPERCASE}. A word
// whose normalized key is canonical-mapped (a contraction, acronym, or
// proper noun) only
// counts as known if one of those case variants exactly matches the
// canonical display form — otherwise it is a correctable typo, not a
// known spelling (e.g. "usa" against canonical "USA" matches via the
// Upper(w) variant, but "im" against canonical "I'm" matches no variant).
func (b *bundle) knownWord(word string) bool {
	nk := bintrie.NormalizeForLookup(word)
	if disp, ok := b.canonical[nk]; ok {
		return word == disp || capitalize(word) == disp || strings.ToUpper(word) == disp
	}
	return b.freqOf(nk) > 0
}

// freqOf returns the stored frequency for an exact word (not a prefix),
// from whichever main store is active (binary preferred over dynamic).
func (b *bundle) freqOf(word string) uint8 {
	if f, ok := b.wordFreq[word]; ok {
		return f
	}
	if b.binary != nil {
		idx, found := b.binary.SearchPrefix(word)
		if !found {
			return 0
		}
		words := b.binary.CollectWords(idx, "", 1)
		if len(words) == 1 && words[0].Text == "" {
			return words[0].Frequency
		}
		return 0
	}
	if b.dynamic != nil {
		if f, ok := b.dynamic.SearchPrefix(word); ok {
			return uint8(f)
		}
	}
	return 0
}

// collectPrefix gathers up to limit completions beneath prefix from
// whichever main store is active.
func (b *bundle) collectPrefix(prefix string, limit int) []candidateWord {
	if b.binary != nil {
		idx, found := b.binary.SearchPrefix(prefix)
		if !found {
			return nil
		}
		words := b.binary.CollectWords(idx, prefix, limit)
		out := make([]candidateWord, len(words))
		for i, w := range words {
			out[i] = candidateWord{Text: w.Text, Frequency: w.Frequency}
		}
		return out
	}
	if b.dynamic != nil {
		entries := b.dynamic.CollectSorted(prefix, limit)
		out := make([]candidateWord, len(entries))
		for i, en := range entries {
			out[i] = candidateWord{Text: en.Word, Frequency: uint8(clampFreq(en.Frequency))}
		}
		return out
	}
	return nil
}

// sweepAll walks the words of the main store, up to limit, for
// typo-correction sweeps where a prefix walk isn't applicable. A binary
// trie is walked from its root when present; otherwise the dynamic trie
// is collected from the empty prefix.
func (b *bundle) sweepAll(limit int) []candidateWord {
	if b.binary != nil {
		words := b.binary.CollectWords(0, "", limit)
		out := make([]candidateWord, len(words))
		for i, w := range words {
			out[i] = candidateWord{Text: w.Text, Frequency: w.Frequency}
		}
		return out
	}
	if b.dynamic != nil {
		entries := b.dynamic.Collect("", limit)
		out := make([]candidateWord, len(entries))
		for i, en := range entries {
			out[i] = candidateWord{Text: en.Word, Frequency: uint8(clampFreq(en.Frequency))}
		}
		return out
	}
	return nil
}

type candidateWord struct {
	Text      string
	Frequency uint8
}

func clampFreq(f int) int {
	if f > 255 {
		return 255
	}
	if f < 0 {
		return 0
	}
	return f
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
}

// freqScore maps an 8-bit frequency onto the engine's 0..1 confidence
// scale, monotone non-decreasing.
func freqScore(f uint8) float64 {
	switch {
	case f >= 250:
		return 1.0
	case f >= 200:
		return 0.9
	case f >= 150:
		return 0.8
	case f >= 100:
		return 0.7
	case f >= 50:
		return 0.5
	case f >= 10:
		return 0.3
	default:
		return 0.1
	}
}

// distPenalty maps an edit distance onto the typo-correction score's
// penalty term.
func distPenalty(d int) float64 {
	switch d {
	case 0, 1:
		return 0.0
	case 2:
		return 0.2
	default:
		return 0.4
	}
}

// distScore maps an edit distance onto the spell-correction score's
// similarity term, relative to the configured max edit distance.
func distScore(d, maxDist int) float64 {
	return float64(maxDist-d) / float64(maxDist)
}

// isAllUpper reports whether s contains at least one cased letter and no
// lowercase ones.
func isAllUpper(s string) bool {
	seenLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			seenLetter = true
		}
	}
	return seenLetter
}

// formatWithCanonical implements format_with_canonical: a contraction or
// acronym canonical form is used verbatim; otherwise the candidate's case
// mirrors reference's.
func formatWithCanonical(candidate, normalizedKey, reference string, canonical map[string]string) string {
	if disp, ok := canonical[normalizedKey]; ok && bintrie.IsContractionOrAcronym(disp) {
		return disp
	}
	switch {
	case isAllUpper(reference):
		return strings.ToUpper(candidate)
	case len(reference) > 0 && reference[0] >= 'A' && reference[0] <= 'Z':
		return capitalize(candidate)
	default:
		return strings.ToLower(candidate)
	}
}

// scored is an intermediate ranked-candidate record, used by both
// SpellCheck and Suggest before formatting and de-duplication.
type scored struct {
	display    string
	normKey    string
	confidence float64
	autoCommit bool
}

// SpellCheck implements spell_check: a known-word test, a canonical-form
// lookup, and otherwise a bounded sweep for near-miss corrections.
func (e *Engine) SpellCheck(word string, context []string, maxSuggestions int) SpellCheckResult {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return SpellCheckResult{}
	}

	b := e.activeBundle()

	if b.knownWord(w) || e.personal.Contains(w) {
		return SpellCheckResult{IsValid: true}
	}

	nk := bintrie.NormalizeForLookup(w)
	if disp, ok := b.canonical[nk]; ok {
		return SpellCheckResult{IsTypo: true, Suggestions: []string{disp}}
	}

	candidates := e.suggestCorrections(w, context, b)
	if maxSuggestions <= 0 {
		maxSuggestions = e.cfg.MaxSpellSuggestions
	}
	if maxSuggestions > 0 && len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	suggestions := make([]string, len(candidates))
	for i, c := range candidates {
		suggestions[i] = c.display
	}
	return SpellCheckResult{IsTypo: true, Suggestions: suggestions}
}

// suggestCorrections sweeps the main dict then the personal dict for
// candidates within edit distance 2 of w, scoring each with the
// spell-correction formula and returning them confidence-descending,
// de-duplicated by normalized key (canonical display preferred).
func (e *Engine) suggestCorrections(w string, context []string, b *bundle) []scored {
	seen := make(map[string]int) // normKey -> index into out
	var out []scored

	consider := func(candWord string, freq uint8, isPersonal bool) {
		nk := bintrie.NormalizeForLookup(candWord)
		d := fuzzy.EditDistance(w, candWord)
		if d == 0 || d > e.cfg.MaxEditDistance {
			return
		}
		conf := spellFreqWeight*freqScore(freq) + spellDistWeight*distScore(d, e.cfg.MaxEditDistance) + spellCtxWeight*e.personal.ContextScore(candWord, context)
		if strings.HasPrefix(candWord, w) {
			conf += spellPrefixWeight * spellPrefixBonus
		}
		if isPersonal {
			conf += personalBonus
		}
		display := candWord
		if disp, ok := b.canonical[nk]; ok {
			display = disp
		}
		rec := scored{display: display, normKey: nk, confidence: conf}
		if idx, ok := seen[nk]; ok {
			if conf > out[idx].confidence {
				out[idx] = rec
			}
			return
		}
		seen[nk] = len(out)
		out = append(out, rec)
	}

	for _, cw := range b.sweepAll(e.cfg.MaxSweepCandidates) {
		consider(cw.Text, cw.Frequency, false)
	}
	for _, pe := range e.personal.CollectPrefix("", e.cfg.MaxSweepCandidates) {
		consider(pe.Word, uint8(clampFreq(pe.Frequency)), true)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].confidence > out[j].confidence })
	return out
}

// Suggest implements suggest: canonical push, personal- and main-trie
// prefix collection, and (when the typed prefix isn't itself a known
// word) a typo-correction sweep, formatted and de-duplicated by
// normalized key, capped at maxCount.
func (e *Engine) Suggest(prefix string, context []string, maxCount int) []Suggestion {
	if len([]rune(prefix)) < minSuggestPrefixLen {
		return nil
	}
	n := strings.ToLower(prefix)
	nk := bintrie.NormalizeForLookup(n)
	b := e.activeBundle()

	typedIsValid := b.freqOf(nk) > 0 || e.personal.Contains(n)

	var out []scored
	seen := make(map[string]int)
	push := func(display, normKey string, conf float64, auto bool) {
		if idx, ok := seen[normKey]; ok {
			if conf > out[idx].confidence {
				out[idx] = scored{display: display, normKey: normKey, confidence: conf, autoCommit: auto}
			}
			return
		}
		seen[normKey] = len(out)
		out = append(out, scored{display: display, normKey: normKey, confidence: conf, autoCommit: auto})
	}

	// Step 3: canonical push.
	if disp, ok := b.canonical[nk]; ok {
		lookupFreq := b.freqOf(nk)
		if lookupFreq == 0 {
			lookupFreq = 200
		}
		conf := freqScore(lookupFreq) + prefixBaseBonus + exactMatchBonus
		push(disp, nk, conf, true)
	}

	// Step 4: personal trie prefix collection.
	for _, pe := range e.personal.CollectPrefix(n, maxPrefixCollect) {
		freq := uint8(clampFreq(pe.Frequency))
		conf := prefixFreqWeight*freqScore(freq) + prefixCtxWeight*e.personal.ContextScore(pe.Word, context) + personalBonus + prefixBaseBonus
		exact := strings.EqualFold(pe.Word, n)
		if exact {
			conf += exactMatchBonus
		}
		auto := !typedIsValid && !exact && conf >= e.cfg.AutoCommitConfidence && freq >= uint8(e.cfg.AutoCommitMinFreq)
		display := formatWithCanonical(pe.Word, bintrie.NormalizeForLookup(pe.Word), prefix, b.canonical)
		push(display, bintrie.NormalizeForLookup(pe.Word), conf, auto)
	}

	// Step 5: main-store prefix collection.
	for _, cw := range b.collectPrefix(nk, maxPrefixCollect) {
		conf := prefixFreqWeight*freqScore(cw.Frequency) + prefixCtxWeight*e.personal.ContextScore(cw.Text, context) + prefixBaseBonus
		exact := strings.EqualFold(cw.Text, n)
		if exact {
			conf += exactMatchBonus
		}
		auto := !typedIsValid && !exact && conf >= e.cfg.AutoCommitConfidence && cw.Frequency >= uint8(e.cfg.AutoCommitMinFreq)
		normKey := bintrie.NormalizeForLookup(cw.Text)
		display := formatWithCanonical(cw.Text, normKey, prefix, b.canonical)
		push(display, normKey, conf, auto)
	}

	// Step 6: typo-correction sweep, only if the typed text isn't itself valid.
	if !typedIsValid {
		considerTypo := func(candWord string, freq uint8, isPersonal bool) {
			if strings.HasPrefix(candWord, n) {
				return
			}
			d := fuzzy.EditDistance(n, candWord)
			if d < 1 || d > e.cfg.MaxEditDistance {
				return
			}
			conf := typoFreqWeight*freqScore(freq) + typoCtxWeight*e.personal.ContextScore(candWord, context) - distPenalty(d)
			if isPersonal {
				conf += personalBonus
			}
			minFreq := uint8(100)
			if isPersonal {
				minFreq = 50
			}
			auto := conf >= 0.65 && freq >= minFreq && d <= 1
			normKey := bintrie.NormalizeForLookup(candWord)
			display := formatWithCanonical(candWord, normKey, prefix, b.canonical)
			push(display, normKey, conf, auto)
		}
		for _, cw := range b.sweepAll(e.cfg.MaxSweepCandidates) {
			considerTypo(cw.Text, cw.Frequency, false)
		}
		for _, pe := range e.personal.CollectPrefix("", e.cfg.MaxSweepCandidates) {
			considerTypo(pe.Word, uint8(clampFreq(pe.Frequency)), true)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].confidence > out[j].confidence })
	if maxCount <= 0 {
		maxCount = e.cfg.MaxSuggestions
	}
	if maxCount > 0 && len(out) > maxCount {
		out = out[:maxCount]
	}
	suggestions := make([]Suggestion, len(out))
	for i, s := range out {
		suggestions[i] = Suggestion{Text: s.display, Confidence: s.confidence, IsEligibleForAutoCommit: s.autoCommit}
	}
	return suggestions
}

// PredictNextWord predicts the word following history using the active
// language's n-gram model.
func (e *Engine) PredictNextWord(history []string, max int) []Suggestion {
	b := e.activeBundle()
	preds := b.ngrams.PredictNextWord(history, max)
	return convertNgramSuggestions(preds)
}

// PredictCurrWord predicts completions for a partially typed word given
// preceding history, using the active language's n-gram model.
func (e *Engine) PredictCurrWord(curr string, history []string, max int) []Suggestion {
	b := e.activeBundle()
	preds := b.ngrams.PredictCurrWord(curr, history, max)
	return convertNgramSuggestions(preds)
}

func convertNgramSuggestions(preds []ngram.Suggestion) []Suggestion {
	out := make([]Suggestion, len(preds))
	for i, p := range preds {
		out[i] = Suggestion{Text: p.Text, Confidence: p.Confidence, IsEligibleForAutoCommit: p.IsEligibleForAutoCommit}
	}
	return out
}

// LearnWord records a use of word in the personal store and, treating
// (context..., word) as a tiny completed sentence, trains the active
// language's n-gram model on it so later predict_next_word calls can
// surface word after this context.
func (e *Engine) LearnWord(word string, context []string) {
	e.personal.LearnWord(word, context)

	norm := strings.ToLower(strings.TrimSpace(word))
	if len(norm) < 2 {
		return
	}
	sentence := make([]string, 0, len(context)+1)
	sentence = append(sentence, context...)
	sentence = append(sentence, norm)

	b := e.activeBundle()
	b.ngrams.Train(sentence)
}

// PenalizeWord decays word's personal frequency.
func (e *Engine) PenalizeWord(word string) {
	e.personal.PenalizeWord(word)
}

// RemoveWord deletes word from the personal dictionary and personal
// trie, so it can no longer surface as a completion or typo correction.
func (e *Engine) RemoveWord(word string) bool {
	return e.personal.RemoveWord(word)
}

// GetFrequency returns word's personal-store frequency normalized to
// [0,1] against the store's configured saturation ceiling, or 0 if word
// has no personal-store entry.
func (e *Engine) GetFrequency(word string) float64 {
	freq, ok := e.personal.Frequency(word)
	if !ok {
		return 0
	}
	return float64(freq) / float64(e.personal.MaxFrequency())
}

// ExportPersonalDict serializes the personal word->frequency map as JSON.
func (e *Engine) ExportPersonalDict() ([]byte, error) {
	return e.personal.ExportDict()
}

// ImportPersonalDict replaces the personal word->frequency map from JSON.
func (e *Engine) ImportPersonalDict(data []byte) error {
	return e.personal.ImportDict(data)
}

// ExportContextMap serializes the bigram context map as JSON.
func (e *Engine) ExportContextMap() ([]byte, error) {
	return e.personal.ExportContextMap()
}

// ImportContextMap replaces the bigram context map from JSON.
func (e *Engine) ImportContextMap(data []byte) error {
	return e.personal.ImportContextMap(data)
}
