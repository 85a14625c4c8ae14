// Package ngram implements the n-gram prediction model: a single trie over
// character sequences separated by a reserved token-separator code point,
// scored by a recency/frequency blend and, for partially-typed words, a
// character-similarity gate.
package ngram

import (
	"github.com/bastiangx/keypredict/pkg/candidate"
	"github.com/bastiangx/keypredict/pkg/config"
	"github.com/bastiangx/keypredict/pkg/fuzzy"
	"golang.org/x/text/unicode/norm"
)

const (
	// tokenSeparator delimits tokens within an ngram key. It must never
	// appear in trained word text.
	tokenSeparator = rune(0x001E)
	// sentenceStartToken marks the beginning of a training sentence.
	sentenceStartToken = "\x00"
)

type nodeStats struct {
	time  uint64
	count uint64
}

type node struct {
	children map[rune]*node
	word     string // set only on a node that is the end of a leading (k=1) token
	stats    nodeStats
}

func (n *node) child(r rune) *node {
	if n.children == nil {
		n.children = make(map[rune]*node)
	}
	c, ok := n.children[r]
	if !ok {
		c = &node{}
		n.children[r] = c
	}
	return c
}

// Model is the n-gram prediction model. The zero value is not usable; use
// New or NewWithConfig.
type Model struct {
	root          *node
	globalTime    uint64
	globalCount   uint64
	maxNgramSize  int
	maxCandidates int
	leadWords     map[string]*node

	recencyWindow uint64
	weightTime    float64
	weightCount   float64
	weightHist    float64
}

// New returns an empty Model using config.DefaultConfig's ngram window and
// weighting knobs (max_ngram_size=3, max_candidates=5).
func New() *Model {
	return NewWithConfig(config.DefaultConfig().Ngram)
}

// NewWithConfig returns an empty Model using cfg's window sizes, recency
// window, and blend weights, so editing config.toml's [ngram] section
// actually changes runtime scoring instead of being decorative.
func NewWithConfig(cfg config.NgramConfig) *Model {
	return &Model{
		root:          &node{},
		maxNgramSize:  cfg.MaxNgramSize,
		maxCandidates: cfg.MaxCandidates,
		leadWords:     make(map[string]*node),
		recencyWindow: uint64(cfg.RecencyWindow),
		weightTime:    cfg.WeightTime,
		weightCount:   cfg.WeightCount,
		weightHist:    cfg.WeightHistory,
	}
}

// Suggestion mirrors the engine's public Suggestion shape so predictions
// can be returned without an import cycle back into pkg/engine.
type Suggestion struct {
	Text                   string
	Confidence             float64
	IsEligibleForAutoCommit bool
}

// Train trains the model on a completed sentence [w1..wn]: the
// sentence-start token is prepended, and for each terminating position j
// and each k in [1..min(max_ngram_size, j+1)], the reversed ngram
// [w_j, w_{j-1}, ..., w_{j-k+1}] is inserted via a separator-delimited key,
// each word first converted to its NFD character sequence.
func (m *Model) Train(sentence []string) {
	if len(sentence) == 0 {
		return
	}
	tokens := make([]string, 0, len(sentence)+1)
	tokens = append(tokens, sentenceStartToken)
	tokens = append(tokens, sentence...)

	for j := 0; j < len(tokens); j++ {
		maxK := m.maxNgramSize
		if j+1 < maxK {
			maxK = j + 1
		}
		for k := 1; k <= maxK; k++ {
			seq := make([]string, k)
			for idx := 0; idx < k; idx++ {
				seq[idx] = tokens[j-idx]
			}
			m.insert(seq)
		}
	}
}

// insert walks seq (leading word first, then history tokens nearest
// first) into the trie and bumps the end node's (time, count) counters.
func (m *Model) insert(seq []string) {
	cur := m.root
	for i, tok := range seq {
		for _, r := range norm.NFD.String(tok) {
			cur = cur.child(r)
		}
		if i == 0 {
			cur.word = tok
			if _, ok := m.leadWords[tok]; !ok {
				m.leadWords[tok] = cur
			}
		}
		if i < len(seq)-1 {
			cur = cur.child(tokenSeparator)
		}
	}
	m.globalCount++
	m.globalTime++
	cur.stats.time = m.globalTime
	cur.stats.count++
}

// norm01 implements the spec's norm(x) saturation curve: 0 below min, 1 at
// or above max, otherwise the quadratic 2x'-x'^2 for x'=(x-min)/(max-min).
func norm01(x, xmin, xmax uint64) float64 {
	if x <= xmin {
		return 0
	}
	if x >= xmax {
		return 1
	}
	xn := float64(x-xmin) / float64(xmax-xmin)
	return 2*xn - xn*xn
}

// PredictNextWord predicts the word following history, with no partially
// typed current word. history is the recent word window (most recent
// last), not including the sentence-start token — predict prepends it.
func (m *Model) PredictNextWord(history []string, max int) []Suggestion {
	return m.predict("", history, max)
}

// PredictCurrWord predicts completions for a partially typed word curr,
// given the preceding history. Candidates whose character similarity to
// curr falls below 0.5 are excluded.
func (m *Model) PredictCurrWord(curr string, history []string, max int) []Suggestion {
	return m.predict(curr, history, max)
}

func (m *Model) predict(curr string, history []string, max int) []Suggestion {
	if max <= 0 {
		max = m.maxCandidates
	}
	tmax := m.globalTime
	tmin := uint64(0)
	if tmax > m.recencyWindow {
		tmin = tmax - m.recencyWindow
	}
	cmax := m.globalCount
	cmin := uint64(0)

	fullHistory := make([]string, 0, len(history)+1)
	fullHistory = append(fullHistory, sentenceStartToken)
	fullHistory = append(fullHistory, history...)

	q := candidate.NewQueue(max)
	for word, v := range m.leadWords {
		if word == sentenceStartToken {
			continue
		}
		if curr != "" && fuzzy.CharSimilarity(v.word, curr) < 0.5 {
			continue
		}

		timeConf := norm01(v.stats.time, tmin, tmax)
		countConf := norm01(v.stats.count, cmin, cmax)

		histConf := m.historyConfidence(v, fullHistory, tmin, tmax, cmin, cmax)
		conf := m.weightTime*timeConf + m.weightCount*countConf + m.weightHist*histConf

		q.Push(word, conf)
	}

	ranked := q.IntoSortedVec()
	out := make([]Suggestion, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, Suggestion{
			Text:       c.Text,
			Confidence: float64(c.Confidence) / 254.0,
		})
	}
	return out
}

// historyConfidence walks up to max_ngram_size-1 history steps from the
// leading-word node v, nearest preceding word first, stopping as soon as a
// step's separator+token edge is missing. It scores every matched depth
// and returns the max across them, since shorter ngrams
// recur across more training sentences than longer ones and can outscore
// a deeper but rarer match — matching candidates.rs's push-every-level,
// let-the-queue's-max-win behavior rather than last-write-wins.
func (m *Model) historyConfidence(v *node, history []string, tmin, tmax, cmin, cmax uint64) float64 {
	cur := v
	var best float64
	steps := m.maxNgramSize - 1
	// history is ordered oldest-first; walk nearest-preceding-word first.
	for i := 0; i < steps && i < len(history); i++ {
		tok := history[len(history)-1-i]
		sep, ok := cur.children[tokenSeparator]
		if !ok {
			break
		}
		next := sep
		matched := true
		for _, r := range norm.NFD.String(tok) {
			child, ok := next.children[r]
			if !ok {
				matched = false
				break
			}
			next = child
		}
		if !matched {
			break
		}
		histTime := norm01(next.stats.time, tmin, tmax)
		histCount := norm01(next.stats.count, cmin, cmax)
		score := m.weightTime*histTime + m.weightCount*histCount + m.weightHist*1.0
		if score > best {
			best = score
		}
		cur = next
	}
	return best
}

// GlobalTime and GlobalCount expose the model's monotonic counters.
func (m *Model) GlobalTime() uint64  { return m.globalTime }
func (m *Model) GlobalCount() uint64 { return m.globalCount }
