// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/keypredict/internal/utils"
	"github.com/bastiangx/keypredict/pkg/engine"
	"github.com/charmbracelet/log"
)

// InputHandler processes user input from stdin and drives an Engine,
// printing suggestions, spell-check results, and next-word predictions.
// It accepts flags to control minimum/maximum prefix length, suggestion
// limits, and filtering options.
type InputHandler struct {
	eng             *engine.Engine
	minPrefixLength int
	maxPrefixLength int
	suggestLimit    int
	requestCount    int
	noFilter        bool
	history         []string
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(eng *engine.Engine, minLength, maxLength, limit int, noFilter bool) *InputHandler {
	return &InputHandler{
		eng:             eng,
		minPrefixLength: minLength,
		maxPrefixLength: maxLength,
		suggestLimit:    limit,
		noFilter:        noFilter,
	}
}

// Start begins the interface loop.
// It continuously prompts for input, reads a line from stdin, and
// dispatches the trimmed input to handleSpellCheck() ("?word"),
// handlePredict() ("!") or handleInput() (anything else).
// The loop ends if an error occurs while reading from stdin.
func (h *InputHandler) Start() error {
	log.Print("keypredict CLI [BETA]")
	reader := bufio.NewReader(os.Stdin)
	log.Print("type a prefix for suggestions, '?word' to spell_check, '!' to predict the next word (Ctrl+C to exit):")

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "?"):
			h.handleSpellCheck(strings.TrimSpace(strings.TrimPrefix(line, "?")))
		case line == "!":
			h.handlePredict()
		default:
			h.handleInput(line)
		}
	}
}

// handlePredict asks the engine for the next word given recent history,
// mirroring the capitalization of the last typed word onto predictions
// (e.g. history ending in "The" capitalizes predicted continuations).
func (h *InputHandler) handlePredict() {
	if len(h.history) == 0 {
		log.Warn("No history yet to predict from")
		return
	}
	_, capInfo := utils.GetCapitalDetails(h.history[len(h.history)-1])

	preds := h.eng.PredictNextWord(h.history, h.suggestLimit)
	if len(preds) == 0 {
		log.Warnf("No predictions found for history: %v", h.history)
		return
	}
	log.Printf("Predicted next word after %v:", h.history)
	for i, p := range preds {
		text := utils.CapitalizeAtPositions(p.Text, capInfo)
		clWord := fmt.Sprintf("\033[38;5;75m%s\033[0m", text)
		log.Printf("%2d. %-40s (confidence: %.2f)", i+1, clWord, p.Confidence)
	}
}

// handleInput processes a single prefix, asking the engine for
// completions. Results are formatted and printed to the log, and the
// top suggestion is appended to the handler's rolling history, which
// later requests pass to the engine as context.
func (h *InputHandler) handleInput(prefix string) {
	h.requestCount++
	if h.requestCount%50 == 0 {
		log.Debug("periodic cleanup tick", "requests", h.requestCount)
	}

	if len(prefix) < h.minPrefixLength {
		log.Errorf("Prefix too short: %s", prefix)
		return
	}
	if len(prefix) > h.maxPrefixLength {
		log.Errorf("Prefix too long: %s", prefix)
		return
	}

	if !h.noFilter {
		if !utils.IsValidInput(prefix) {
			log.Infof("No results found for prefix: '%s' (filtered out)", prefix)
			return
		}
	} else {
		log.Debug("Input filtering disabled - indexed all entries")
	}

	start := time.Now()
	log.Debug("Processing request for", "prefix", prefix)

	suggestions := h.eng.Suggest(prefix, h.history, h.suggestLimit)

	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for prefix '%s'", elapsed, prefix)

	if len(suggestions) == 0 {
		log.Warnf("No suggestions found for prefix: '%s'", prefix)
		return
	}

	log.Printf("Found %d suggestions for prefix '%s':", len(suggestions), prefix)
	for i, s := range suggestions {
		clWord := fmt.Sprintf("\033[38;5;75m%s\033[0m", s.Text)
		mark := ""
		if s.IsEligibleForAutoCommit {
			mark = " *"
		}
		log.Printf("%2d. %-40s (confidence: %.2f)%s", i+1, clWord, s.Confidence, mark)
	}

	h.pushHistory(suggestions[0].Text)
}

// handleSpellCheck asks the engine whether word is valid, printing
// corrections when it's not.
func (h *InputHandler) handleSpellCheck(word string) {
	if word == "" {
		log.Error("No word given to spell_check")
		return
	}
	res := h.eng.SpellCheck(word, h.history, h.suggestLimit)
	if res.IsValid {
		log.Printf("'%s' is a known word", word)
		return
	}
	if len(res.Suggestions) == 0 {
		log.Warnf("No corrections found for '%s'", word)
		return
	}
	log.Printf("'%s' looks like a typo, did you mean:", word)
	for i, s := range res.Suggestions {
		clWord := fmt.Sprintf("\033[38;5;75m%s\033[0m", s)
		log.Printf("%2d. %s", i+1, clWord)
	}
}

// pushHistory records word as recent context, bounding the window to
// the last 3 words the way the personal store's context map does.
func (h *InputHandler) pushHistory(word string) {
	h.history = append(h.history, word)
	if len(h.history) > 3 {
		h.history = h.history[len(h.history)-3:]
	}
}
