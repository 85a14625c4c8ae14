/*
Package ipc implements MessagePack IPC for the keypredict demo server.

The server operates on a request/response model: clients send a structured
message via stdin and receive a response on stdout. Each message carries an
id field the response echoes back, generated with a uuid when a caller
omits one.

A suggest request looks like:

	{"action": "suggest", "id": "req_001", "prefix": "ame", "limit": 5}

The server responds with suggestions ranked by confidence:

	{"id": "req_001", "suggestions": [{"text": "amenity", "confidence": 0.91}], "count": 1, "t": 145}

Other supported actions: "spell_check", "predict_next", "learn_word".

This demo protocol is not the host-language foreign-call bridge a real
keyboard integration would use — it exists to exercise the engine end to
end over a process boundary, the way the teacher's msgpack server exercises
its completer.
*/
package ipc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bastiangx/keypredict/internal/logger"
	"github.com/bastiangx/keypredict/pkg/config"
	"github.com/bastiangx/keypredict/pkg/engine"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

var ipcLog = logger.Default("ipc")

// SuggestionWire is a single wire-encoded suggestion.
type SuggestionWire struct {
	Text       string  `msgpack:"text"`
	Confidence float64 `msgpack:"confidence"`
	AutoCommit bool    `msgpack:"auto_commit,omitempty"`
}

// SuggestRequest asks for completions beneath a prefix.
type SuggestRequest struct {
	ID      string   `msgpack:"id"`
	Prefix  string   `msgpack:"prefix"`
	Context []string `msgpack:"context,omitempty"`
	Limit   int      `msgpack:"limit,omitempty"`
}

// SuggestResponse carries ranked suggestions and request timing.
type SuggestResponse struct {
	ID          string           `msgpack:"id"`
	Suggestions []SuggestionWire `msgpack:"suggestions"`
	Count       int              `msgpack:"count"`
	TimeTaken   int64            `msgpack:"t"`
}

// SpellCheckRequest asks whether a word is valid and, if not, for corrections.
type SpellCheckRequest struct {
	ID             string   `msgpack:"id"`
	Word           string   `msgpack:"word"`
	Context        []string `msgpack:"context,omitempty"`
	MaxSuggestions int      `msgpack:"max_suggestions,omitempty"`
}

// SpellCheckResponse carries the spell_check verdict.
type SpellCheckResponse struct {
	ID          string   `msgpack:"id"`
	IsValid     bool     `msgpack:"is_valid"`
	IsTypo      bool     `msgpack:"is_typo"`
	Suggestions []string `msgpack:"suggestions"`
}

// PredictRequest asks for the next-word prediction given recent history.
type PredictRequest struct {
	ID      string   `msgpack:"id"`
	History []string `msgpack:"history"`
	Limit   int      `msgpack:"limit,omitempty"`
}

// PredictResponse carries ranked next-word predictions.
type PredictResponse struct {
	ID          string           `msgpack:"id"`
	Suggestions []SuggestionWire `msgpack:"suggestions"`
	Count       int              `msgpack:"count"`
}

// LearnWordRequest records a word use for the personal store and n-gram model.
type LearnWordRequest struct {
	ID      string   `msgpack:"id"`
	Word    string   `msgpack:"word"`
	Context []string `msgpack:"context,omitempty"`
}

// StatusResponse is a generic ok/error acknowledgement.
type StatusResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Error  string `msgpack:"error,omitempty"`
}

// Server dispatches msgpack requests from stdin to an Engine and writes
// msgpack responses to stdout.
type Server struct {
	eng        *engine.Engine
	cfg        *config.Config
	configPath string

	decoder      *msgpack.Decoder
	writeMutex   sync.Mutex
	requestCount int64
}

// NewServer returns a Server bound to eng, configured from cfg.
func NewServer(eng *engine.Engine, cfg *config.Config, configPath string) *Server {
	return &Server{
		eng:        eng,
		cfg:        cfg,
		configPath: configPath,
		decoder:    msgpack.NewDecoder(os.Stdin),
	}
}

// Start reads requests from stdin until EOF, dispatching each to the
// engine and writing a response to stdout.
func (s *Server) Start() error {
	ipcLog.Debug("starting msgpack suggestion server")
	for {
		if err := s.handleOne(); err != nil {
			if err == io.EOF {
				ipcLog.Debug("client disconnected")
				return nil
			}
			ipcLog.Debugf("request error: %v", err)
			continue
		}
	}
}

func (s *Server) handleOne() error {
	s.requestCount++
	if s.requestCount%100 == 0 {
		if reloaded, err := config.LoadConfig(s.configPath); err == nil {
			s.cfg = reloaded
		} else {
			ipcLog.Warnf("failed to reload config, keeping current: %v", err)
		}
	}

	var raw map[string]interface{}
	if err := s.decoder.Decode(&raw); err != nil {
		return err
	}

	id, _ := raw["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}

	action, _ := raw["action"].(string)
	switch action {
	case "suggest":
		return s.handleSuggest(id, raw)
	case "spell_check":
		return s.handleSpellCheck(id, raw)
	case "predict_next":
		return s.handlePredict(id, raw)
	case "learn_word":
		return s.handleLearnWord(id, raw)
	default:
		return s.sendResponse(&StatusResponse{ID: id, Status: "error", Error: fmt.Sprintf("unknown action: %q", action)})
	}
}

func (s *Server) handleSuggest(id string, raw map[string]interface{}) error {
	prefix, _ := raw["prefix"].(string)
	limit := intField(raw, "limit")
	if limit <= 0 {
		limit = s.cfg.Engine.MaxSuggestions
	}
	if limit > s.cfg.Server.MaxLimit {
		limit = s.cfg.Server.MaxLimit
	}
	context := stringSliceField(raw, "context")

	start := time.Now()
	suggestions := s.eng.Suggest(prefix, context, limit)
	elapsed := time.Since(start)

	return s.sendResponse(&SuggestResponse{
		ID:          id,
		Suggestions: toWireSuggestions(suggestions),
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleSpellCheck(id string, raw map[string]interface{}) error {
	word, _ := raw["word"].(string)
	maxSuggestions := intField(raw, "max_suggestions")
	if maxSuggestions <= 0 {
		maxSuggestions = s.cfg.Engine.MaxSpellSuggestions
	}
	context := stringSliceField(raw, "context")

	res := s.eng.SpellCheck(word, context, maxSuggestions)
	return s.sendResponse(&SpellCheckResponse{
		ID:          id,
		IsValid:     res.IsValid,
		IsTypo:      res.IsTypo,
		Suggestions: res.Suggestions,
	})
}

func (s *Server) handlePredict(id string, raw map[string]interface{}) error {
	history := stringSliceField(raw, "history")
	limit := intField(raw, "limit")
	if limit <= 0 {
		limit = s.cfg.Ngram.MaxCandidates
	}

	preds := s.eng.PredictNextWord(history, limit)
	return s.sendResponse(&PredictResponse{
		ID:          id,
		Suggestions: toWireSuggestions(preds),
		Count:       len(preds),
	})
}

func (s *Server) handleLearnWord(id string, raw map[string]interface{}) error {
	word, _ := raw["word"].(string)
	context := stringSliceField(raw, "context")
	s.eng.LearnWord(word, context)
	return s.sendResponse(&StatusResponse{ID: id, Status: "ok"})
}

func toWireSuggestions(suggestions []engine.Suggestion) []SuggestionWire {
	out := make([]SuggestionWire, len(suggestions))
	for i, sg := range suggestions {
		out[i] = SuggestionWire{Text: sg.Text, Confidence: sg.Confidence, AutoCommit: sg.IsEligibleForAutoCommit}
	}
	return out
}

func intField(raw map[string]interface{}, key string) int {
	switch v := raw[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func stringSliceField(raw map[string]interface{}, key string) []string {
	v, ok := raw[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v))
	for _, e := range v {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// sendResponse encodes and writes a msgpack response to stdout atomically.
func (s *Server) sendResponse(response any) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(response); err != nil {
		return fmt.Errorf("ipc: encoding response: %w", err)
	}
	if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("ipc: writing response: %w", err)
	}
	return nil
}
