// Package main implements an offline LLM server for development and e2e runs.
// It speaks the OpenAI chat completions API (also used for Ollama) and the
// Anthropic messages API, so any briefwork provider can be pointed at it with
// llm.baseURL. Answers come from the same templates as the in-process mock
// provider, keyed off the "Task:" line of the prompt.
//
// Usage:
//
//	mock-llm -port 11434 [-fixtures /path/to/fixtures]
//
// Fixtures override the templates per model: "gpt-4o-mini.json" is returned
// as the assistant text for model "gpt-4o-mini". Numbered files
// ("gpt-4o-mini@1.json", "gpt-4o-mini@2.json") are served in order, one per
// call, after which the base file repeats. The "@" keeps dotted model names
// such as "llama3.1" unambiguous. Fixture content need not be JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/c360studio/briefwork/llm/providers"
)

// --- OpenAI-compatible types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Anthropic-compatible types ---

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      messagesUsage  `json:"usage"`
}

type messagesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// --- Server ---

// capturedRequest stores the key fields of an incoming request for test verification.
type capturedRequest struct {
	API       string        `json:"api"`
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	CallIndex int           `json:"call_index"` // 1-indexed per-model call number
	Timestamp int64         `json:"timestamp"`
}

type server struct {
	fixtures map[string][]string // model name → ordered fixture contents (sequential)
	logger   *slog.Logger
	calls    atomic.Int64 // total calls served

	mu         sync.Mutex
	modelCalls map[string]int
	requests   map[string][]capturedRequest
}

func newServer(fixtures map[string][]string, logger *slog.Logger) *server {
	return &server{
		fixtures:   fixtures,
		logger:     logger,
		modelCalls: make(map[string]int),
		requests:   make(map[string][]capturedRequest),
	}
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory of per-model fixture files (optional)")
	port := flag.Int("port", 11434, "port to listen on")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if envDir := os.Getenv("MOCK_LLM_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}

	fixtures := map[string][]string{}
	if *fixtureDir != "" {
		var err error
		fixtures, err = loadFixtures(*fixtureDir)
		if err != nil {
			logger.Error("Failed to load fixtures", "dir", *fixtureDir, "error", err)
			os.Exit(1)
		}
		for model, seq := range fixtures {
			logger.Info("Loaded fixtures", "model", model, "count", len(seq))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           newServer(fixtures, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Mock LLM server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/v1/messages", s.handleMessages)
	mux.HandleFunc("/v1/models", s.handleModels)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/requests", s.handleRequests)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// answer picks the reply for one call and records it.
func (s *server) answer(api, model string, messages []chatMessage) string {
	callNum := s.calls.Add(1)

	s.mu.Lock()
	s.modelCalls[model]++
	callIndex := s.modelCalls[model]
	s.requests[model] = append(s.requests[model], capturedRequest{
		API:       api,
		Model:     model,
		Messages:  messages,
		CallIndex: callIndex,
		Timestamp: time.Now().UnixMilli(),
	})
	s.mu.Unlock()

	if seq, ok := s.fixtures[model]; ok && len(seq) > 0 {
		s.logger.Info("Serving fixture", "call", callNum, "model", model, "index", callIndex, "of", len(seq))
		return seq[min(callIndex, len(seq))-1]
	}

	prompt := lastUserMessage(messages)
	s.logger.Info("Serving template", "call", callNum, "model", model, "api", api)
	return providers.Respond(prompt)
}

func lastUserMessage(messages []chatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

func estimateTokens(s string) int {
	return len(strings.Fields(s))
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	content := s.answer("openai", req.Model, req.Messages)
	prompt := estimateTokens(lastUserMessage(req.Messages))
	completion := estimateTokens(content)
	writeJSON(w, chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{{
			Message:      chatMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: chatUsage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	})
}

func (s *server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req messagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	content := s.answer("anthropic", req.Model, req.Messages)
	writeJSON(w, messagesResponse{
		ID:         fmt.Sprintf("msg_mock_%d", time.Now().UnixNano()),
		Type:       "message",
		Role:       "assistant",
		Model:      req.Model,
		Content:    []contentBlock{{Type: "text", Text: content}},
		StopReason: "end_turn",
		Usage: messagesUsage{
			InputTokens:  estimateTokens(lastUserMessage(req.Messages)),
			OutputTokens: estimateTokens(content),
		},
	})
}

// handleModels lists the fixture models; the templates answer any model.
func (s *server) handleModels(w http.ResponseWriter, _ *http.Request) {
	type modelEntry struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		OwnedBy string `json:"owned_by"`
	}
	names := make([]string, 0, len(s.fixtures)+1)
	for name := range s.fixtures {
		names = append(names, name)
	}
	sort.Strings(names)
	names = append(names, "mock-model")

	models := make([]modelEntry, len(names))
	for i, name := range names {
		models[i] = modelEntry{ID: name, Object: "model", OwnedBy: "mock-llm"}
	}
	writeJSON(w, map[string]any{"object": "list", "data": models})
}

// handleStats returns call counts for test assertions.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	callsByModel := make(map[string]int, len(s.modelCalls))
	for model, n := range s.modelCalls {
		callsByModel[model] = n
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"total_calls":    s.calls.Load(),
		"calls_by_model": callsByModel,
	})
}

// handleRequests returns captured requests, optionally filtered by the
// model and call (1-indexed) query parameters.
func (s *server) handleRequests(w http.ResponseWriter, r *http.Request) {
	modelFilter := r.URL.Query().Get("model")
	callFilter, _ := strconv.Atoi(r.URL.Query().Get("call"))

	s.mu.Lock()
	result := make(map[string][]capturedRequest)
	for model, reqs := range s.requests {
		if modelFilter != "" && model != modelFilter {
			continue
		}
		for _, req := range reqs {
			if callFilter == 0 || req.CallIndex == callFilter {
				result[model] = append(result[model], req)
			}
		}
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"requests_by_model": result})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// numberedFileRe matches files like "gpt-4o-mini@1.json".
var numberedFileRe = regexp.MustCompile(`^(.+)@(\d+)\.json$`)

// loadFixtures reads the .json files in dir into model → reply sequences.
// Numbered files come first in numeric order; the base file, if any, is the
// final repeating entry.
func loadFixtures(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}

	base := make(map[string]string)
	numbered := make(map[string]map[int]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		content := strings.TrimSpace(string(data))

		if m := numberedFileRe.FindStringSubmatch(name); m != nil {
			index, _ := strconv.Atoi(m[2])
			if numbered[m[1]] == nil {
				numbered[m[1]] = make(map[int]string)
			}
			numbered[m[1]][index] = content
			continue
		}
		base[strings.TrimSuffix(name, ".json")] = content
	}

	fixtures := make(map[string][]string)
	for model, byIndex := range numbered {
		indices := make([]int, 0, len(byIndex))
		for i := range byIndex {
			indices = append(indices, i)
		}
		sort.Ints(indices)
		for _, i := range indices {
			fixtures[model] = append(fixtures[model], byIndex[i])
		}
	}
	for model, content := range base {
		fixtures[model] = append(fixtures[model], content)
	}
	return fixtures, nil
}
