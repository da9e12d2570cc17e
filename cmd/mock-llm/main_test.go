package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/c360studio/briefwork/llm"
	"github.com/c360studio/briefwork/llm/providers"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func newTestServer(t *testing.T, fixtures map[string][]string) (*server, *httptest.Server) {
	t.Helper()
	s := newServer(fixtures, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url, body string) map[string]any {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s: status %d", url, resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func chatContent(t *testing.T, resp map[string]any) string {
	t.Helper()
	choices, ok := resp["choices"].([]any)
	if !ok || len(choices) != 1 {
		t.Fatalf("expected one choice, got %v", resp["choices"])
	}
	msg := choices[0].(map[string]any)["message"].(map[string]any)
	return msg["content"].(string)
}

func TestLoadFixtures_Sequential(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "gpt-4o-mini@1.json", `{"projectName":"First"}`)
	writeFixture(t, dir, "gpt-4o-mini@2.json", `{"projectName":"Second"}`)
	writeFixture(t, dir, "gpt-4o-mini.json", `{"projectName":"Fallback"}`)
	writeFixture(t, dir, "llama3.1.json", "plain text reply\n")
	writeFixture(t, dir, "qwen2.5@1.json", "only once")
	writeFixture(t, dir, "notes.txt", "ignored")

	fixtures, err := loadFixtures(dir)
	if err != nil {
		t.Fatalf("loadFixtures: %v", err)
	}
	if len(fixtures) != 3 {
		t.Fatalf("expected 3 models, got %v", fixtures)
	}

	seq := fixtures["gpt-4o-mini"]
	if len(seq) != 3 {
		t.Fatalf("gpt-4o-mini: expected 3 fixtures, got %d", len(seq))
	}
	for i, want := range []string{"First", "Second", "Fallback"} {
		if !strings.Contains(seq[i], want) {
			t.Errorf("fixture[%d] = %s, want %s", i, seq[i], want)
		}
	}
	if got := fixtures["llama3.1"]; len(got) != 1 || got[0] != "plain text reply" {
		t.Errorf("llama3.1 = %q", got)
	}
	if got := fixtures["qwen2.5"]; len(got) != 1 || got[0] != "only once" {
		t.Errorf("qwen2.5 = %q", got)
	}
	if _, ok := fixtures["llama3"]; ok {
		t.Error("dotted model name split into a numbered fixture")
	}
}

func TestLoadFixtures_MissingDir(t *testing.T) {
	if _, err := loadFixtures(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestChatCompletions_TemplateAnswer(t *testing.T) {
	_, ts := newTestServer(t, nil)

	prompt := "Task: " + llm.TaskDiscovery + "\n\nWho is this for: runners"
	body, _ := json.Marshal(chatRequest{
		Model:    "gpt-4o-mini",
		Messages: []chatMessage{{Role: "system", Content: "be brief"}, {Role: "user", Content: prompt}},
	})
	resp := postJSON(t, ts.URL+"/v1/chat/completions", string(body))

	if got, want := chatContent(t, resp), providers.Respond(prompt); got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
	if resp["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", resp["model"])
	}
}

func TestChatCompletions_FixtureSequence(t *testing.T) {
	s, ts := newTestServer(t, map[string][]string{"mock-model": {"one", "two"}})

	var got []string
	for range 4 {
		resp := postJSON(t, ts.URL+"/v1/chat/completions", `{"model":"mock-model","messages":[{"role":"user","content":"hi"}]}`)
		got = append(got, chatContent(t, resp))
	}
	if strings.Join(got, ",") != "one,two,two,two" {
		t.Errorf("sequence = %v", got)
	}
	if s.calls.Load() != 4 {
		t.Errorf("calls = %d", s.calls.Load())
	}
}

func TestMessages_AnthropicShape(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/v1/messages", `{"model":"claude","max_tokens":10,"messages":[{"role":"user","content":"hello there"}]}`)
	content := resp["content"].([]any)
	block := content[0].(map[string]any)
	if block["type"] != "text" || block["text"] != providers.Respond("hello there") {
		t.Errorf("block = %v", block)
	}
	if resp["stop_reason"] != "end_turn" {
		t.Errorf("stop_reason = %v", resp["stop_reason"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, nil)
	for _, path := range []string{"/v1/chat/completions", "/v1/messages"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("GET %s: status %d", path, resp.StatusCode)
		}
	}
}

func TestBadBody(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Post(ts.URL+"/v1/chat/completions", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestStatsAndRequests(t *testing.T) {
	_, ts := newTestServer(t, nil)
	postJSON(t, ts.URL+"/v1/chat/completions", `{"model":"a","messages":[{"role":"user","content":"first"}]}`)
	postJSON(t, ts.URL+"/v1/chat/completions", `{"model":"a","messages":[{"role":"user","content":"second"}]}`)
	postJSON(t, ts.URL+"/v1/messages", `{"model":"b","messages":[{"role":"user","content":"third"}]}`)

	resp, err := http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var stats struct {
		TotalCalls   int64          `json:"total_calls"`
		CallsByModel map[string]int `json:"calls_by_model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalCalls != 3 || stats.CallsByModel["a"] != 2 || stats.CallsByModel["b"] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	reqResp, err := http.Get(ts.URL + "/requests?model=a&call=2")
	if err != nil {
		t.Fatal(err)
	}
	defer reqResp.Body.Close()
	var captured struct {
		RequestsByModel map[string][]capturedRequest `json:"requests_by_model"`
	}
	if err := json.NewDecoder(reqResp.Body).Decode(&captured); err != nil {
		t.Fatal(err)
	}
	got := captured.RequestsByModel["a"]
	if len(got) != 1 || got[0].Messages[0].Content != "second" || got[0].API != "openai" {
		t.Errorf("captured = %+v", captured.RequestsByModel)
	}
	if _, ok := captured.RequestsByModel["b"]; ok {
		t.Error("model filter not applied")
	}
}

func TestModelsAndHealth(t *testing.T) {
	_, ts := newTestServer(t, map[string][]string{"zeta": {"x"}, "alpha": {"y"}})

	resp, err := http.Get(ts.URL + "/v1/models")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	if strings.Join(ids, ",") != "alpha,zeta,mock-model" {
		t.Errorf("models = %v", ids)
	}

	health, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("health status %d", health.StatusCode)
	}
}

// The real provider adapters must be able to talk to the mock server.
func TestProviderAdapters(t *testing.T) {
	_, ts := newTestServer(t, nil)
	prompt := "Task: " + llm.TaskExercises + "\n\nOne sentence: mud"

	for _, p := range []llm.ProviderName{llm.ProviderOpenAI, llm.ProviderOllama, llm.ProviderAnthropic} {
		t.Run(string(p), func(t *testing.T) {
			baseURL := ts.URL + "/v1"
			if p == llm.ProviderAnthropic {
				baseURL = ts.URL
			}
			client, err := llm.NewClient(llm.Config{Provider: p, APIKey: "test-key", BaseURL: baseURL})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			resp, err := client.Complete(context.Background(), llm.Request{Prompt: prompt, SystemPrompt: "be brief", MaxTokens: 50})
			if err != nil {
				t.Fatalf("Complete: %v", err)
			}
			if resp.Text != providers.Respond(prompt) {
				t.Errorf("text = %q", resp.Text)
			}
		})
	}
}
