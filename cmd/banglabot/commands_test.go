package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/banglabot/internal/catalog"
	"github.com/kalambet/banglabot/internal/config"
	"github.com/kalambet/banglabot/internal/engine"
	"github.com/kalambet/banglabot/internal/history"
	"github.com/kalambet/banglabot/internal/intent"
	"github.com/kalambet/banglabot/internal/pipeline"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client(token string) *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      token,
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestSendChat(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /v1/chat": `{"reply":"নমস্কার!","tag":"greeting","source":"intent"}`,
	})

	reply, err := sendChat(ctx, ts.client(""), "hello")
	if err != nil {
		t.Fatalf("sendChat: %v", err)
	}
	if reply.Text != "নমস্কার!" || reply.Tag != "greeting" || reply.Source != pipeline.SourceIntent {
		t.Errorf("reply = %+v", reply)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	var body map[string]string
	json.Unmarshal([]byte(ts.requests[0].Body), &body)
	if body["message"] != "hello" {
		t.Errorf("request body = %q", ts.requests[0].Body)
	}
	if ts.requests[0].Auth != "" {
		t.Errorf("unexpected Authorization header %q", ts.requests[0].Auth)
	}
}

func TestSendChat_ServerError(t *testing.T) {
	ts := newTestServer(t, nil)

	_, err := sendChat(ctx, ts.client(""), "hello")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestFetchHistory(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /history": `[{"id":"a","role":"user","text":"hello","at":"2026-01-02T03:04:05Z"},{"id":"b","role":"bot","text":"Hi!","at":"2026-01-02T03:04:06Z"}]`,
	})

	turns, err := fetchHistory(ctx, ts.client("tok"), 2)
	if err != nil {
		t.Fatalf("fetchHistory: %v", err)
	}
	if len(turns) != 2 || turns[1].Role != history.RoleBot || turns[1].Text != "Hi!" {
		t.Errorf("turns = %+v", turns)
	}
	if ts.requests[0].Path != "/history?limit=2" {
		t.Errorf("path = %q", ts.requests[0].Path)
	}
	if ts.requests[0].Auth != "Bearer tok" {
		t.Errorf("Authorization = %q", ts.requests[0].Auth)
	}
}

func TestServerNotReachable(t *testing.T) {
	c := &apiClient{baseURL: "http://127.0.0.1:1", httpClient: &http.Client{Timeout: time.Second}}
	_, err := c.get(ctx, "/health")
	if err == nil || !strings.Contains(err.Error(), "is banglabot running") {
		t.Errorf("err = %v", err)
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Intent{
		{Tag: "greeting", Patterns: []string{"hello"}, Responses: []string{"Hi!"}},
		{Tag: "goodbye", Patterns: []string{"bye"}, Responses: []string{"বিদায়"}},
		{Tag: "thanks", Patterns: []string{"thank you"}, Responses: []string{"ধন্যবাদ"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFilterIntents(t *testing.T) {
	intents := testCatalog(t).Intents()

	if got := filterIntents(intents, ""); len(got) != 3 {
		t.Errorf("empty filter: got %d intents", len(got))
	}

	got := filterIntents(intents, "gdby")
	if len(got) != 1 || got[0].Tag != "goodbye" {
		t.Errorf("filter gdby = %+v", got)
	}

	if got := filterIntents(intents, "zzz"); len(got) != 0 {
		t.Errorf("filter zzz = %+v", got)
	}
}

func TestWriteClassification(t *testing.T) {
	ix, err := intent.Build(testCatalog(t))
	if err != nil {
		t.Fatal(err)
	}
	cls := intent.NewClassifier(ix)

	var buf bytes.Buffer
	writeClassification(&buf, cls, "hello world")
	if got := buf.String(); got != "greeting (score 1)\n" {
		t.Errorf("match output = %q", got)
	}

	buf.Reset()
	writeClassification(&buf, cls, "what is rust")
	if got := buf.String(); got != "no match (best score 0, need 1)\n" {
		t.Errorf("no-match output = %q", got)
	}
}

func TestWriteClassificationScoresOnce(t *testing.T) {
	ix, err := intent.Build(testCatalog(t))
	if err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cls := intent.NewClassifier(ix, intent.WithLogger(logger))

	var buf bytes.Buffer
	writeClassification(&buf, cls, "hello world")
	if got := strings.Count(logs.String(), "intent scored"); got != 1 {
		t.Errorf("scoring records = %d, want 1", got)
	}
}

func TestNewLogger(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"bogus": slog.LevelInfo,
	}
	for name, want := range cases {
		l := newLogger(name)
		if !l.Enabled(ctx, want) {
			t.Errorf("%s: level %v not enabled", name, want)
		}
		if want > slog.LevelDebug && l.Enabled(ctx, want-4) {
			t.Errorf("%s: level below %v enabled", name, want)
		}
	}
}

func testConfig() config.Config {
	return config.Config{
		Classifier: config.ClassifierConfig{MinScore: 1},
		History:    config.HistoryConfig{ContextTurns: 6},
		Fallback:   config.FallbackConfig{Backend: "ollama", Persona: "reply in Bangla", Timeout: time.Second},
		Ollama:     config.OllamaConfig{BaseURL: "http://127.0.0.1:1", Model: "phi3.5"},
		Log:        config.LogConfig{Level: "info"},
	}
}

func TestBuildBot_DefaultCatalog(t *testing.T) {
	b, err := buildBot(ctx, testConfig(), newLogger("error"))
	if err != nil {
		t.Fatalf("buildBot: %v", err)
	}
	if b.catalog.Len() == 0 {
		t.Error("default catalog is empty")
	}
	if _, ok := b.generator.(*engine.OllamaGenerator); !ok {
		t.Errorf("generator = %T, want *engine.OllamaGenerator", b.generator)
	}

	reply, err := b.responder.Respond(ctx, "hello")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply.Source != pipeline.SourceIntent || reply.Tag != "greeting" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestBuildBot_MissingCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Path = "/nonexistent/intents.json"
	if _, err := buildBot(ctx, cfg, newLogger("error")); err == nil {
		t.Fatal("expected error for missing catalog")
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Fallback.Backend = "OpenRouter"
	cfg.Proxy = config.ProxyConfig{OpenRouterAPIKey: "k", Model: "m"}

	ec := engineConfig(cfg)
	if ec.Backend != engine.BackendOpenRouter || ec.OpenRouterModel != "m" {
		t.Errorf("engine config = %+v", ec)
	}
	if ec.Sampling.TopK != 64 {
		t.Errorf("sampling = %+v", ec.Sampling)
	}
}
