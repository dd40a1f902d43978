package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/banglabot/internal/catalog"
	"github.com/kalambet/banglabot/internal/pipeline"
)

const (
	maxRequestBodySize  = 1 << 20 // 1MB
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// Deps holds everything the HTTP and MCP layers serve from.
type Deps struct {
	Responder *pipeline.Responder
	Catalog   *catalog.Catalog
	// APIToken protects the history routes when non-empty.
	APIToken string
}

// NewHandler returns the bot's HTTP API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/get", handleGet(deps))
	r.Post("/v1/chat", handleChat(deps))
	r.Get("/intents", handleIntents(deps))

	r.Group(func(r chi.Router) {
		if deps.APIToken != "" {
			r.Use(BearerAuth(deps.APIToken))
		}
		r.Get("/history", handleHistory(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleGet serves the form endpoint: field "msg" in, plain-text reply out.
func handleGet(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		if err := r.ParseForm(); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid form body: %v", err)
			return
		}

		reply, err := deps.Responder.Respond(r.Context(), r.PostFormValue("msg"))
		if err != nil {
			writeRespondError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(reply.Text))
	}
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		reply, err := deps.Responder.Respond(r.Context(), req.Message)
		if err != nil {
			writeRespondError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, reply)
	}
}

// IntentSummary describes one catalog intent without its full text.
type IntentSummary struct {
	Tag       string `json:"tag"`
	Patterns  int    `json:"patterns"`
	Responses int    `json:"responses"`
}

func summarizeIntents(c *catalog.Catalog) []IntentSummary {
	out := make([]IntentSummary, 0, c.Len())
	for _, in := range c.Intents() {
		out = append(out, IntentSummary{Tag: in.Tag, Patterns: len(in.Patterns), Responses: len(in.Responses)})
	}
	return out
}

func handleIntents(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, summarizeIntents(deps.Catalog))
	}
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "limit must be a non-negative integer")
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		writeJSON(w, http.StatusOK, deps.Responder.History().Recent(limit))
	}
}

func writeRespondError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrFallback) {
		slog.Error("fallback failed", "error", err)
		httpError(w, http.StatusBadGateway, "api_error", "upstream error: %v", err)
		return
	}
	slog.Error("respond failed", "error", err)
	httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
