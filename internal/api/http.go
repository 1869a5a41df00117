package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/lango/internal/journal"
	"github.com/kalambet/lango/internal/session"
	"github.com/kalambet/lango/internal/srs"
	"github.com/kalambet/lango/internal/transcript"
	"github.com/kalambet/lango/internal/workspace"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Chatter abstracts the session orchestrator so handler tests can use a
// fake instead of spawning agent processes.
type Chatter interface {
	SendMessage(ctx context.Context, language, message string) (string, error)
}

// ActivityStore abstracts the exchange journal for the activity endpoint.
type ActivityStore interface {
	RecentExchanges(limit int) ([]journal.Exchange, error)
}

// Deps holds what the HTTP layer needs from the rest of the app.
type Deps struct {
	Workspaces  *workspace.Resolver
	Chat        Chatter
	Transcripts *transcript.Reader
	Journal     ActivityStore
}

// NewHandler returns the REST API router. The health endpoint is open;
// everything else requires the bearer token.
func NewHandler(deps Deps, token string) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))

		r.Get("/languages", handleListLanguages(deps))
		r.Post("/languages", handleBootstrap(deps))
		r.Delete("/languages/{language}", handleDeleteLanguage(deps))
		r.Get("/languages/{language}/vocabulary", handleArtifact(deps, "vocabulary"))
		r.Get("/languages/{language}/grammar", handleArtifact(deps, "grammar"))
		r.Get("/languages/{language}/due", handleDueWords(deps))
		r.Get("/languages/{language}/history", handleHistory(deps))
		r.Post("/chat", handleChat(deps))
		r.Get("/activity", handleActivity(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleListLanguages(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		languages, err := deps.Workspaces.List()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing languages: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"languages": languages})
	}
}

func handleBootstrap(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Language string `json:"language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Language == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "language is required")
			return
		}

		ws, err := deps.Workspaces.Bootstrap(req.Language)
		if err != nil {
			writeWorkspaceError(w, err, "bootstrapping %s", req.Language)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"language": ws.Key})
	}
}

func handleDeleteLanguage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		language := chi.URLParam(r, "language")
		if err := deps.Workspaces.Delete(language); err != nil {
			writeWorkspaceError(w, err, "deleting %s", language)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleArtifact(deps Deps, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		language := chi.URLParam(r, "language")

		var (
			body string
			err  error
		)
		switch kind {
		case "vocabulary":
			body, err = deps.Workspaces.Vocabulary(language)
		case "grammar":
			body, err = deps.Workspaces.Grammar(language)
		}
		if err != nil {
			writeWorkspaceError(w, err, "reading %s for %s", kind, language)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func handleDueWords(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		language := chi.URLParam(r, "language")

		body, err := deps.Workspaces.Vocabulary(language)
		if err != nil {
			writeWorkspaceError(w, err, "reading vocabulary for %s", language)
			return
		}

		var store srs.VocabularyStore
		if err := json.Unmarshal([]byte(body), &store); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "parsing vocabulary for %s: %v", language, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"words": store.DueWords(time.Now())})
	}
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		language := chi.URLParam(r, "language")

		ws, err := deps.Workspaces.Resolve(language)
		if err != nil {
			writeWorkspaceError(w, err, "resolving %s", language)
			return
		}
		if !ws.Exists() {
			httpError(w, http.StatusNotFound, "not_found_error", "language %q is not set up", language)
			return
		}

		turns, err := deps.Transcripts.ReadLatest(ws.Dir)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "reading history: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"turns": turns})
	}
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Language string `json:"language"`
			Message  string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Language == "" || req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "language and message are required")
			return
		}

		reply, err := deps.Chat.SendMessage(r.Context(), req.Language, req.Message)
		if err != nil {
			writeChatError(w, err, req.Language)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"reply": reply})
	}
}

func handleActivity(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "limit must be a positive integer")
				return
			}
			limit = n
		}
		if limit > 200 {
			limit = 200
		}

		exchanges, err := deps.Journal.RecentExchanges(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "reading activity: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"exchanges": exchanges})
	}
}

func writeWorkspaceError(w http.ResponseWriter, err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	var vErr *workspace.ValidationError
	switch {
	case errors.As(err, &vErr):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s: %v", msg, err)
	case errors.Is(err, workspace.ErrAlreadyExists):
		httpError(w, http.StatusConflict, "conflict_error", "%s: %v", msg, err)
	case errors.Is(err, workspace.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "%s: %v", msg, err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%s: %v", msg, err)
	}
}

func writeChatError(w http.ResponseWriter, err error, language string) {
	var (
		vErr  *workspace.ValidationError
		nbErr *session.NotBootstrappedError
		afErr *session.AgentFailure
	)
	switch {
	case errors.As(err, &vErr):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "chat with %s: %v", language, err)
	case errors.As(err, &nbErr):
		httpError(w, http.StatusConflict, "conflict_error", "%v", err)
	case errors.As(err, &afErr):
		httpError(w, http.StatusBadGateway, "agent_error", "%v", err)
	default:
		httpError(w, http.StatusBadGateway, "agent_error", "chat with %s: %v", language, err)
	}
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
