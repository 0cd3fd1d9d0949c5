// Package api exposes search, details, settings and run history over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/discovery"
	"github.com/sells-group/leadfinder/internal/enrich"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/settings"
	"github.com/sells-group/leadfinder/internal/store"
)

// Searcher runs a lead search.
type Searcher interface {
	Search(ctx context.Context, q model.SearchQuery) (*model.SearchResult, error)
}

// Enricher fetches place details on demand.
type Enricher interface {
	Details(ctx context.Context, placeID string) (*model.Details, error)
	Enrich(ctx context.Context, b model.Business) (model.Business, error)
}

// RunLister lists recorded searches.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.SearchRun, error)
}

// SettingsStore reads and updates the persisted settings.
type SettingsStore interface {
	Get() (settings.Settings, error)
	Update(fn func(*settings.Settings)) (settings.Settings, error)
}

// Deps are the collaborators served by the router. Nil members disable
// their routes with 503.
type Deps struct {
	Search   Searcher
	Enrich   Enricher
	Runs     RunLister
	Settings SettingsStore
}

// NewRouter builds the HTTP handler. origins configures CORS.
func NewRouter(d Deps, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h := &handlers{deps: d}
	r.Route("/api", func(r chi.Router) {
		r.Post("/search", h.search)
		r.Post("/details", h.details)
		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.putSettings)
		r.Get("/runs", h.listRuns)
	})
	return r
}

type handlers struct {
	deps Deps
}

type searchResponse struct {
	Success bool `json:"success"`
	*model.SearchResult
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	if h.deps.Search == nil {
		writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}
	var q model.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.deps.Search.Search(r.Context(), q)
	switch {
	case errors.Is(err, discovery.ErrNoCriteria):
		writeError(w, http.StatusBadRequest, discovery.ErrNoCriteria.Error())
		return
	case err != nil:
		zap.L().Error("api: search failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, SearchResult: res})
}

type detailsRequest struct {
	PlaceID  string          `json:"placeId"`
	Business *model.Business `json:"business,omitempty"`
}

type detailsResponse struct {
	Success  bool            `json:"success"`
	Details  *model.Details  `json:"details,omitempty"`
	Business *model.Business `json:"business,omitempty"`
}

// details returns the raw details for placeId, or the merged record when a
// provisional business is posted.
func (h *handlers) details(w http.ResponseWriter, r *http.Request) {
	if h.deps.Enrich == nil {
		writeError(w, http.StatusServiceUnavailable, "details are not configured")
		return
	}
	var req detailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlaceID == "" && req.Business != nil {
		req.PlaceID = req.Business.ID
	}
	if req.PlaceID == "" {
		writeError(w, http.StatusBadRequest, "placeId is required")
		return
	}

	if req.Business != nil {
		b := *req.Business
		b.ID = req.PlaceID
		if !b.NeedsDetails {
			writeJSON(w, http.StatusOK, detailsResponse{Success: true, Business: &b})
			return
		}
		enriched, err := h.deps.Enrich.Enrich(r.Context(), b)
		if err != nil {
			writeError(w, http.StatusBadGateway, enrich.ErrDetailsUnavailable.Error())
			return
		}
		writeJSON(w, http.StatusOK, detailsResponse{Success: true, Business: &enriched})
		return
	}

	d, err := h.deps.Enrich.Details(r.Context(), req.PlaceID)
	if err != nil {
		writeError(w, http.StatusBadGateway, enrich.ErrDetailsUnavailable.Error())
		return
	}
	writeJSON(w, http.StatusOK, detailsResponse{Success: true, Details: d})
}

type settingsBody struct {
	SystemPrompt string `json:"systemPrompt"`
}

func (h *handlers) getSettings(w http.ResponseWriter, _ *http.Request) {
	if h.deps.Settings == nil {
		writeError(w, http.StatusServiceUnavailable, "settings are not configured")
		return
	}
	s, err := h.deps.Settings.Get()
	if err != nil {
		zap.L().Error("api: load settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsBody{SystemPrompt: s.Prompt()})
}

func (h *handlers) putSettings(w http.ResponseWriter, r *http.Request) {
	if h.deps.Settings == nil {
		writeError(w, http.StatusServiceUnavailable, "settings are not configured")
		return
	}
	var body settingsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.deps.Settings.Update(func(s *settings.Settings) {
		s.SystemPrompt = body.SystemPrompt
	})
	if err != nil {
		zap.L().Error("api: save settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsBody{SystemPrompt: s.Prompt()})
}

func (h *handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.deps.Runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}
	filter := store.RunFilter{Mode: model.SearchMode(r.URL.Query().Get("mode"))}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = n
	}

	runs, err := h.deps.Runs.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []model.SearchRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
