package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TimurManjosov/goendpoint/internal/auth"
	"github.com/TimurManjosov/goendpoint/internal/engine"
	"github.com/TimurManjosov/goendpoint/internal/ruleset"
	"github.com/TimurManjosov/goendpoint/internal/snapshot"
	"github.com/TimurManjosov/goendpoint/internal/store"
	"github.com/TimurManjosov/goendpoint/internal/telemetry"
)

type Server struct {
	store store.Store
	env   string
	auth  *auth.Authenticator
	parts engine.PartitionProvider
}

func NewServer(st store.Store, env string, a *auth.Authenticator, parts engine.PartitionProvider) *Server {
	return &Server{store: st, env: env, auth: a, parts: parts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	r.Use(telemetry.Middleware)

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public: full snapshot (ETag)
	r.Get("/v1/rulesets/snapshot", s.handleSnapshot)

	// public: single ruleset document
	r.Get("/v1/rulesets/{service}", s.handleGetRuleset)

	// public: server-side resolution
	r.Post("/v1/resolve", s.handleResolve)

	// admin (protected): manage ruleset documents
	r.Put("/v1/rulesets/{service}", s.authAdmin(s.handleUpsertRuleset))
	r.Delete("/v1/rulesets/{service}", s.authAdmin(s.handleDeleteRuleset))

	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := snapshot.Load()
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", snap.ETag)
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleGetRuleset(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	view, ok := snapshot.Load().Rulesets[service]
	if !ok {
		NotFoundError(w, r, "no ruleset for service "+service)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type upsertResponse struct {
	OK   bool   `json:"ok"`
	ETag string `json:"etag"`
}

func (s *Server) handleUpsertRuleset(w http.ResponseWriter, r *http.Request) {
	service := strings.TrimSpace(chi.URLParam(r, "service"))
	if service == "" {
		BadRequestError(w, r, ErrCodeMissingField, "service is required")
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	// Reject documents that won't compile before they reach the store.
	doc, err := ruleset.DecodeJSON(raw)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidDocument, err.Error())
		return
	}
	if _, err := ruleset.Compile(doc); err != nil {
		BadRequestError(w, r, ErrCodeInvalidDocument, err.Error())
		return
	}

	err = s.store.Upsert(r.Context(), store.UpsertParams{
		Service:  service,
		Env:      s.env,
		Document: raw,
	})
	if err != nil {
		InternalError(w, r, ErrCodeInternal, "store upsert failed")
		return
	}

	if err := s.RebuildSnapshot(r.Context()); err != nil {
		InternalError(w, r, ErrCodeInternal, "snapshot rebuild failed")
		return
	}

	writeJSON(w, http.StatusOK, upsertResponse{
		OK:   true,
		ETag: snapshot.Load().ETag,
	})
}

func (s *Server) handleDeleteRuleset(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	if err := s.store.Delete(r.Context(), service, s.env); err != nil {
		InternalError(w, r, ErrCodeInternal, "store delete failed")
		return
	}
	if err := s.RebuildSnapshot(r.Context()); err != nil {
		InternalError(w, r, ErrCodeInternal, "snapshot rebuild failed")
		return
	}
	writeJSON(w, http.StatusOK, upsertResponse{
		OK:   true,
		ETag: snapshot.Load().ETag,
	})
}

// RebuildSnapshot loads rulesets for the server's environment and swaps
// the atomic snapshot. A record that fails to compile is dropped from the
// snapshot but does not fail the rebuild.
func (s *Server) RebuildSnapshot(ctx context.Context) error {
	records, err := s.store.GetAll(ctx, s.env)
	if err != nil {
		return err
	}
	snap, _ := snapshot.Build(records)
	snapshot.Update(snap)
	telemetry.SnapshotRulesets.Set(float64(len(snap.Rulesets)))
	return nil
}

// ---- middleware & helpers ----

func (s *Server) authAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.auth.RequireAdmin(next, func(w http.ResponseWriter, r *http.Request, reason string) {
		UnauthorizedError(w, r, reason)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
