package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/mail-connector/pkg/actions"
	"github.com/Sternrassler/mail-connector/pkg/logging"
	"github.com/Sternrassler/mail-connector/pkg/metrics"
	"github.com/Sternrassler/mail-connector/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// actionRequest is the body of POST /v1/actions/{resource}/{operation}.
type actionRequest struct {
	Items          []map[string]any `json:"items"`
	ContinueOnFail bool             `json:"continueOnFail"`
}

type actionResponse struct {
	Outputs []runner.Output `json:"outputs"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ItemIndex *int   `json:"itemIndex,omitempty"`
}

// server exposes the connector over HTTP.
type server struct {
	deps   *dependencies
	logger zerolog.Logger
}

func newServer(deps *dependencies) *server {
	return &server{
		deps:   deps,
		logger: logging.NewLogger("server"),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/v1/operations", s.handleOperations)
	r.Post("/v1/actions/{resource}/{operation}", s.handleAction)

	return r
}

func serve(ctx context.Context, addr string, deps *dependencies, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(deps).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("listen", addr).Msg("Starting mail connector server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady checks the API key and, when caching is on, Redis.
func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.deps.redis != nil {
		if err := s.deps.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Redis not ready")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	if err := s.deps.client.TestCredentials(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Provider not ready")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) handleOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, actions.Operations())
}

func (s *server) handleAction(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	operation := chi.URLParam(r, "operation")

	proc, err := s.deps.connector.Processor(resource, operation)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	var req actionRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	outputs, err := runner.New(req.ContinueOnFail).Run(r.Context(), req.Items, proc)
	if err != nil {
		status, body := actionError(err)
		s.logger.Error().
			Err(err).
			Str("resource", resource).
			Str("operation", operation).
			Int("status", status).
			Msg("Action aborted")
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, actionResponse{Outputs: outputs})
}

// actionError maps an aborted batch to a response status: 422 for invalid
// item parameters, 504 when the deadline ran out, 502 otherwise.
func actionError(err error) (int, errorResponse) {
	body := errorResponse{Error: err.Error()}

	var itemErr *runner.ItemError
	if errors.As(err, &itemErr) {
		index := itemErr.Index
		body.ItemIndex = &index
	}

	if actions.IsValidationError(err) {
		return http.StatusUnprocessableEntity, body
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, body
	}
	return http.StatusBadGateway, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
