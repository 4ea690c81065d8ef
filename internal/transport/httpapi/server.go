// Package httpapi serves the structured data tester over HTTP.
//
// Routes:
//
//	GET  /healthz      liveness
//	GET  /v1/presets   preset listing
//	GET  /v1/schemas   schema listing
//	POST /v1/test      one request, or {"requests": [...]} for a batch
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/leofalp/sdtt/core/overview"
	"github.com/leofalp/sdtt/core/preset"
	"github.com/leofalp/sdtt/core/report"
	"github.com/leofalp/sdtt/core/schema"
	"github.com/leofalp/sdtt/core/tester"
	"github.com/leofalp/sdtt/internal/render"
	"github.com/leofalp/sdtt/pkg/sdtt"
	"github.com/leofalp/sdtt/providers/extract"
	"github.com/leofalp/sdtt/providers/fetch"
	"github.com/leofalp/sdtt/providers/observability"
)

const (
	// MaxRequestBody caps POST bodies, inline HTML included.
	MaxRequestBody = 12 << 20
	// MaxBatchSize caps the number of requests in one batch.
	MaxBatchSize = 50

	shutdownTimeout = 10 * time.Second
)

// Server routes HTTP requests to an sdtt.Client.
type Server struct {
	client   *sdtt.Client
	observer observability.Provider
	router   chi.Router
	// allowFiles lets requests read local files.
	allowFiles bool
}

// Option configures a Server.
type Option func(*Server)

// WithObserver sets the provider used for request logs.
func WithObserver(p observability.Provider) Option {
	return func(s *Server) {
		s.observer = observability.OrNop(p)
	}
}

// WithFileAccess lets requests name local files. Off by default.
func WithFileAccess() Option {
	return func(s *Server) {
		s.allowFiles = true
	}
}

// New builds the router.
func New(client *sdtt.Client, opts ...Option) *Server {
	s := &Server{client: client, observer: observability.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Get("/presets", s.handlePresets)
		r.Get("/schemas", s.handleSchemas)
		r.Post("/test", s.handleTest)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.observer.Info(ctx, "http server starting", observability.String("addr", addr))
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

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.observer.Info(shutdownCtx, "http server stopping")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.observer.Debug(r.Context(), "http request",
			observability.String(observability.AttrHTTPMethod, r.Method),
			observability.String(observability.AttrHTTPURL, r.URL.Path),
			observability.Int(observability.AttrHTTPStatusCode, ww.Status()),
			observability.Duration(observability.AttrDuration, time.Since(start)),
			observability.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	reg := s.client.Presets()
	if reg == nil {
		writeJSON(w, http.StatusOK, []render.PresetEntry{})
		return
	}
	writeJSON(w, http.StatusOK, render.PresetEntries(reg))
}

func (s *Server) handleSchemas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, render.SchemaEntries(s.client.Schemas()))
}

// testBody accepts a single request inline or a batch under "requests".
type testBody struct {
	sdtt.Request
	Requests []sdtt.Request `json:"requests,omitempty"`
}

// TestResponse is the body of a single-run response.
type TestResponse struct {
	RunID  string         `json:"run_id"`
	Passed bool           `json:"passed"`
	Report *report.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// BatchResponse is the body of a batch response.
type BatchResponse struct {
	RunID   string          `json:"run_id"`
	Passed  bool            `json:"passed"`
	Totals  overview.Totals `json:"totals"`
	Results []TestResponse  `json:"results"`
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	var body testBody
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if len(body.Requests) > 0 {
		s.handleBatch(w, r, body.Requests)
		return
	}

	runID := uuid.NewString()
	if err := s.checkRequest(body.Request); err != nil {
		writeJSON(w, http.StatusBadRequest, TestResponse{RunID: runID, Error: err.Error()})
		return
	}

	ctx := r.Context()
	rep, err := s.client.Test(ctx, body.Request)
	s.logRun(ctx, runID, body.Request, err)
	status := statusFor(err)
	resp := TestResponse{RunID: runID, Passed: err == nil, Report: rep}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request, reqs []sdtt.Request) {
	runID := uuid.NewString()
	if len(reqs) > MaxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Errorf("batch of %d requests exceeds the limit of %d", len(reqs), MaxBatchSize))
		return
	}
	for i, req := range reqs {
		if err := s.checkRequest(req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("request %d: %w", i, err))
			return
		}
	}

	summary := &overview.Overview{}
	ctx := summary.ToContext(r.Context())
	results := s.client.TestMany(ctx, reqs)

	resp := BatchResponse{
		RunID:   runID,
		Passed:  summary.Passed(),
		Totals:  summary.Totals(),
		Results: make([]TestResponse, len(results)),
	}
	for i, res := range results {
		s.logRun(ctx, runID, res.Request, res.Err)
		item := TestResponse{RunID: runID, Passed: res.Passed(), Report: res.Report}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		resp.Results[i] = item
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) checkRequest(req sdtt.Request) error {
	if req.File != "" && !s.allowFiles {
		return errors.New("file input is disabled on this server")
	}
	return nil
}

func (s *Server) logRun(ctx context.Context, runID string, req sdtt.Request, err error) {
	in := req.Input()
	attrs := []observability.Attribute{
		observability.String(observability.AttrRunID, runID),
		observability.String(observability.AttrInputKind, string(in.Kind)),
		observability.String(observability.AttrInputSource, in.Source),
	}
	var failed *report.ValidationFailedError
	switch {
	case err == nil:
		s.observer.Info(ctx, "test passed", attrs...)
	case errors.As(err, &failed):
		s.observer.Info(ctx, "test failed", attrs...)
	default:
		s.observer.Warn(ctx, "test error", append(attrs, observability.Error(err))...)
	}
}

// statusFor maps a run error to an HTTP status. A failed validation is a
// complete answer and is reported as 422 with the report in the body; 422 is
// used for nothing else.
func statusFor(err error) int {
	var (
		failed        *report.ValidationFailedError
		unknownSchema *schema.UnknownSchemaError
		unknownPreset *preset.UnknownPresetError
		fetchErr      *fetch.Error
		extractErr    *extract.Error
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &failed):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unknownSchema), errors.As(err, &unknownPreset),
		errors.Is(err, tester.ErrNoSelection), errors.Is(err, sdtt.ErrNoInput),
		errors.Is(err, sdtt.ErrAmbiguousInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &fetchErr):
		if fetchErr.Op == "url" || fetchErr.Op == "open" {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case errors.As(err, &extractErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = render.JSON(w, v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
