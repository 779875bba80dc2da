// Package service exposes observing block validation and target name
// resolution over HTTP.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/codec"
	"github.com/litescript/ls-odl/internal/logging"
	"github.com/litescript/ls-odl/internal/metrics"
	"github.com/litescript/ls-odl/internal/target"
)

// DefaultMaxBody caps the size of a submitted document.
const DefaultMaxBody = 4 << 20

// Options configure a Server. Zero values are usable: no resolver, no
// metrics, builtin profiles and a discarding logger.
type Options struct {
	Logger   *logging.Logger
	Decoder  *codec.Decoder
	Finalize block.Options
	Resolver target.Resolver
	Metrics  *metrics.Collector
	MaxBody  int64
	Now      func() time.Time
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	log      *logging.Logger
	dec      *codec.Decoder
	opts     block.Options
	resolver target.Resolver
	metrics  *metrics.Collector
	maxBody  int64
	now      func() time.Time
	handler  http.Handler
}

// New builds a Server and its routes.
func New(o Options) *Server {
	s := &Server{
		log:      o.Logger,
		dec:      o.Decoder,
		opts:     o.Finalize,
		metrics:  o.Metrics,
		maxBody:  o.MaxBody,
		now:      o.Now,
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.dec == nil {
		s.dec = codec.NewDecoder()
	}
	if o.Resolver != nil {
		s.resolver = o.Metrics.InstrumentResolver(o.Resolver)
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBody
	}
	if s.now == nil {
		s.now = time.Now
	}

	mux := http.NewServeMux()
	s.route(mux, "POST /v1/validate", "validate", s.handleValidate)
	s.route(mux, "GET /v1/resolve", "resolve", s.handleResolve)
	s.route(mux, "GET /healthz", "healthz", handleHealthz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	s.handler = s.logRequests(mux)
	return s
}

func (s *Server) route(mux *http.ServeMux, pattern, name string, h http.HandlerFunc) {
	mux.Handle(pattern, s.metrics.Middleware(name, h))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          s.log.StdLogger(logging.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		log := s.log.With("method", r.Method, "path", r.URL.Path, "status", rec.code, "duration", time.Since(start).Round(time.Microsecond))
		if r.URL.Path == "/healthz" {
			log.Debug("request")
			return
		}
		log.Info("request")
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
