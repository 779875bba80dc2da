package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/litescript/ls-odl/internal/astro"
	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/logging"
	"github.com/litescript/ls-odl/internal/metrics"
	"github.com/litescript/ls-odl/internal/target"
)

const listYAML = `name: tonight
blocks:
  - type: Science
    target:
      name: HD 84937
      coord: {ra: 147.2337, dec: 13.7444}
    offset_pattern:
      name: Stare
      repeat: 2
      offsets:
        - {dx: 0, dy: 0, frame: {type: sky}}
    instrument_config: {instrument: NIRES, name: default}
    detector_configs:
      - {type: ir, instrument: NIRES, detector: spec, exptime: 60}
    alignment: {type: blind}
  - type: Science
    offset_pattern:
      name: Stare
      repeat: 1
      offsets:
        - {dx: 0, dy: 0, frame: {type: sky}}
    instrument_config: {instrument: NIRES, name: default}
    detector_configs:
      - {type: ir, instrument: NIRES, detector: spec, exptime: 60}
`

type stubResolver map[string]*target.Target

func (stubResolver) Name() string { return "stub" }

func (r stubResolver) Resolve(ctx context.Context, name string) (*target.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t, ok := r[name]; ok {
		return t.Clone(), nil
	}
	return nil, target.ErrNotFound
}

func newTestServer(t *testing.T, o Options) (*Server, *metrics.Collector) {
	t.Helper()
	c, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics.New() error = %v", err)
	}
	o.Metrics = c
	o.Now = func() time.Time { return time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC) }
	return New(o), c
}

func TestHealthz(t *testing.T) {
	s, c := newTestServer(t, Options{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := testutil.ToFloat64(c.HTTPRequests.WithLabelValues("healthz", "200")); got != 1 {
		t.Errorf("healthz requests = %v, want 1", got)
	}
}

func TestValidate(t *testing.T) {
	s, c := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/validate?plan=true", strings.NewReader(listYAML))
	req.Header.Set("Content-Type", "application/yaml")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp ValidateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Name != "tonight" || resp.Valid {
		t.Errorf("name = %q, valid = %v, want tonight, false", resp.Name, resp.Valid)
	}
	if resp.Totals.Valid != 1 || resp.Totals.Invalid != 1 || resp.Totals.Exposures != 3 {
		t.Errorf("totals = %+v", resp.Totals)
	}
	if len(resp.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(resp.Blocks))
	}

	ok := resp.Blocks[0]
	if ok.State != "valid" || len(ok.Violations) != 0 {
		t.Errorf("block 0 = %+v, want valid", ok)
	}
	// align, configure, then move + expose for each of two offsets.
	if len(ok.Plan) != 6 || ok.Plan[0].Action != block.ActionAlign {
		t.Errorf("block 0 plan = %+v", ok.Plan)
	}

	bad := resp.Blocks[1]
	if bad.State != "invalid" || len(bad.Plan) != 0 {
		t.Errorf("block 1 = %+v, want invalid without plan", bad)
	}
	rules := map[string]bool{}
	for _, v := range bad.Violations {
		rules[v.Rule] = true
	}
	if !rules[block.RuleTarget] || !rules[block.RuleAlignment] {
		t.Errorf("block 1 rules = %v, want target and alignment", rules)
	}

	if got := testutil.ToFloat64(c.BlocksFinalized.WithLabelValues("Science", metrics.ResultInvalid)); got != 1 {
		t.Errorf("invalid blocks metric = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Violations.WithLabelValues(block.RuleTarget)); got != 1 {
		t.Errorf("target violations metric = %v, want 1", got)
	}
}

func TestValidateErrors(t *testing.T) {
	s, _ := newTestServer(t, Options{MaxBody: 64})

	tests := []struct {
		name        string
		url         string
		contentType string
		body        string
		want        int
	}{
		{"bad format", "/v1/validate?format=xml", "", listYAML, http.StatusBadRequest},
		{"empty", "/v1/validate", "application/json", "", http.StatusBadRequest},
		{"malformed yaml", "/v1/validate", "application/yaml", "blocks: [", http.StatusBadRequest},
		{"too large", "/v1/validate", "application/json", `{"blocks":[` + strings.Repeat(`{"type":"Focus"},`, 10) + `{}]}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body)
			}
			var resp errorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil || resp.Error == "" {
				t.Errorf("error body = %+v, %v", resp, err)
			}
		})
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/validate", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/validate status = %d, want 405", w.Code)
	}
}

func TestResolve(t *testing.T) {
	resolver := stubResolver{"M31": target.New("M31", astro.NewICRS(10.684708, 41.26875))}
	s, c := newTestServer(t, Options{Resolver: resolver})

	tests := []struct {
		query string
		want  int
	}{
		{"?name=M31", http.StatusOK},
		{"?name=Nowhere", http.StatusNotFound},
		{"", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/resolve"+tt.query, nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/resolve?name=M31", nil))
	var resp ResolveResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Resolver != "stub" || resp.Target == nil || resp.Target.Name != "M31" {
		t.Errorf("response = %+v", resp)
	}
	if resp.RA != "00 42 44.33" || resp.Dec != "+41 16 07.5" {
		t.Errorf("RA, Dec = %s, %s", resp.RA, resp.Dec)
	}

	if got := testutil.ToFloat64(c.Resolutions.WithLabelValues("stub", metrics.ResultNotFound)); got != 1 {
		t.Errorf("not_found resolutions = %v, want 1", got)
	}
}

func TestResolveWithoutResolver(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/resolve?name=M31", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "odl_http_requests_total") {
		t.Errorf("metrics status = %d, body missing odl_http_requests_total", w.Code)
	}
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.LevelInfo)
	log.SetOutput(&buf)
	s, _ := newTestServer(t, Options{Logger: log})

	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if buf.Len() != 0 {
		t.Errorf("healthz logged at info: %q", buf.String())
	}
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/resolve", nil))
	if !strings.Contains(buf.String(), "path=/v1/resolve status=400") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

	var resp *http.Response
	for range 50 {
		resp, err = http.Get("http://" + addr + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
