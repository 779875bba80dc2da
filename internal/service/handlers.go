package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/litescript/ls-odl/internal/astro"
	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/codec"
	"github.com/litescript/ls-odl/internal/target"
)

// ValidateResponse is the result of POST /v1/validate.
type ValidateResponse struct {
	Name   string         `json:"name,omitempty"`
	Valid  bool           `json:"valid"`
	Totals TotalsResponse `json:"totals"`
	Blocks []BlockResult  `json:"blocks"`
}

// TotalsResponse mirrors block.Totals with durations in seconds.
type TotalsResponse struct {
	Blocks          int     `json:"blocks"`
	Valid           int     `json:"valid"`
	Invalid         int     `json:"invalid"`
	Exposures       int     `json:"exposures"`
	ShutterSeconds  float64 `json:"shutter_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// BlockResult is the validation outcome of one block.
type BlockResult struct {
	Index      int               `json:"index"`
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Name       string            `json:"name"`
	State      string            `json:"state"`
	Violations []ViolationResult `json:"violations,omitempty"`
	Plan       []block.Step      `json:"plan,omitempty"`
	PlanError  string            `json:"plan_error,omitempty"`
}

// ViolationResult is one broken composition rule.
type ViolationResult struct {
	Rule      string `json:"rule"`
	Component string `json:"component,omitempty"`
	Message   string `json:"message"`
}

// requestFormat picks the document format from ?format= or Content-Type.
func requestFormat(r *http.Request) (codec.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return codec.ParseFormat(f)
	}
	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		return codec.JSON, nil
	}
	return codec.YAML, nil
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	withPlan, _ := strconv.ParseBool(r.URL.Query().Get("plan"))

	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	l, err := s.dec.Decode(body, format)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	final, err := l.FinalizeAll(r.Context(), s.opts)
	if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		writeError(w, http.StatusServiceUnavailable, ctxErr)
		return
	}
	s.metrics.ObserveList(final)

	writeJSON(w, http.StatusOK, s.validateResponse(final, withPlan))
}

func (s *Server) validateResponse(l block.List, withPlan bool) ValidateResponse {
	t := l.Totals(s.opts.Limits)
	resp := ValidateResponse{
		Name:  l.Name,
		Valid: t.Invalid == 0 && t.Valid == t.Blocks,
		Totals: TotalsResponse{
			Blocks:          t.Blocks,
			Valid:           t.Valid,
			Invalid:         t.Invalid,
			Exposures:       t.Exposures,
			ShutterSeconds:  t.ShutterTime.Seconds(),
			DurationSeconds: t.Duration.Seconds(),
		},
		Blocks: make([]BlockResult, 0, l.Len()),
	}

	at := s.now()
	for i, b := range l.All() {
		res := BlockResult{
			Index: i,
			ID:    b.ID().String(),
			Kind:  string(b.Kind()),
			Name:  b.Name(),
			State: b.State().String(),
		}
		var ce *block.CompositionError
		if errors.As(b.Err(), &ce) {
			for _, v := range ce.Violations {
				res.Violations = append(res.Violations, ViolationResult{Rule: v.Rule, Component: v.Component, Message: v.Err.Error()})
			}
		}
		if withPlan && b.State() == block.Valid {
			steps, err := b.Plan(at)
			if err != nil {
				res.PlanError = err.Error()
			} else {
				res.Plan = steps
			}
		}
		resp.Blocks = append(resp.Blocks, res)
	}
	return resp
}

// ResolveResponse is the result of GET /v1/resolve.
type ResolveResponse struct {
	Resolver string           `json:"resolver"`
	Target   *codec.TargetDoc `json:"target"`
	RA       string           `json:"ra_hms,omitempty"`
	Dec      string           `json:"dec_dms,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing name parameter"))
		return
	}
	if s.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no name resolver configured"))
		return
	}

	t, err := target.FromName(r.Context(), s.resolver, name)
	switch {
	case errors.Is(err, target.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err)
		return
	case err != nil:
		s.log.Warn("Resolving %q: %v", name, err)
		writeError(w, http.StatusBadGateway, fmt.Errorf("resolver %s: %w", s.resolver.Name(), err))
		return
	}

	resp := ResolveResponse{Resolver: s.resolver.Name(), Target: codec.FromTarget(t)}
	if p := t.Position; p != nil {
		resp.RA = astro.FormatHMS(p.RAdeg, 2)
		resp.Dec = astro.FormatDMS(p.DecDeg, 1)
	}
	writeJSON(w, http.StatusOK, resp)
}
