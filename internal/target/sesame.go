package target

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/litescript/ls-odl/internal/astro"
)

const (
	// SesameURL is the CDS Sesame name resolver (plain-text output,
	// Simbad then NED then VizieR).
	SesameURL = "https://cds.unistra.fr/cgi-bin/nph-sesame/-oI/SNV"

	// RequestTimeout bounds a single HTTP exchange. Callers pass a shorter
	// deadline through the context when they need one.
	RequestTimeout = 30 * time.Second

	// CacheTTL is how long resolved names are reused.
	CacheTTL = time.Hour

	tracerName = "github.com/litescript/ls-odl/internal/target"
)

// SesameResolver resolves names against CDS Sesame.
type SesameResolver struct {
	client  *http.Client
	baseURL string

	mu    sync.RWMutex
	cache map[string]cachedTarget
}

type cachedTarget struct {
	target    *Target
	fetchedAt time.Time
}

// NewSesameResolver creates a resolver for baseURL, defaulting to SesameURL.
func NewSesameResolver(baseURL string) *SesameResolver {
	if baseURL == "" {
		baseURL = SesameURL
	}
	return &SesameResolver{
		client: &http.Client{
			Timeout: RequestTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "?"),
		cache:   make(map[string]cachedTarget),
	}
}

// Name implements Resolver.
func (r *SesameResolver) Name() string {
	return "Sesame"
}

// Resolve implements Resolver. Only successful lookups are cached.
func (r *SesameResolver) Resolve(ctx context.Context, name string) (*Target, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sesame.Resolve",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("target.name", name)))
	defer span.End()

	key := strings.ToLower(name)
	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok && time.Since(cached.fetchedAt) < CacheTTL {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.target.Clone(), nil
	}

	t, err := r.query(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &ResolutionError{Name: name, Err: err}
	}

	r.mu.Lock()
	r.cache[key] = cachedTarget{target: t.Clone(), fetchedAt: time.Now()}
	r.mu.Unlock()

	return t, nil
}

func (r *SesameResolver) query(ctx context.Context, name string) (*Target, error) {
	reqURL := r.baseURL + "?" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sesame request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sesame returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseSesame(name, resp.Body)
}

// parseSesame reads the first resolver answer from a Sesame -oI response.
//
//	%J 10.684708 +41.268750 = 00:42:44.33 +41:16:07.5
//	%P +4.14 -11.3 [...]       proper motion, mas/yr
//	%X 1.32 [0.05]             parallax, mas
//	%V v -300.0 [...]          radial velocity, km/s
func parseSesame(name string, r io.Reader) (*Target, error) {
	var (
		t     *Target
		pm    astro.ProperMotion
		hasPM bool
		plx   float64
		rv    float64
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "%J":
			if t != nil || len(fields) < 3 {
				continue
			}
			ra, err1 := strconv.ParseFloat(fields[1], 64)
			dec, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("parse position %q", sc.Text())
			}
			t = New(name, astro.NewICRS(ra, dec))
		case "%P":
			if hasPM || len(fields) < 3 {
				continue
			}
			pmra, err1 := strconv.ParseFloat(fields[1], 64)
			pmdec, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 == nil && err2 == nil {
				pm = astro.ProperMotion{PMRA: pmra / 1000, PMDec: pmdec / 1000}
				hasPM = true
			}
		case "%X":
			if v, err := strconv.ParseFloat(fields[1], 64); err == nil && plx == 0 {
				plx = v / 1000
			}
		case "%V":
			if len(fields) >= 3 && fields[1] == "v" && rv == 0 {
				if v, err := strconv.ParseFloat(fields[2], 64); err == nil {
					rv = v
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read sesame response: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}

	if hasPM && !pm.IsZero() {
		// Simbad astrometry is ICRS at epoch J2000.
		t = t.WithProperMotion(pm, 2000.0)
	}
	t.Parallax = plx
	t.RadialVelocity = rv
	return t, nil
}
