package target

import (
	"context"
	"errors"
	"strings"
)

// Resolver looks up a target position by name.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, name string) (*Target, error)
}

var errNoResolver = errors.New("no name resolver configured")

// FromName resolves name through r. Every failure, including caller
// timeouts, is returned as a *ResolutionError and never as a zero position.
// There are no internal retries.
func FromName(ctx context.Context, r Resolver, name string) (*Target, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ResolutionError{Name: name, Err: ErrNotFound}
	}
	if r == nil {
		return nil, &ResolutionError{Name: name, Err: errNoResolver}
	}

	t, err := r.Resolve(ctx, name)
	if err != nil {
		var re *ResolutionError
		if errors.As(err, &re) {
			err = re.Err
		}
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = errors.Join(ctxErr, err)
		}
		return nil, &ResolutionError{Name: name, Err: err}
	}
	if t == nil || t.Position == nil {
		return nil, &ResolutionError{Name: name, Err: ErrNotFound}
	}

	t = t.Clone()
	t.Name = name
	return t, nil
}
