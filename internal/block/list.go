package block

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime"
	"slices"
	"sync"
	"time"
)

// List is an ordered sequence of blocks. Order is insertion order and
// duplicates are allowed; a list carries no scheduling information.
type List struct {
	Name   string
	blocks []Block
}

// NewList returns a list holding blocks in the given order.
func NewList(name string, blocks ...Block) List {
	return List{Name: name, blocks: slices.Clone(blocks)}
}

// Append returns a list with blocks added at the end.
func (l List) Append(blocks ...Block) List {
	return List{Name: l.Name, blocks: append(slices.Clone(l.blocks), blocks...)}
}

// Len returns the number of blocks.
func (l List) Len() int { return len(l.blocks) }

// At returns the i'th block.
func (l List) At(i int) Block { return l.blocks[i] }

// Blocks returns a copy of the blocks.
func (l List) Blocks() []Block { return slices.Clone(l.blocks) }

// All iterates blocks in order.
func (l List) All() iter.Seq2[int, Block] {
	return func(yield func(int, Block) bool) {
		for i, b := range l.blocks {
			if !yield(i, b) {
				return
			}
		}
	}
}

// ItemError ties a finalize error to a list position.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("block %d: %v", e.Index+1, e.Err)
}

// Unwrap returns the block's error.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// FinalizeAll finalizes every block concurrently and returns the resulting
// list in the original order. The error joins one *ItemError per invalid
// block. If ctx is cancelled, blocks not yet started stay Unvalidated and
// ctx.Err() is included.
func (l List) FinalizeAll(ctx context.Context, opts Options) (List, error) {
	out := make([]Block, len(l.blocks))
	errs := make([]error, len(l.blocks))

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	var cancelled error

	for i, b := range l.blocks {
		if !acquire(ctx, sem) {
			cancelled = ctx.Err()
			copy(out[i:], l.blocks[i:])
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fb, err := b.Finalize(opts)
			out[i] = fb
			if err != nil {
				errs[i] = &ItemError{Index: i, Err: err}
			}
		}()
	}
	wg.Wait()

	return List{Name: l.Name, blocks: out}, errors.Join(append(errs, cancelled)...)
}

func acquire(ctx context.Context, sem chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case sem <- struct{}{}:
		return true
	}
}

// Totals summarises a list.
type Totals struct {
	Blocks      int
	Valid       int
	Invalid     int
	Exposures   int
	ShutterTime time.Duration // exposure time only
	Duration    time.Duration // including readout overheads
}

// Totals adds up exposures and time over all blocks.
func (l List) Totals(limits LimitsFunc) Totals {
	var t Totals
	for _, b := range l.blocks {
		t.Blocks++
		switch b.State() {
		case Valid:
			t.Valid++
		case Invalid:
			t.Invalid++
		}
		t.Exposures += b.Exposures()
		t.ShutterTime += b.EstimateDuration(nil)
		t.Duration += b.EstimateDuration(limits)
	}
	return t
}
