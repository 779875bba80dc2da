package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/litescript/ls-odl/internal/alignment"
	"github.com/litescript/ls-odl/internal/astro"
	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/codec"
	"github.com/litescript/ls-odl/internal/detector"
	"github.com/litescript/ls-odl/internal/instrument"
	"github.com/litescript/ls-odl/internal/offset"
	"github.com/litescript/ls-odl/internal/target"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "sub", "catalog.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleList(t *testing.T, name string) block.List {
	t.Helper()
	p, err := offset.Stare(3, true)
	if err != nil {
		t.Fatal(err)
	}
	sci := block.New(block.Science, block.Components{
		Target:     target.New("M31", astro.NewICRS(10.6847, 41.2690)),
		Pattern:    p,
		Instrument: instrument.NewConfig("NIRES", "default"),
		Detectors:  []detector.Config{detector.NewIR("NIRES", "spec", 300)},
		Alignment:  alignment.Guider{Bright: true},
	})
	return block.NewList(name, sci, sci)
}

func TestSaveLoad(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	orig := sampleList(t, "night1")

	if err := s.Save(ctx, orig); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx, "night1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(codec.FromList(orig), codec.FromList(got)); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	locs, err := s.FindBlock(ctx, orig.At(0).ID())
	if err != nil {
		t.Fatalf("FindBlock() error = %v", err)
	}
	want := []Location{{"night1", 0}, {"night1", 1}}
	if diff := cmp.Diff(want, locs); diff != "" {
		t.Errorf("FindBlock() mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	clock := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	if err := s.Save(ctx, sampleList(t, "a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, sampleList(t, "b")); err != nil {
		t.Fatal(err)
	}
	shorter := block.NewList("a", sampleList(t, "a").At(0))
	if err := s.Save(ctx, shorter); err != nil {
		t.Fatal(err)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "a" || entries[0].Blocks != 1 {
		t.Errorf("List() = %+v, want a (1 block) first", entries)
	}
	if !entries[0].UpdatedAt.Equal(clock) {
		t.Errorf("UpdatedAt = %v, want %v", entries[0].UpdatedAt, clock)
	}
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	l := sampleList(t, "gone")
	if err := s.Save(ctx, l); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Load(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
	if _, err := s.FindBlock(ctx, l.At(0).ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindBlock() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := s.FindBlock(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindBlock(random) error = %v, want ErrNotFound", err)
	}
}

func TestSaveRequiresName(t *testing.T) {
	s := openStore(t)
	if err := s.Save(context.Background(), block.NewList("")); err == nil {
		t.Error("Save() error = nil for unnamed list")
	}
}
