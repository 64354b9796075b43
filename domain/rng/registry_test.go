package rng

import (
	"errors"
	"testing"

	"episim/domain/core"
)

func TestRegistryRequiresInitialize(t *testing.T) {
	reg := NewRegistry()
	s := NewStream("early")
	err := s.Bind(reg, fixedBlock(5))
	if !errors.Is(err, core.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestRegistryAutoOffsets(t *testing.T) {
	reg := NewRegistry()
	reg.Initialize(100)

	names := []string{"a", "b", "c", "d"}
	for i, name := range names {
		s := NewStream(name)
		if err := s.Bind(reg, fixedBlock(5)); err != nil {
			t.Fatalf("Bind(%s): %v", name, err)
		}
		if s.Seed() != 100+uint64(i) {
			t.Errorf("stream %s: expected seed %d, got %d", name, 100+i, s.Seed())
		}
	}
	if reg.Len() != len(names) {
		t.Errorf("expected %d registered streams, got %d", len(names), reg.Len())
	}
}

func TestRegistryAutoOffsetSkipsExplicit(t *testing.T) {
	// An explicitly pinned offset must never be handed out again by
	// auto-assignment.
	reg := NewRegistry()
	reg.Initialize(100)

	pinned := NewStreamWithOffset("pinned", 1)
	if err := pinned.Bind(reg, fixedBlock(5)); err != nil {
		t.Fatal(err)
	}

	first := NewStream("first")
	if err := first.Bind(reg, fixedBlock(5)); err != nil {
		t.Fatal(err)
	}
	if first.Seed() == pinned.Seed() {
		t.Fatalf("auto stream resolved to the pinned seed %d", first.Seed())
	}
	if first.Seed() != 102 {
		t.Errorf("expected auto seed 102, got %d", first.Seed())
	}

	second := NewStream("second")
	if err := second.Bind(reg, fixedBlock(5)); err != nil {
		t.Fatal(err)
	}
	seen := map[uint64]string{}
	for _, s := range []*Stream{pinned, first, second} {
		if prev, dup := seen[s.Seed()]; dup {
			t.Fatalf("streams %q and %q share seed %d", prev, s.Name(), s.Seed())
		}
		seen[s.Seed()] = s.Name()
	}
}

func TestRegistrySeedCollision(t *testing.T) {
	reg := NewRegistry()
	reg.Initialize(7)

	first := NewStreamWithOffset("first", 3)
	if err := first.Bind(reg, fixedBlock(5)); err != nil {
		t.Fatal(err)
	}
	if first.Seed() != 10 {
		t.Errorf("expected seed 10, got %d", first.Seed())
	}

	second := NewStreamWithOffset("second", 3)
	err := second.Bind(reg, fixedBlock(5))
	if !errors.Is(err, core.ErrSeedCollision) {
		t.Errorf("expected ErrSeedCollision, got %v", err)
	}
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()
	reg.Initialize(0)
	s := NewStream("transmission")
	if err := s.Bind(reg, fixedBlock(5)); err != nil {
		t.Fatal(err)
	}

	got, err := reg.Get("transmission")
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Error("Get returned a different stream")
	}

	_, err = reg.Get("missing")
	if !core.IsNotFoundError(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestStepAllOrderIrrelevant(t *testing.T) {
	// Advancing streams in any order must not change their draws.
	build := func() (*Registry, []*Stream) {
		reg := NewRegistry()
		reg.Initialize(55)
		var streams []*Stream
		for _, name := range []string{"a", "b", "c"} {
			s := NewStream(name)
			if err := s.Bind(reg, fixedBlock(10)); err != nil {
				t.Fatal(err)
			}
			streams = append(streams, s)
		}
		return reg, streams
	}

	regA, streamsA := build()
	if err := regA.StepAll(2); err != nil {
		t.Fatal(err)
	}

	_, streamsB := build()
	// Advance in reverse order, one at a time.
	for i := len(streamsB) - 1; i >= 0; i-- {
		if err := streamsB[i].Step(2); err != nil {
			t.Fatal(err)
		}
	}

	for i := range streamsA {
		a, err := streamsA[i].Uniform01(nil)
		if err != nil {
			t.Fatal(err)
		}
		b, err := streamsB[i].Uniform01(nil)
		if err != nil {
			t.Fatal(err)
		}
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("stream %d draw %d differs across step orders", i, j)
			}
		}
	}
}

func TestResetAll(t *testing.T) {
	reg := NewRegistry()
	reg.Initialize(2)
	s := NewStream("a")
	if err := s.Bind(reg, fixedBlock(5)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Uniform01(nil); err != nil {
		t.Fatal(err)
	}
	if s.Ready() {
		t.Fatal("stream should be consumed")
	}
	if err := reg.ResetAll(); err != nil {
		t.Fatal(err)
	}
	if !s.Ready() {
		t.Error("ResetAll should re-arm streams")
	}
}
