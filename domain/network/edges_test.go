package network

import (
	"errors"
	"testing"

	"episim/domain/core"
)

func TestEdgesAppendAndLen(t *testing.T) {
	e := NewEdges("dur")
	err := e.Append(
		[]int{0, 1},
		[]int{2, 3},
		[]float64{1, 1},
		map[string][]float64{"dur": {5, 7}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if e.Len() != 2 {
		t.Errorf("Len = %d", e.Len())
	}

	dur, err := e.Extra("dur")
	if err != nil {
		t.Fatal(err)
	}
	if dur[1] != 7 {
		t.Errorf("dur: %v", dur)
	}
}

func TestEdgesAppendLengthChecks(t *testing.T) {
	e := NewEdges("dur")

	err := e.Append([]int{0}, []int{1, 2}, []float64{1}, map[string][]float64{"dur": {1}})
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch for p2, got %v", err)
	}

	err = e.Append([]int{0}, []int{1}, []float64{1}, map[string][]float64{"dur": {1, 2}})
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch for dur, got %v", err)
	}

	err = e.Append([]int{0}, []int{1}, []float64{1}, nil)
	if !core.IsNotFoundError(err) {
		t.Errorf("expected missing-column error, got %v", err)
	}
}

func TestEdgesValidate(t *testing.T) {
	e := NewEdges()
	if err := e.Append([]int{0, 4}, []int{1, 2}, []float64{1, 1}, nil); err != nil {
		t.Fatal(err)
	}

	if err := e.Validate(5); err != nil {
		t.Errorf("valid edges rejected: %v", err)
	}

	err := e.Validate(4)
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("expected out-of-block error, got %v", err)
	}
}

func TestEdgesKeep(t *testing.T) {
	e := NewEdges("dur")
	if err := e.Append(
		[]int{0, 1, 2},
		[]int{3, 4, 5},
		[]float64{1, 2, 3},
		map[string][]float64{"dur": {10, 20, 30}},
	); err != nil {
		t.Fatal(err)
	}

	if err := e.Keep([]bool{true, false, true}); err != nil {
		t.Fatal(err)
	}
	if e.Len() != 2 {
		t.Fatalf("Len after Keep = %d", e.Len())
	}
	if e.P1()[1] != 2 || e.P2()[1] != 5 || e.Beta()[1] != 3 {
		t.Errorf("wrong edge kept: p1=%v p2=%v beta=%v", e.P1(), e.P2(), e.Beta())
	}
	dur, _ := e.Extra("dur")
	if dur[0] != 10 || dur[1] != 30 {
		t.Errorf("dur after Keep: %v", dur)
	}
}

func TestEdgesMembersAndContacts(t *testing.T) {
	e := NewEdges()
	if err := e.Append([]int{1, 2, 3, 4}, []int{2, 3, 1, 4}, []float64{1, 1, 1, 1}, nil); err != nil {
		t.Fatal(err)
	}

	members := e.Members()
	if len(members) != 4 || members[0] != 1 || members[3] != 4 {
		t.Errorf("members: %v", members)
	}

	contacts := e.FindContacts([]int{1, 3})
	// 1 partners with 2 and 3; 3 partners with 2 and 1.
	want := []int{1, 2, 3}
	if len(contacts) != len(want) {
		t.Fatalf("contacts: %v", contacts)
	}
	for i := range want {
		if contacts[i] != want[i] {
			t.Errorf("contacts: %v, want %v", contacts, want)
		}
	}
}
