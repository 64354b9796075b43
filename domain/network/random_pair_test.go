package network

import (
	"testing"

	"episim/domain/agents"
	"episim/domain/rng"
)

func newTestPopulation(t *testing.T, n int) (*agents.People, *rng.Registry) {
	t.Helper()
	people, err := agents.NewPeople(n)
	if err != nil {
		t.Fatal(err)
	}
	female, err := people.Bool(agents.ColFemale)
	if err != nil {
		t.Fatal(err)
	}
	for i := range female {
		female[i] = i%2 == 0
	}
	reg := rng.NewRegistry()
	reg.Initialize(1000)
	return people, reg
}

func TestRandomPairNetInit(t *testing.T) {
	people, reg := newTestPopulation(t, 20)
	net := NewRandomPairNet(5)

	if err := net.Init(reg, people); err != nil {
		t.Fatal(err)
	}

	// 10 males and 10 females available: everyone pairs up.
	if net.Edges().Len() != 10 {
		t.Errorf("expected 10 pairs, got %d", net.Edges().Len())
	}
	if err := net.Edges().Validate(people.Size()); err != nil {
		t.Errorf("invalid edges after init: %v", err)
	}

	// Males on p1, females on p2.
	female, _ := people.Bool(agents.ColFemale)
	for i := 0; i < net.Edges().Len(); i++ {
		if female[net.Edges().P1()[i]] {
			t.Errorf("edge %d has a female on p1", i)
		}
		if !female[net.Edges().P2()[i]] {
			t.Errorf("edge %d has a male on p2", i)
		}
	}
}

func TestRandomPairNetDeterminism(t *testing.T) {
	build := func() *RandomPairNet {
		people, reg := newTestPopulation(t, 30)
		net := NewRandomPairNet(5)
		if err := net.Init(reg, people); err != nil {
			t.Fatal(err)
		}
		return net
	}

	a, b := build(), build()
	if a.Edges().Len() != b.Edges().Len() {
		t.Fatalf("pair counts differ: %d vs %d", a.Edges().Len(), b.Edges().Len())
	}
	for i := 0; i < a.Edges().Len(); i++ {
		if a.Edges().P1()[i] != b.Edges().P1()[i] || a.Edges().P2()[i] != b.Edges().P2()[i] {
			t.Fatalf("pairing differs at edge %d", i)
		}
	}
	durA, _ := a.Edges().Extra(EdgeDur)
	durB, _ := b.Edges().Extra(EdgeDur)
	for i := range durA {
		if durA[i] != durB[i] {
			t.Fatalf("duration differs at edge %d", i)
		}
	}
}

func TestRandomPairNetUpdateRemovesDeadPartners(t *testing.T) {
	people, reg := newTestPopulation(t, 10)
	net := NewRandomPairNet(100) // long durations so expiry doesn't interfere
	if err := net.Init(reg, people); err != nil {
		t.Fatal(err)
	}
	if net.Edges().Len() == 0 {
		t.Fatal("no pairs formed")
	}

	victim := net.Edges().P1()[0]
	if err := people.Die([]int{victim}, 1); err != nil {
		t.Fatal(err)
	}

	// Re-arm the streams for the next timestep before updating.
	if err := reg.StepAll(1); err != nil {
		t.Fatal(err)
	}
	if err := net.Update(people, 1); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < net.Edges().Len(); i++ {
		if net.Edges().P1()[i] == victim || net.Edges().P2()[i] == victim {
			t.Errorf("dead agent %d still partnered at edge %d", victim, i)
		}
	}
}

func TestMaternalNet(t *testing.T) {
	net := NewMaternalNet()
	if err := net.AddPairs([]int{3, 4}, []int{8, 9}, []float64{2, 1}); err != nil {
		t.Fatal(err)
	}

	if err := net.Update(nil, 1); err != nil {
		t.Fatal(err)
	}
	beta := net.Edges().Beta()
	if beta[0] != 1 {
		t.Errorf("pair 0 should still transmit, beta=%v", beta[0])
	}
	if beta[1] != 0 {
		t.Errorf("pair 1 past post-partum should have beta 0, got %v", beta[1])
	}

	// Connections are kept even after expiry.
	if net.Edges().Len() != 2 {
		t.Errorf("maternal edges should be retained, got %d", net.Edges().Len())
	}
}
