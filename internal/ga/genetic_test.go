package ga

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/pinggolf/m3-planning-tools/internal/costmodel"
	"github.com/pinggolf/m3-planning-tools/internal/domain"
)

func testMachine() *domain.Machine {
	return &domain.Machine{ID: 1, Inks: 8, FunctionalInks: 8, AvgVelocity: 600, TimeChangeUnits: 10}
}

func makeOrders(n int) []*domain.Order {
	orders := make([]*domain.Order, n)
	for i := 0; i < n; i++ {
		orders[i] = &domain.Order{ID: int64(i + 1), TotalMeters: 500, ColorsJSON: `["red","blue"]`}
	}
	return orders
}

func TestOptimizeEmptyInputReturnsEmptySequence(t *testing.T) {
	seq := NewSequencer(nil, testMachine(), DefaultWeights(), costmodel.DefaultWeights(), rand.New(rand.NewSource(1)))
	got := seq.Optimize(DefaultParams())
	if len(got) != 0 {
		t.Errorf("Optimize(empty) = %v, want empty", got)
	}
}

func TestOptimizeSingleOrderIsUnchanged(t *testing.T) {
	orders := makeOrders(1)
	seq := NewSequencer(orders, testMachine(), DefaultWeights(), costmodel.DefaultWeights(), rand.New(rand.NewSource(1)))
	got := seq.Optimize(DefaultParams())
	if len(got) != 1 || got[0] != orders[0].ID {
		t.Errorf("Optimize(single) = %v, want [%d]", got, orders[0].ID)
	}
}

func TestOptimizeReturnsPermutationOf1ToN(t *testing.T) {
	orders := makeOrders(8)
	params := Params{PopulationSize: 20, Generations: 5, CxPB: 0.7, MutPB: 0.2, MutIndPB: 0.05, TournamentSize: 3}
	seq := NewSequencer(orders, testMachine(), DefaultWeights(), costmodel.DefaultWeights(), rand.New(rand.NewSource(42)))
	got := seq.Optimize(params)

	if len(got) != len(orders) {
		t.Fatalf("Optimize returned %d ids, want %d", len(got), len(orders))
	}

	seen := make(map[int64]struct{}, len(got))
	for _, id := range got {
		seen[id] = struct{}{}
	}
	if len(seen) != len(orders) {
		t.Errorf("Optimize result has duplicates: %v", got)
	}
	for _, o := range orders {
		if _, ok := seen[o.ID]; !ok {
			t.Errorf("Optimize result missing order id %d", o.ID)
		}
	}
}

func TestOrderedCrossoverPreservesPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := []int{0, 1, 2, 3, 4, 5, 6, 7}
	b := []int{7, 6, 5, 4, 3, 2, 1, 0}

	for i := 0; i < 20; i++ {
		c1, c2 := orderedCrossover(a, b, rng)
		assertPermutation(t, c1, len(a))
		assertPermutation(t, c2, len(a))
	}
}

func TestShuffleIndexesMutatePreservesPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	genes := []int{0, 1, 2, 3, 4, 5}
	shuffleIndexesMutate(genes, 0.5, rng)
	assertPermutation(t, genes, 6)
}

func assertPermutation(t *testing.T, genes []int, n int) {
	t.Helper()
	if len(genes) != n {
		t.Fatalf("len(genes) = %d, want %d", len(genes), n)
	}
	cp := append([]int(nil), genes...)
	sort.Ints(cp)
	for i, v := range cp {
		if v != i {
			t.Fatalf("genes %v is not a permutation of 0..%d", genes, n-1)
		}
	}
}

func TestClassifyUrgencyBuckets(t *testing.T) {
	cases := []struct {
		days *int
		want Urgency
	}{
		{intPtr(-40), UrgencyCriticalOverdue},
		{intPtr(-1), UrgencyOverdue},
		{intPtr(0), UrgencyUrgent},
		{intPtr(3), UrgencyUrgent},
		{intPtr(7), UrgencyUpcoming},
		{intPtr(30), UrgencyNormal},
		{nil, UrgencyNormal},
	}
	for _, c := range cases {
		if got := ClassifyUrgency(c.days); got != c.want {
			t.Errorf("ClassifyUrgency(%v) = %v, want %v", derefOrNil(c.days), got, c.want)
		}
	}
}

func intPtr(v int) *int { return &v }

func derefOrNil(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
