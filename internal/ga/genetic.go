// Package ga implements the genetic-algorithm-based permutation search
// (spec §4.F): it searches the space of orderings of a machine's
// non-forced orders to minimize a weighted cost function.
//
// The GA operates on permutations of indices 0..N-1, translated to and
// from order ids through a fixed index<->id table built at construction
// time (see spec's "Index<->id indirection" design note) — this keeps
// the hot loop free of map hashing and avoids the original
// implementation's process-global type registry, since each Sequencer
// owns its own operator state.
package ga

import (
	"math/rand"

	"github.com/pinggolf/m3-planning-tools/internal/costmodel"
	"github.com/pinggolf/m3-planning-tools/internal/domain"
	"github.com/pinggolf/m3-planning-tools/internal/enrichedorder"
)

// Params configures a single optimization run.
type Params struct {
	PopulationSize int     // default 100
	Generations    int     // default 100 (200 when invoked from the all-machines planner)
	CxPB           float64 // crossover probability, default 0.7
	MutPB          float64 // mutation-selection probability, default 0.2
	MutIndPB       float64 // per-index shuffle probability, default 0.05
	TournamentSize int     // default 3
}

// DefaultParams returns the documented single-machine defaults.
func DefaultParams() Params {
	return Params{
		PopulationSize: 100,
		Generations:    100,
		CxPB:           0.7,
		MutPB:          0.2,
		MutIndPB:       0.05,
		TournamentSize: 3,
	}
}

// Sequencer searches permutations of a fixed set of orders for one
// machine, minimizing the fitness function in fitness.go.
type Sequencer struct {
	idxToOrderID []int64
	eval         evaluator
	rng          *rand.Rand
}

// NewSequencer builds a Sequencer over orders for machine, with the
// given GA and cost-model weights. The index<->id mapping is fixed at
// construction time.
func NewSequencer(orders []*domain.Order, machine *domain.Machine, weights Weights, costWeights costmodel.Weights, rng *rand.Rand) *Sequencer {
	idxToOrderID := make([]int64, len(orders))
	idxToOrder := make([]*domain.Order, len(orders))
	idxToEnr := make([]*enrichedorder.Enriched, len(orders))
	for i, o := range orders {
		idxToOrderID[i] = o.ID
		idxToOrder[i] = o
		idxToEnr[i] = enrichedorder.New(o)
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	return &Sequencer{
		idxToOrderID: idxToOrderID,
		eval: evaluator{
			idxToOrder:  idxToOrder,
			idxToEnr:    idxToEnr,
			machine:     machine,
			weights:     weights,
			costWeights: costWeights,
		},
		rng: rng,
	}
}

type individual struct {
	genes   []int
	fitness float64
}

// randomPermutation returns a uniformly random permutation of 0..n-1.
func randomPermutation(n int, rng *rand.Rand) []int {
	perm := rng.Perm(n)
	return perm
}

// orderedCrossover implements DEAP's cxOrdered: it preserves a
// sub-sequence of a and fills the rest in the order they appear in b.
func orderedCrossover(a, b []int, rng *rand.Rand) ([]int, []int) {
	n := len(a)
	child1 := make([]int, n)
	child2 := make([]int, n)
	for i := range child1 {
		child1[i] = -1
		child2[i] = -1
	}

	lo := rng.Intn(n)
	hi := rng.Intn(n)
	if lo > hi {
		lo, hi = hi, lo
	}

	copy(child1[lo:hi+1], a[lo:hi+1])
	copy(child2[lo:hi+1], b[lo:hi+1])

	fill(child1, a, b, lo, hi)
	fill(child2, b, a, lo, hi)

	return child1, child2
}

// fill completes child (which already has [lo,hi] copied from source)
// with the remaining values in the order they appear in other,
// skipping values already present.
func fill(child, source, other []int, lo, hi int) {
	n := len(child)
	present := make(map[int]struct{}, hi-lo+1)
	for i := lo; i <= hi; i++ {
		present[child[i]] = struct{}{}
	}

	pos := (hi + 1) % n
	otherPos := (hi + 1) % n
	for count := 0; count < n; count++ {
		candidate := other[otherPos]
		if _, ok := present[candidate]; !ok {
			child[pos] = candidate
			present[candidate] = struct{}{}
			pos = (pos + 1) % n
		}
		otherPos = (otherPos + 1) % n
	}
}

// shuffleIndexesMutate mutates ind in place: each position is,
// independently with probability indpb, swapped with another random
// position (DEAP's mutShuffleIndexes).
func shuffleIndexesMutate(genes []int, indpb float64, rng *rand.Rand) {
	n := len(genes)
	if n < 2 {
		return
	}
	for i := 0; i < n; i++ {
		if rng.Float64() < indpb {
			j := rng.Intn(n - 1)
			if j >= i {
				j++
			}
			genes[i], genes[j] = genes[j], genes[i]
		}
	}
}

// tournamentSelect runs a tournament of the given size over pop and
// returns a copy of the winner's genes.
func tournamentSelect(pop []individual, size int, rng *rand.Rand) []int {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < size; i++ {
		cand := pop[rng.Intn(len(pop))]
		if cand.fitness < best.fitness {
			best = cand
		}
	}
	genes := make([]int, len(best.genes))
	copy(genes, best.genes)
	return genes
}

// Optimize runs the GA to completion (fixed generation count) and
// returns the best-observed sequence of order ids (hall-of-fame of
// size 1). An empty input returns an empty sequence without invoking
// any operator; a single-order input is returned unchanged.
func (s *Sequencer) Optimize(params Params) []int64 {
	n := len(s.idxToOrderID)
	if n == 0 {
		return []int64{}
	}
	if n == 1 {
		return []int64{s.idxToOrderID[0]}
	}

	pop := make([]individual, params.PopulationSize)
	for i := range pop {
		genes := randomPermutation(n, s.rng)
		pop[i] = individual{genes: genes, fitness: s.eval.Evaluate(genes)}
	}

	best := pop[0]
	for _, ind := range pop {
		if ind.fitness < best.fitness {
			best = ind
		}
	}

	for gen := 0; gen < params.Generations; gen++ {
		offspring := make([]individual, 0, params.PopulationSize)
		for len(offspring) < params.PopulationSize {
			parent1 := tournamentSelect(pop, params.TournamentSize, s.rng)
			parent2 := tournamentSelect(pop, params.TournamentSize, s.rng)

			child1, child2 := parent1, parent2
			if s.rng.Float64() < params.CxPB {
				child1, child2 = orderedCrossover(parent1, parent2, s.rng)
			}

			if s.rng.Float64() < params.MutPB {
				shuffleIndexesMutate(child1, params.MutIndPB, s.rng)
			}
			if s.rng.Float64() < params.MutPB {
				shuffleIndexesMutate(child2, params.MutIndPB, s.rng)
			}

			offspring = append(offspring, individual{genes: child1, fitness: s.eval.Evaluate(child1)})
			if len(offspring) < params.PopulationSize {
				offspring = append(offspring, individual{genes: child2, fitness: s.eval.Evaluate(child2)})
			}
		}

		// Elitism: the best-known individual always survives into the
		// next generation, replacing the offspring population's worst.
		worstIdx := 0
		for i, ind := range offspring {
			if ind.fitness > offspring[worstIdx].fitness {
				worstIdx = i
			}
		}
		offspring[worstIdx] = individual{genes: append([]int(nil), best.genes...), fitness: best.fitness}

		pop = offspring
		for _, ind := range pop {
			if ind.fitness < best.fitness {
				best = ind
			}
		}
	}

	sequence := make([]int64, n)
	for i, idx := range best.genes {
		sequence[i] = s.idxToOrderID[idx]
	}
	return sequence
}
