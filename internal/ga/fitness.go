package ga

import (
	"github.com/pinggolf/m3-planning-tools/internal/costmodel"
	"github.com/pinggolf/m3-planning-tools/internal/domain"
	"github.com/pinggolf/m3-planning-tools/internal/enrichedorder"
)

// Weights holds the GA's own fitness-shaping weights, distinct from the
// shared cost-model weights used for transition cost (see costmodel.Weights).
type Weights struct {
	SetupCostWeight        float64 // default 100
	DelayPenaltyWeight     float64 // default 10
	InkOvercapacityPenalty float64 // default 1000
	HighInkPriorityWeight  float64 // default 50000
}

// DefaultWeights returns the documented fitness-shaping defaults.
func DefaultWeights() Weights {
	return Weights{
		SetupCostWeight:        100,
		DelayPenaltyWeight:     10,
		InkOvercapacityPenalty: 1000,
		HighInkPriorityWeight:  50000,
	}
}

const maxLatenessPenalty = 500000

// urgencyWeight returns the per-urgency lateness penalty multiplier.
func urgencyWeight(u Urgency, fallback float64) float64 {
	switch u {
	case UrgencyCriticalOverdue, UrgencyOverdue:
		return 50
	case UrgencyUrgent:
		return 20
	default:
		return fallback
	}
}

// evaluator evaluates the fitness of a permutation of indices against a
// fixed set of enriched orders, an index->id table, and a machine.
type evaluator struct {
	idxToOrder  []*domain.Order
	idxToEnr    []*enrichedorder.Enriched
	machine     *domain.Machine
	weights     Weights
	costWeights costmodel.Weights
}

// Evaluate returns the fitness score for a permutation of indices
// (lower is better). See spec §4.F.
func (e *evaluator) Evaluate(individual []int) float64 {
	score := 0.0
	runningTime := 0.0
	n := len(individual)

	functionalInks := e.machine.EffectiveFunctionalInks()

	for i, idx := range individual {
		order := e.idxToOrder[idx]
		enriched := e.idxToEnr[idx]
		numColors := enriched.NumColors()
		posNorm := float64(i) / float64(n)

		switch {
		case numColors >= 5:
			bonus := (1 - posNorm) * (1 - posNorm) * float64(numColors) * e.weights.HighInkPriorityWeight
			score -= bonus
		case numColors >= 3:
			bonus := (1 - posNorm) * float64(numColors) * 0.2 * e.weights.HighInkPriorityWeight
			score -= bonus
		default:
			penalty := (1 - posNorm) * float64(3-numColors) * 0.5 * e.weights.HighInkPriorityWeight
			score += penalty
		}

		if i > 0 {
			prevEnriched := e.idxToEnr[individual[i-1]]
			transition := costmodel.TransitionCost(prevEnriched, enriched, e.machine, e.costWeights)
			score += transition * e.weights.SetupCostWeight
			runningTime += transition
		}

		runningTime += costmodel.RawPrintTime(order, e.machine)

		if numColors > functionalInks {
			score += float64(numColors-functionalInks) * e.weights.InkOvercapacityPenalty
		}

		if order.DaysRemaining != nil {
			deadlineMinutes := float64(*order.DaysRemaining) * 1440
			if runningTime > deadlineMinutes {
				overshoot := runningTime - deadlineMinutes
				urgency := ClassifyUrgency(order.DaysRemaining)
				weight := urgencyWeight(urgency, e.weights.DelayPenaltyWeight)
				penalty := overshoot * weight
				if penalty > maxLatenessPenalty {
					penalty = maxLatenessPenalty
				}
				score += penalty
			}
		}
	}

	return score
}
