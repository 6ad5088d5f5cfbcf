// Package costmodel computes the transition cost between two adjacent
// orders on a machine, and a raw print-time estimate used by the GA's
// fitness function.
package costmodel

import (
	"github.com/pinggolf/m3-planning-tools/internal/domain"
	"github.com/pinggolf/m3-planning-tools/internal/enrichedorder"
)

// Weights holds the tunable cost-model factors from the external
// configuration table.
type Weights struct {
	InkChangeCostMin              float64 // per-ink constant in setup, default 5.0
	InkAddCost                    float64 // default 25.0
	ColorReuseBonus               float64 // default 15.0
	MaterialChangeCompleteFactor  float64 // default 1.0
	MaterialChangePartialFactor   float64 // default 0.5
	SameCustomerBonusFactor       float64 // default 0.7 (< 1)
}

// DefaultWeights returns the documented defaults.
func DefaultWeights() Weights {
	return Weights{
		InkChangeCostMin:             5.0,
		InkAddCost:                   25.0,
		ColorReuseBonus:              15.0,
		MaterialChangeCompleteFactor: 1.0,
		MaterialChangePartialFactor:  0.5,
		SameCustomerBonusFactor:      0.7,
	}
}

// fallbackBase is used when the machine carries no time-change-units.
const fallbackBase = 15.0

// TransitionCost computes the cost of transitioning from predecessor
// to successor on the given machine. Malformed inputs fall back to the
// raw machine base cost; the result is clamped to be non-negative.
func TransitionCost(predecessor, successor *enrichedorder.Enriched, machine *domain.Machine, w Weights) float64 {
	base := machine.TimeChangeUnits
	if base == 0 {
		base = fallbackBase
	}

	if predecessor == nil || successor == nil {
		return base
	}

	cost := 0.0
	if enrichedorder.MaterialsEqual(predecessor, successor) {
		cost += base * w.MaterialChangePartialFactor
	} else {
		cost += base * w.MaterialChangeCompleteFactor
	}

	toRemove := enrichedorder.ColorDiff(predecessor, successor)
	toAdd := enrichedorder.ColorDiff(successor, predecessor)
	reused := enrichedorder.ColorIntersect(predecessor, successor)

	cost += float64(len(toRemove)) * w.InkChangeCostMin
	cost += float64(len(toAdd)) * w.InkAddCost
	cost -= float64(len(reused)) * w.ColorReuseBonus

	if enrichedorder.SameCustomer(predecessor, successor) {
		cost *= w.SameCustomerBonusFactor
	}

	if cost < 0 {
		cost = 0
	}
	return cost
}

// RawPrintTime estimates raw wall-time minutes for an order based on
// its total printed meters and the machine's average velocity. It does
// not apply efficiency or the working calendar. Returns 0 if velocity
// or meters are missing.
func RawPrintTime(order *domain.Order, machine *domain.Machine) float64 {
	if order.TotalMeters == 0 || machine.AvgVelocity == 0 {
		return 0
	}
	velocityPerMin := machine.AvgVelocity / 60.0
	return order.TotalMeters / velocityPerMin
}
