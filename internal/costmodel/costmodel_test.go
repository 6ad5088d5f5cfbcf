package costmodel

import (
	"testing"

	"github.com/pinggolf/m3-planning-tools/internal/domain"
	"github.com/pinggolf/m3-planning-tools/internal/enrichedorder"
)

func machine() *domain.Machine {
	return &domain.Machine{ID: 1, Inks: 8, FunctionalInks: 8, AvgVelocity: 600, TimeChangeUnits: 10}
}

func TestTransitionCostNeverNegative(t *testing.T) {
	w := DefaultWeights()
	m := machine()

	a := enrichedorder.New(&domain.Order{ID: 1, ColorsJSON: `["red","blue","green","yellow","black"]`, MaterialsJSON: `["pet"]`, CustomerDataJSON: `{"customer_id":1}`})
	b := enrichedorder.New(&domain.Order{ID: 2, ColorsJSON: `["red","blue"]`, MaterialsJSON: `["pet"]`, CustomerDataJSON: `{"customer_id":1}`})

	cost := TransitionCost(a, b, m, w)
	if cost < 0 {
		t.Errorf("TransitionCost = %v, want >= 0", cost)
	}
}

func TestTransitionCostNilPredecessorUsesBase(t *testing.T) {
	w := DefaultWeights()
	m := machine()
	b := enrichedorder.New(&domain.Order{ID: 2, ColorsJSON: `["red"]`})

	cost := TransitionCost(nil, b, m, w)
	if cost != m.TimeChangeUnits {
		t.Errorf("TransitionCost(nil, ...) = %v, want %v", cost, m.TimeChangeUnits)
	}
}

func TestTransitionCostFallsBackWhenMachineHasNoChangeUnits(t *testing.T) {
	w := DefaultWeights()
	m := &domain.Machine{ID: 1, Inks: 8, FunctionalInks: 8, AvgVelocity: 600}
	cost := TransitionCost(nil, nil, m, w)
	if cost != fallbackBase {
		t.Errorf("TransitionCost fallback = %v, want %v", cost, fallbackBase)
	}
}

func TestRawPrintTimeZeroWhenMissingInputs(t *testing.T) {
	m := &domain.Machine{ID: 1, AvgVelocity: 0}
	o := &domain.Order{ID: 1, TotalMeters: 1000}
	if got := RawPrintTime(o, m); got != 0 {
		t.Errorf("RawPrintTime with zero velocity = %v, want 0", got)
	}

	m2 := &domain.Machine{ID: 1, AvgVelocity: 600}
	o2 := &domain.Order{ID: 1, TotalMeters: 0}
	if got := RawPrintTime(o2, m2); got != 0 {
		t.Errorf("RawPrintTime with zero meters = %v, want 0", got)
	}
}

func TestRawPrintTimeComputation(t *testing.T) {
	m := &domain.Machine{ID: 1, AvgVelocity: 600} // 10 meters/min
	o := &domain.Order{ID: 1, TotalMeters: 1000}
	got := RawPrintTime(o, m)
	want := 100.0
	if got != want {
		t.Errorf("RawPrintTime = %v, want %v", got, want)
	}
}
