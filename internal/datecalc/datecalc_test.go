package datecalc

import (
	"testing"
	"time"

	"github.com/pinggolf/m3-planning-tools/internal/calendar"
	"github.com/pinggolf/m3-planning-tools/internal/costmodel"
	"github.com/pinggolf/m3-planning-tools/internal/domain"
)

func TestComputeDecompositionSumsToTotal(t *testing.T) {
	cal := calendar.New(calendar.DefaultConfig())
	calc := New(cal, costmodel.DefaultWeights())
	machine := &domain.Machine{ID: 1, Inks: 8, FunctionalInks: 8, AvgVelocity: 600, TimeChangeUnits: 10}

	orders := []*domain.Order{
		{ID: 1, TotalMeters: 600, NumLabels: 3, ColorsJSON: `["red","blue"]`},
		{ID: 2, TotalMeters: 300, NumLabels: 2, ColorsJSON: `["red","green"]`},
	}

	start := time.Date(2026, 7, 27, 7, 0, 0, 0, time.UTC) // a Monday
	results := calc.Compute(orders, start, machine)

	if len(results) != len(orders) {
		t.Fatalf("Compute returned %d results, want %d", len(results), len(orders))
	}

	for _, r := range results {
		sum := r.SetupMin + r.InterLabelChangesMin + r.PrintMin + r.BufferMin
		if diff := sum - r.TotalMin; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("order %d: setup+inter+print+buffer = %v, want TotalMin %v", r.Order.ID, sum, r.TotalMin)
		}
	}
}

func TestComputeFirstOrderHasNoSetupCost(t *testing.T) {
	cal := calendar.New(calendar.DefaultConfig())
	calc := New(cal, costmodel.DefaultWeights())
	machine := &domain.Machine{ID: 1, Inks: 8, FunctionalInks: 8, AvgVelocity: 600, TimeChangeUnits: 10}

	orders := []*domain.Order{{ID: 1, TotalMeters: 600, NumLabels: 1, ColorsJSON: `["red"]`}}
	results := calc.Compute(orders, time.Date(2026, 7, 27, 7, 0, 0, 0, time.UTC), machine)

	if results[0].SetupMin != 0 {
		t.Errorf("first order SetupMin = %v, want 0", results[0].SetupMin)
	}
}

func TestComputeZeroVelocityYieldsZeroPrintMinutes(t *testing.T) {
	cal := calendar.New(calendar.DefaultConfig())
	calc := New(cal, costmodel.DefaultWeights())
	machine := &domain.Machine{ID: 1, Inks: 8, FunctionalInks: 8, AvgVelocity: 0}

	orders := []*domain.Order{{ID: 1, TotalMeters: 600, NumLabels: 1}}
	results := calc.Compute(orders, time.Date(2026, 7, 27, 7, 0, 0, 0, time.UTC), machine)

	if results[0].PrintMin != 0 {
		t.Errorf("PrintMin with zero velocity = %v, want 0", results[0].PrintMin)
	}
}

func TestComputeProbableDeliveryDateNeverBeforeStart(t *testing.T) {
	cal := calendar.New(calendar.DefaultConfig())
	calc := New(cal, costmodel.DefaultWeights())
	machine := &domain.Machine{ID: 1, Inks: 8, FunctionalInks: 8, AvgVelocity: 600, TimeChangeUnits: 10}

	start := time.Date(2026, 7, 27, 7, 0, 0, 0, time.UTC)
	orders := []*domain.Order{{ID: 1, TotalMeters: 600, NumLabels: 1, ColorsJSON: `["red"]`}}
	results := calc.Compute(orders, start, machine)

	if results[0].ProbableDeliveryDate.Before(start) {
		t.Errorf("ProbableDeliveryDate %v is before start %v", results[0].ProbableDeliveryDate, start)
	}
}
