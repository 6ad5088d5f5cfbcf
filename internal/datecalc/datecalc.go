// Package datecalc walks an ordered sequence of orders, accumulating
// decomposed durations and delivery timestamps against a working
// calendar (see spec §4.D).
package datecalc

import (
	"log"
	"time"

	"github.com/pinggolf/m3-planning-tools/internal/calendar"
	"github.com/pinggolf/m3-planning-tools/internal/costmodel"
	"github.com/pinggolf/m3-planning-tools/internal/domain"
	"github.com/pinggolf/m3-planning-tools/internal/enrichedorder"
)

// Scheduled is an order annotated with its computed duration
// decomposition and probable delivery timestamp.
type Scheduled struct {
	Order                *domain.Order
	SetupMin             float64
	InterLabelChangesMin float64
	PrintMin             float64
	BufferMin            float64
	TotalMin             float64
	ProbableDeliveryDate time.Time
}

// Calculator computes probable delivery dates for a sequence of orders
// on a specific machine.
type Calculator struct {
	cal     *calendar.Calendar
	weights costmodel.Weights
}

// New builds a Calculator bound to the given working calendar and
// cost-model weights.
func New(cal *calendar.Calendar, weights costmodel.Weights) *Calculator {
	return &Calculator{cal: cal, weights: weights}
}

// Compute walks sequence in order, for each position computing setup,
// inter-label changeover, print, and buffer minutes, advancing the
// running timestamp through the working calendar, and recording the
// resulting probable delivery date.
func (c *Calculator) Compute(sequence []*domain.Order, start time.Time, machine *domain.Machine) []Scheduled {
	results := make([]Scheduled, 0, len(sequence))
	current := start

	var previous *enrichedorder.Enriched
	for i, order := range sequence {
		enriched := enrichedorder.New(order)

		setup := 0.0
		if i > 0 {
			setup = costmodel.TransitionCost(previous, enriched, machine, c.weights)
		}

		labels := order.NumLabels
		if labels == 0 {
			labels = 1
		}
		interLabel := float64(labels-1) * machine.TimeChangeUnits

		theoreticalPrint := 0.0
		if machine.AvgVelocity > 0 {
			theoreticalPrint = order.TotalMeters / (machine.AvgVelocity / 60.0)
		}
		efficiency := c.cal.Config().Efficiency
		if efficiency <= 0 {
			efficiency = 1
		}
		realPrint := theoreticalPrint / efficiency

		subtotal := setup + interLabel + realPrint
		buffer := subtotal * c.cal.Config().SafetyBufferFraction
		total := subtotal + buffer

		end := c.cal.Advance(current, total)

		log.Printf("order %d: setup=%.1fmin changes=%.1fmin print=%.1fmin buffer=%.1fmin total=%.1fmin (%.1fh)",
			order.ID, setup, interLabel, realPrint, buffer, total, total/60)
		log.Printf("  start=%s -> end=%s", current.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))

		results = append(results, Scheduled{
			Order:                order,
			SetupMin:             setup,
			InterLabelChangesMin: interLabel,
			PrintMin:             realPrint,
			BufferMin:            buffer,
			TotalMin:             total,
			ProbableDeliveryDate: end,
		})

		current = end
		previous = enriched
	}

	return results
}
