// Package domain holds the core entities shared across the scheduling
// subsystems: machines, schedulable orders, and persisted queue rows.
package domain

import "time"

// MachineStatus enumerates the lifecycle states a machine can be in.
// Only MachineStatusActive machines participate in scheduling.
type MachineStatus string

const (
	MachineStatusActive      MachineStatus = "active"
	MachineStatusMaintenance MachineStatus = "maintenance"
	MachineStatusError       MachineStatus = "error"
	MachineStatusDisabled    MachineStatus = "disabled"
)

// Machine describes a printing press: its ink capacity, throughput, and
// the set of machines it can swap rolls with.
type Machine struct {
	ID              int64
	Name            string
	Pseudonym       string
	Inks            int
	FunctionalInks  int
	AvgVelocity     float64 // meters/hour
	TimeChangeUnits float64 // minutes, per-unit changeover cost
	Status          MachineStatus
	ShareRolls      []int64 // declared compatible machine ids, possibly one-sided
}

// IsActive reports whether the machine is eligible for scheduling.
func (m *Machine) IsActive() bool {
	return m.Status == MachineStatusActive
}

// EffectiveFunctionalInks returns FunctionalInks, falling back to the
// nominal ink count when functional inks are unset (zero).
func (m *Machine) EffectiveFunctionalInks() int {
	if m.FunctionalInks > 0 {
		return m.FunctionalInks
	}
	return m.Inks
}

// Order is the schedulable view of a production order: everything the
// optimizer and date calculator need, with raw JSON-bearing fields still
// as strings (see enrichedorder for the parsed view).
type Order struct {
	ID                   int64
	MachineID            int64 // assigned machine, used during multi-machine planning
	ProductName          string
	Status               int
	DeliveryDate         *time.Time
	ForcedDeliveryDate   *time.Time
	PlanningPriority     int
	DaysRemaining        *int
	TotalMeters          float64
	NumLabels            int
	ColorsJSON           string // JSON array of color tokens, possibly malformed
	MaterialsJSON        string // JSON array of material tokens, possibly malformed
	CustomerDataJSON     string // JSON object, at least carrying customer id
	TotalNetWeight       float64
}

// IsSchedulable reports whether the order is eligible for scheduling.
// Orders with status > 5 are never schedulable.
func (o *Order) IsSchedulable() bool {
	return o.Status <= 5
}

// IsForced reports whether the order carries a non-null forced delivery
// date, and is therefore never reordered by the optimizer.
func (o *Order) IsForced() bool {
	return o.ForcedDeliveryDate != nil
}

// QueueRow is a persisted row in a machine's production queue.
type QueueRow struct {
	QueueRowID            int64
	OrderID               int64
	MachineID             int64
	ProductionOrder       int // dense 1-based rank within the machine
	Reason                string
	ProbableDeliveryDate  time.Time
	SetupMin              float64
	InterLabelChangesMin  float64
	PrintMin              float64
	BufferMin             float64
	TotalMin              float64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// QueueUpdate is a bulk production-order-rank update, used by
// update_production_queue.
type QueueUpdate struct {
	QueueRowID      int64
	ProductionOrder int
}

// QueueDateUpdate is a bulk date/time-decomposition update, used by
// update_queue_dates_and_times.
type QueueDateUpdate struct {
	QueueRowID           int64
	ProbableDeliveryDate time.Time
	SetupMin             float64
	InterLabelChangesMin float64
	PrintMin             float64
	BufferMin            float64
	TotalMin             float64
}
