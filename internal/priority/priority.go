// Package priority implements the Priority Manager (spec §4.G): it
// mutates an existing machine sequence to honor urgent manual
// prioritizations, optionally re-optimizing the non-locked tail.
package priority

import (
	"log"
	"math/rand"

	"github.com/pinggolf/m3-planning-tools/internal/costmodel"
	"github.com/pinggolf/m3-planning-tools/internal/domain"
	"github.com/pinggolf/m3-planning-tools/internal/ga"
)

// LockKind marks why an order is excluded from future re-optimization.
type LockKind string

const (
	LockForced LockKind = "FORCED"
	LockHigh   LockKind = "HIGH"
)

// Manager mutates an in-memory sequence in response to prioritize
// requests. Locks are not persisted; they exist only for the duration
// of one Manager's lifetime (one prioritize call plus any subsequent
// reoptimize within the same session).
type Manager struct {
	Sequence  []int64
	OrdersByID map[int64]*domain.Order
	Machine   *domain.Machine
	Locks     map[int64]LockKind
}

// New builds a Manager over an initial sequence, dropping any order id
// not present in ordersByID (orders may have migrated to another
// machine between sequencing and prioritization).
func New(sequence []int64, ordersByID map[int64]*domain.Order, machine *domain.Machine) *Manager {
	m := &Manager{
		Sequence:   sequence,
		OrdersByID: ordersByID,
		Machine:    machine,
		Locks:      map[int64]LockKind{},
	}
	m.validateConsistency()
	return m
}

func (m *Manager) validateConsistency() {
	valid := make([]int64, 0, len(m.Sequence))
	var invalid []int64
	for _, id := range m.Sequence {
		if _, ok := m.OrdersByID[id]; ok {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		log.Printf("priority: dropping %d orders no longer schedulable on this machine: %v", len(invalid), invalid)
	}
	m.Sequence = valid
}

func (m *Manager) indexOf(orderID int64) int {
	for i, id := range m.Sequence {
		if id == orderID {
			return i
		}
	}
	return -1
}

func remove(seq []int64, orderID int64) []int64 {
	out := make([]int64, 0, len(seq))
	for _, id := range seq {
		if id != orderID {
			out = append(out, id)
		}
	}
	return out
}

// PrioritizeWithoutReoptimize removes target from the sequence (no-op
// if absent) and inserts it at position 0, marking it FORCED.
func (m *Manager) PrioritizeWithoutReoptimize(orderID int64) {
	if m.indexOf(orderID) == -1 {
		log.Printf("priority: order %d not in current sequence, ignoring", orderID)
		return
	}
	if _, ok := m.OrdersByID[orderID]; !ok {
		log.Printf("priority: order %d missing from order dictionary, refusing", orderID)
		return
	}

	m.Sequence = remove(m.Sequence, orderID)
	m.Sequence = append([]int64{orderID}, m.Sequence...)
	m.Locks[orderID] = LockForced
}

// PrioritizeWithReoptimize removes target, partitions the remainder
// into locked and free, re-optimizes the free subset with the genetic
// sequencer, and rebuilds the sequence as locked ++ [target] ++
// optimized-free. Free orders no longer present in ordersByID are
// dropped with a warning.
func (m *Manager) PrioritizeWithReoptimize(orderID int64, gaParams ga.Params, gaWeights ga.Weights, costWeights costmodel.Weights, rng *rand.Rand) {
	if m.indexOf(orderID) == -1 {
		log.Printf("priority: order %d not in current sequence, ignoring", orderID)
		return
	}
	if _, ok := m.OrdersByID[orderID]; !ok {
		log.Printf("priority: order %d missing from order dictionary, refusing", orderID)
		return
	}

	m.Sequence = remove(m.Sequence, orderID)

	var locked, free []int64
	for _, id := range m.Sequence {
		if _, isLocked := m.Locks[id]; isLocked {
			locked = append(locked, id)
			continue
		}
		free = append(free, id)
	}

	var validFree []int64
	var dropped []int64
	for _, id := range free {
		if _, ok := m.OrdersByID[id]; ok {
			validFree = append(validFree, id)
		} else {
			dropped = append(dropped, id)
		}
	}
	if len(dropped) > 0 {
		log.Printf("priority: dropping %d free orders that migrated off this machine: %v", len(dropped), dropped)
	}

	var optimizedFree []int64
	if len(validFree) > 0 {
		freeOrders := make([]*domain.Order, len(validFree))
		for i, id := range validFree {
			freeOrders[i] = m.OrdersByID[id]
		}
		seq := ga.NewSequencer(freeOrders, m.Machine, gaWeights, costWeights, rng)
		optimizedFree = seq.Optimize(gaParams)
	}

	m.Sequence = append(append(append([]int64{}, locked...), orderID), optimizedFree...)
	m.Locks[orderID] = LockHigh
}
