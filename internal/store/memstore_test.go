package store

import (
	"context"
	"testing"

	"github.com/pinggolf/m3-planning-tools/internal/domain"
)

func TestOverwriteMachineScheduleReplacesQueue(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	s.SeedMachine(&domain.Machine{ID: 1, Inks: 8, FunctionalInks: 8})

	rows := []*domain.QueueRow{
		{OrderID: 10, ProductionOrder: 1},
		{OrderID: 20, ProductionOrder: 2},
	}
	if _, err := s.OverwriteMachineSchedule(ctx, 1, rows); err != nil {
		t.Fatalf("OverwriteMachineSchedule: %v", err)
	}

	got, err := s.GetProductionQueueForMachine(ctx, 1)
	if err != nil {
		t.Fatalf("GetProductionQueueForMachine: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(queue) = %d, want 2", len(got))
	}
	if got[0].OrderID != 10 || got[1].OrderID != 20 {
		t.Errorf("queue order = [%d, %d], want [10, 20]", got[0].OrderID, got[1].OrderID)
	}

	// A second overwrite must fully replace the first, not append.
	rows2 := []*domain.QueueRow{{OrderID: 30, ProductionOrder: 1}}
	if _, err := s.OverwriteMachineSchedule(ctx, 1, rows2); err != nil {
		t.Fatalf("OverwriteMachineSchedule (second): %v", err)
	}
	got2, _ := s.GetProductionQueueForMachine(ctx, 1)
	if len(got2) != 1 || got2[0].OrderID != 30 {
		t.Errorf("queue after second overwrite = %v, want [order 30]", got2)
	}
}

func TestGetSchedulableOrdersForMachineExcludesTerminalStatus(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	s.SeedOrder(&domain.Order{ID: 1, MachineID: 1, Status: 2})
	s.SeedOrder(&domain.Order{ID: 2, MachineID: 1, Status: 9}) // not schedulable
	s.SeedOrder(&domain.Order{ID: 3, MachineID: 2, Status: 1}) // other machine

	got, err := s.GetSchedulableOrdersForMachine(ctx, 1)
	if err != nil {
		t.Fatalf("GetSchedulableOrdersForMachine: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("GetSchedulableOrdersForMachine(1) = %v, want [order 1]", got)
	}
}

func TestUpdateMachineStatusNotFound(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	found, err := s.UpdateMachineStatus(ctx, 999, nil, nil)
	if err != nil {
		t.Fatalf("UpdateMachineStatus: %v", err)
	}
	if found {
		t.Errorf("UpdateMachineStatus found = true for unknown machine, want false")
	}
}
