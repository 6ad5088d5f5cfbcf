// Package store defines the external store port the scheduling core
// depends on (spec §6), and provides two implementations: a Postgres
// store patterned on the teacher's internal/db package, and an
// in-memory double for tests.
package store

import (
	"context"

	"github.com/pinggolf/m3-planning-tools/internal/domain"
)

// Store is the persistence port required by the scheduling core.
type Store interface {
	GetMachineByID(ctx context.Context, id int64) (*domain.Machine, error)
	GetMachineByNameOrPseudonym(ctx context.Context, name string) (*domain.Machine, error)
	GetAllMachineStatus(ctx context.Context) ([]*domain.Machine, error)
	UpdateMachineStatus(ctx context.Context, id int64, status *domain.MachineStatus, functionalInks *int) (bool, error)

	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	GetQueueItemByOrderID(ctx context.Context, orderID int64) (*domain.QueueRow, error)
	GetProductionQueueForMachine(ctx context.Context, machineID int64) ([]*domain.QueueRow, error)
	GetSchedulableOrdersForMachine(ctx context.Context, machineID int64) ([]*domain.Order, error)
	GetSchedulableOrdersForAllMachines(ctx context.Context) ([]*domain.Order, error)
	GetSchedulableOrdersByIDs(ctx context.Context, machineID int64) ([]*domain.Order, error)

	OverwriteMachineSchedule(ctx context.Context, machineID int64, rows []*domain.QueueRow) (bool, error)
	UpdateProductionQueue(ctx context.Context, updates []domain.QueueUpdate) (bool, error)
	UpdateQueueDatesAndTimes(ctx context.Context, updates []domain.QueueDateUpdate) (bool, error)
}

// NotFoundError indicates the requested machine or order is missing.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.Entity + " " + e.Key
}
