package store

import (
	"context"
	"sync"
	"time"

	"github.com/pinggolf/m3-planning-tools/internal/domain"
)

// MemStore is an in-memory Store implementation used by tests and by
// local development without a Postgres instance.
type MemStore struct {
	mu       sync.Mutex
	machines map[int64]*domain.Machine
	orders   map[int64]*domain.Order
	queue    map[int64]*domain.QueueRow // by queue row id
	nextRow  int64
}

// NewMemStore builds an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		machines: map[int64]*domain.Machine{},
		orders:   map[int64]*domain.Order{},
		queue:    map[int64]*domain.QueueRow{},
	}
}

// SeedMachine inserts or replaces a machine.
func (s *MemStore) SeedMachine(m *domain.Machine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machines[m.ID] = m
}

// SeedOrder inserts or replaces an order.
func (s *MemStore) SeedOrder(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *MemStore) GetMachineByID(_ context.Context, id int64) (*domain.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.machines[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *MemStore) GetMachineByNameOrPseudonym(_ context.Context, name string) (*domain.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.machines {
		if m.Name == name || m.Pseudonym == name {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) GetAllMachineStatus(_ context.Context) ([]*domain.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Machine, 0, len(s.machines))
	for _, m := range s.machines {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) UpdateMachineStatus(_ context.Context, id int64, status *domain.MachineStatus, functionalInks *int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.machines[id]
	if !ok {
		return false, nil
	}
	if status != nil {
		m.Status = *status
	}
	if functionalInks != nil {
		m.FunctionalInks = *functionalInks
	}
	return true, nil
}

func (s *MemStore) GetOrderByID(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *MemStore) GetQueueItemByOrderID(_ context.Context, orderID int64) (*domain.QueueRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.queue {
		if row.OrderID == orderID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) GetProductionQueueForMachine(_ context.Context, machineID int64) ([]*domain.QueueRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.QueueRow
	for _, row := range s.queue {
		if row.MachineID == machineID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sortQueueRows(out)
	return out, nil
}

func (s *MemStore) GetSchedulableOrdersForMachine(_ context.Context, machineID int64) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Order
	for _, o := range s.orders {
		if o.MachineID == machineID && o.IsSchedulable() {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemStore) GetSchedulableOrdersForAllMachines(_ context.Context) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Order
	for _, o := range s.orders {
		if o.IsSchedulable() {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemStore) GetSchedulableOrdersByIDs(_ context.Context, machineID int64) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []*domain.QueueRow
	for _, row := range s.queue {
		if row.MachineID == machineID {
			rows = append(rows, row)
		}
	}
	sortQueueRows(rows)

	var out []*domain.Order
	for _, row := range rows {
		if o, ok := s.orders[row.OrderID]; ok {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemStore) OverwriteMachineSchedule(_ context.Context, machineID int64, rows []*domain.QueueRow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.queue {
		if row.MachineID == machineID {
			delete(s.queue, id)
		}
	}

	now := time.Now()
	for _, r := range rows {
		s.nextRow++
		cp := *r
		cp.QueueRowID = rowID(s.nextRow)
		cp.MachineID = machineID
		cp.CreatedAt = now
		cp.UpdatedAt = now
		s.queue[cp.QueueRowID] = &cp
	}
	return true, nil
}

func (s *MemStore) UpdateProductionQueue(_ context.Context, updates []domain.QueueUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		if row, ok := s.queue[u.QueueRowID]; ok {
			row.ProductionOrder = u.ProductionOrder
			row.UpdatedAt = time.Now()
		}
	}
	return true, nil
}

func (s *MemStore) UpdateQueueDatesAndTimes(_ context.Context, updates []domain.QueueDateUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		if row, ok := s.queue[u.QueueRowID]; ok {
			row.ProbableDeliveryDate = u.ProbableDeliveryDate
			row.SetupMin = u.SetupMin
			row.InterLabelChangesMin = u.InterLabelChangesMin
			row.PrintMin = u.PrintMin
			row.BufferMin = u.BufferMin
			row.TotalMin = u.TotalMin
			row.UpdatedAt = time.Now()
		}
	}
	return true, nil
}

func sortQueueRows(rows []*domain.QueueRow) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j-1].ProductionOrder > rows[j].ProductionOrder; j-- {
			rows[j-1], rows[j] = rows[j], rows[j-1]
		}
	}
}

// rowID derives a synthetic queue row id from the store's monotonic
// counter.
func rowID(counter int64) int64 {
	return counter
}
