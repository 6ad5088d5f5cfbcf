package scheduling

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/pinggolf/m3-planning-tools/internal/calendar"
	"github.com/pinggolf/m3-planning-tools/internal/costmodel"
	"github.com/pinggolf/m3-planning-tools/internal/datecalc"
	"github.com/pinggolf/m3-planning-tools/internal/domain"
	"github.com/pinggolf/m3-planning-tools/internal/events"
	"github.com/pinggolf/m3-planning-tools/internal/ga"
	"github.com/pinggolf/m3-planning-tools/internal/planner"
	"github.com/pinggolf/m3-planning-tools/internal/priority"
	"github.com/pinggolf/m3-planning-tools/internal/store"
)

// Service wires the store port, the genetic sequencer, the
// reassignment planner, and the date calculator into the four
// use-cases a caller can invoke.
type Service struct {
	store     store.Store
	publisher *events.Publisher

	cal         *calendar.Calendar
	costWeights costmodel.Weights
	gaWeights   ga.Weights
	gaParams    ga.Params

	allMachinesGenerations int
}

// New builds a Service. cal, costWeights, gaWeights and gaParams are
// normally sourced from config.Config.
func New(s store.Store, publisher *events.Publisher, cal *calendar.Calendar, costWeights costmodel.Weights, gaWeights ga.Weights, gaParams ga.Params, allMachinesGenerations int) *Service {
	return &Service{
		store:                  s,
		publisher:              publisher,
		cal:                    cal,
		costWeights:            costWeights,
		gaWeights:              gaWeights,
		gaParams:               gaParams,
		allMachinesGenerations: allMachinesGenerations,
	}
}

// GenerateOptimalSchedule sequences machineRef's schedulable orders with
// the genetic optimizer, computes probable delivery dates, and
// overwrites the machine's production queue (spec §4.I, use-case 1).
// machineRef is resolved as a numeric id, machine name, or pseudonym.
func (s *Service) GenerateOptimalSchedule(ctx context.Context, machineRef string) Result {
	const action = "generate_optimal_schedule"

	machine, err := s.resolveMachineRef(ctx, machineRef)
	if err != nil {
		return fail(action, err.Error())
	}
	if machine == nil {
		return fail(action, fmt.Sprintf("machine %q not found", machineRef))
	}
	if !machine.IsActive() {
		return fail(action, fmt.Sprintf("machine %d is not active", machine.ID))
	}

	orders, err := s.store.GetSchedulableOrdersForMachine(ctx, machine.ID)
	if err != nil {
		return fail(action, fmt.Sprintf("loading orders for machine %d: %v", machine.ID, err))
	}

	rows, err := s.sequenceAndDecompose(machine, orders)
	if err != nil {
		return fail(action, err.Error())
	}

	if _, err := s.store.OverwriteMachineSchedule(ctx, machine.ID, rows); err != nil {
		return fail(action, fmt.Sprintf("persisting schedule for machine %d: %v", machine.ID, err))
	}

	if s.publisher != nil {
		s.publisher.PublishScheduleUpdated(machine.ID, len(rows))
	}

	return ok(action, fmt.Sprintf("scheduled %d orders on machine %d", len(rows), machine.ID), map[string]interface{}{
		"machine_id":     machine.ID,
		"orders_planned": len(rows),
	})
}

// resolveMachineRef resolves a machine reference that may be a numeric
// id, a machine name, or a pseudonym (spec §4.I, use-cases 1 and 4).
func (s *Service) resolveMachineRef(ctx context.Context, ref string) (*domain.Machine, error) {
	if id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64); err == nil {
		machine, err := s.store.GetMachineByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading machine %d: %w", id, err)
		}
		return machine, nil
	}

	machine, err := s.store.GetMachineByNameOrPseudonym(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("loading machine %q: %w", ref, err)
	}
	return machine, nil
}

// GenerateOptimalScheduleAllMachines reassigns orders across compatible
// machines (capacity relief, then load balancing) before sequencing
// each machine independently with a longer-running GA (spec §4.I,
// use-case 2). The contract forbids a partial run: reoptimize must be
// true, since the whole point of the all-machines use-case is to
// reassign and resequence together; a caller asking for anything less
// is refused outright.
func (s *Service) GenerateOptimalScheduleAllMachines(ctx context.Context, reoptimize bool) Result {
	const action = "generate_optimal_schedule_all_machines"

	if !reoptimize {
		return fail(action, "generate_optimal_schedule_all_machines requires reoptimize=true; partial runs are not supported")
	}

	machines, err := s.store.GetAllMachineStatus(ctx)
	if err != nil {
		return fail(action, fmt.Sprintf("loading machines: %v", err))
	}

	var active []*domain.Machine
	for _, m := range machines {
		if m.IsActive() {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		return fail(action, "no active machines")
	}

	allOrders, err := s.store.GetSchedulableOrdersForAllMachines(ctx)
	if err != nil {
		return fail(action, fmt.Sprintf("loading schedulable orders: %v", err))
	}

	ordersByMachine := map[int64][]*domain.Order{}
	for _, m := range active {
		ordersByMachine[m.ID] = nil
	}
	for _, o := range allOrders {
		if _, tracked := ordersByMachine[o.MachineID]; tracked {
			ordersByMachine[o.MachineID] = append(ordersByMachine[o.MachineID], o)
		}
	}

	graph := planner.BuildCompatibilityGraph(active)
	reassignments := planner.Reassign(ordersByMachine, active, graph)

	params := s.gaParams
	params.Generations = s.allMachinesGenerations

	totalPlanned := 0
	for _, machine := range active {
		orders := ordersByMachine[machine.ID]
		rows, err := s.sequenceAndDecomposeWithParams(machine, orders, params)
		if err != nil {
			return fail(action, fmt.Sprintf("machine %d: %v", machine.ID, err))
		}
		if _, err := s.store.OverwriteMachineSchedule(ctx, machine.ID, rows); err != nil {
			return fail(action, fmt.Sprintf("persisting schedule for machine %d: %v", machine.ID, err))
		}
		totalPlanned += len(rows)
	}

	if s.publisher != nil {
		s.publisher.PublishAllMachinesUpdated(totalPlanned)
	}

	return ok(action, fmt.Sprintf("replanned %d machines, %d orders, %d reassignments", len(active), totalPlanned, len(reassignments)), map[string]interface{}{
		"machines_planned": len(active),
		"orders_planned":   totalPlanned,
		"reassignments":    len(reassignments),
	})
}

// PrioritizeOrder bumps orderID to the front of its machine's current
// queue. When reoptimize is true, every other order in the queue is
// re-sequenced by the genetic optimizer behind it. Each call builds a
// fresh priority.Manager, so locks from earlier calls do not carry over
// (spec §4.I, use-case 3, spec §4.G).
func (s *Service) PrioritizeOrder(ctx context.Context, orderID int64, reoptimize bool) Result {
	const action = "prioritize_pedido"

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return fail(action, fmt.Sprintf("loading order %d: %v", orderID, err))
	}
	if order == nil {
		return fail(action, fmt.Sprintf("order %d not found", orderID))
	}

	machine, err := s.store.GetMachineByID(ctx, order.MachineID)
	if err != nil {
		return fail(action, fmt.Sprintf("loading machine %d: %v", order.MachineID, err))
	}
	if machine == nil {
		return fail(action, fmt.Sprintf("machine %d not found", order.MachineID))
	}

	queueRows, err := s.store.GetProductionQueueForMachine(ctx, machine.ID)
	if err != nil {
		return fail(action, fmt.Sprintf("loading queue for machine %d: %v", machine.ID, err))
	}
	sequence := make([]int64, len(queueRows))
	for i, row := range queueRows {
		sequence[i] = row.OrderID
	}

	orders, err := s.store.GetSchedulableOrdersForMachine(ctx, machine.ID)
	if err != nil {
		return fail(action, fmt.Sprintf("loading orders for machine %d: %v", machine.ID, err))
	}
	ordersByID := make(map[int64]*domain.Order, len(orders))
	for _, o := range orders {
		ordersByID[o.ID] = o
	}

	mgr := priority.New(sequence, ordersByID, machine)
	if reoptimize {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		mgr.PrioritizeWithReoptimize(orderID, s.gaParams, s.gaWeights, s.costWeights, rng)
	} else {
		mgr.PrioritizeWithoutReoptimize(orderID)
	}

	orderedOrders := make([]*domain.Order, 0, len(mgr.Sequence))
	for _, id := range mgr.Sequence {
		if o, found := ordersByID[id]; found {
			orderedOrders = append(orderedOrders, o)
		}
	}

	rows := s.decompose(machine, orderedOrders, "priority reassignment")
	if _, err := s.store.OverwriteMachineSchedule(ctx, machine.ID, rows); err != nil {
		return fail(action, fmt.Sprintf("persisting schedule for machine %d: %v", machine.ID, err))
	}

	if s.publisher != nil {
		s.publisher.PublishScheduleUpdated(machine.ID, len(rows))
	}

	return ok(action, fmt.Sprintf("order %d prioritized on machine %d", orderID, machine.ID), map[string]interface{}{
		"machine_id": machine.ID,
		"order_id":   orderID,
		"reoptimize": reoptimize,
	})
}

// RecalculateDeliveryDates recomputes probable delivery dates for
// machineRef's current production order (its stored sequence) without
// reordering, and persists only the date/time-decomposition columns
// (spec §4.I, use-case 4). machineRef is resolved as a numeric id,
// machine name, or pseudonym.
func (s *Service) RecalculateDeliveryDates(ctx context.Context, machineRef string) Result {
	const action = "recalculate_delivery_dates"

	machine, err := s.resolveMachineRef(ctx, machineRef)
	if err != nil {
		return fail(action, err.Error())
	}
	if machine == nil {
		return fail(action, fmt.Sprintf("machine %q not found", machineRef))
	}
	machineID := machine.ID

	orders, err := s.store.GetSchedulableOrdersByIDs(ctx, machineID)
	if err != nil {
		return fail(action, fmt.Sprintf("loading ordered queue for machine %d: %v", machineID, err))
	}

	rows, err := s.store.GetProductionQueueForMachine(ctx, machineID)
	if err != nil {
		return fail(action, fmt.Sprintf("loading queue rows for machine %d: %v", machineID, err))
	}
	rowByOrderID := make(map[int64]int64, len(rows))
	for _, r := range rows {
		rowByOrderID[r.OrderID] = r.QueueRowID
	}

	calc := datecalc.New(s.cal, s.costWeights)
	scheduled := calc.Compute(orders, time.Now(), machine)

	updates := make([]domain.QueueDateUpdate, 0, len(scheduled))
	for _, sc := range scheduled {
		rowID, found := rowByOrderID[sc.Order.ID]
		if !found {
			continue
		}
		updates = append(updates, domain.QueueDateUpdate{
			QueueRowID:           rowID,
			ProbableDeliveryDate: sc.ProbableDeliveryDate,
			SetupMin:             sc.SetupMin,
			InterLabelChangesMin: sc.InterLabelChangesMin,
			PrintMin:             sc.PrintMin,
			BufferMin:            sc.BufferMin,
			TotalMin:             sc.TotalMin,
		})
	}

	if _, err := s.store.UpdateQueueDatesAndTimes(ctx, updates); err != nil {
		return fail(action, fmt.Sprintf("persisting dates for machine %d: %v", machineID, err))
	}

	if s.publisher != nil {
		s.publisher.PublishScheduleRecalculated(machineID, len(updates))
	}

	return ok(action, fmt.Sprintf("recalculated %d dates on machine %d", len(updates), machineID), map[string]interface{}{
		"machine_id":          machineID,
		"orders_recalculated": len(updates),
	})
}

// sequenceAndDecompose runs the GA with the service's default
// single-machine parameters.
func (s *Service) sequenceAndDecompose(machine *domain.Machine, orders []*domain.Order) ([]*domain.QueueRow, error) {
	return s.sequenceAndDecomposeWithParams(machine, orders, s.gaParams)
}

func (s *Service) sequenceAndDecomposeWithParams(machine *domain.Machine, orders []*domain.Order, params ga.Params) ([]*domain.QueueRow, error) {
	forced, free := partitionForced(orders)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	seq := ga.NewSequencer(free, machine, s.gaWeights, s.costWeights, rng)
	freeSequence := seq.Optimize(params)

	freeByID := make(map[int64]*domain.Order, len(free))
	for _, o := range free {
		freeByID[o.ID] = o
	}

	ordered := make([]*domain.Order, 0, len(orders))
	for _, o := range forced {
		ordered = append(ordered, o)
	}
	for _, id := range freeSequence {
		if o, found := freeByID[id]; found {
			ordered = append(ordered, o)
		}
	}

	log.Printf("scheduling: machine %d: %d forced orders, %d optimized orders", machine.ID, len(forced), len(free))
	head := freeSequence
	if len(head) > 10 {
		head = head[:10]
	}
	log.Printf("scheduling: machine %d: first optimized order ids: %v", machine.ID, head)

	return s.decompose(machine, ordered, "optimized"), nil
}

// decompose runs the date calculator over ordered and returns the
// persisted queue rows, in order, with a dense 1-based production_order
// rank.
func (s *Service) decompose(machine *domain.Machine, ordered []*domain.Order, reason string) []*domain.QueueRow {
	calc := datecalc.New(s.cal, s.costWeights)
	scheduled := calc.Compute(ordered, time.Now(), machine)

	rows := make([]*domain.QueueRow, len(scheduled))
	for i, sc := range scheduled {
		rows[i] = &domain.QueueRow{
			OrderID:              sc.Order.ID,
			MachineID:            machine.ID,
			ProductionOrder:      i + 1,
			Reason:               reason,
			ProbableDeliveryDate: sc.ProbableDeliveryDate,
			SetupMin:             sc.SetupMin,
			InterLabelChangesMin: sc.InterLabelChangesMin,
			PrintMin:             sc.PrintMin,
			BufferMin:            sc.BufferMin,
			TotalMin:             sc.TotalMin,
		}
	}
	return rows
}

// partitionForced splits orders into forced (kept in ascending
// forced-delivery-date order, never reordered by the optimizer) and
// free (candidates for the genetic sequencer).
func partitionForced(orders []*domain.Order) (forced, free []*domain.Order) {
	for _, o := range orders {
		if o.IsForced() {
			forced = append(forced, o)
		} else {
			free = append(free, o)
		}
	}
	for i := 1; i < len(forced); i++ {
		for j := i; j > 0 && forced[j-1].ForcedDeliveryDate.After(*forced[j].ForcedDeliveryDate); j-- {
			forced[j-1], forced[j] = forced[j], forced[j-1]
		}
	}
	return forced, free
}
