// Package planner implements the multi-machine re-assignment planner
// (spec §4.H): it builds the machine compatibility graph and
// redistributes orders across compatible machines in two phases —
// capacity relief, then load balancing — before per-machine sequencing.
package planner

import (
	"encoding/json"
	"log"
	"sort"

	"github.com/pinggolf/m3-planning-tools/internal/domain"
)

// Graph is the undirected machine-compatibility graph: machine id ->
// set of compatible machine ids.
type Graph map[int64]map[int64]struct{}

// BuildCompatibilityGraph parses each machine's declared ShareRolls
// field and materializes the symmetric closure: for every declared
// edge A->B, also add B->A. Self-loops are removed.
func BuildCompatibilityGraph(machines []*domain.Machine) Graph {
	graph := make(Graph, len(machines))
	for _, m := range machines {
		graph[m.ID] = map[int64]struct{}{}
	}

	for _, m := range machines {
		for _, compID := range m.ShareRolls {
			if _, ok := graph[compID]; !ok {
				continue
			}
			graph[m.ID][compID] = struct{}{}
			graph[compID][m.ID] = struct{}{}
		}
	}

	for id, edges := range graph {
		delete(edges, id)
	}

	return graph
}

// Reassignment describes one order move decided by the planner.
type Reassignment struct {
	OrderID     int64
	FromMachine int64
	ToMachine   int64
	Reason      string
}

const (
	capacityLoadCeiling   = 50
	balanceLoadThreshold  = 20
	balanceMinGap         = 5
)

func numColors(order *domain.Order) int {
	enriched := enrichedColors(order)
	return len(enriched)
}

// enrichedColors returns the order's color tokens, tolerating malformed
// or missing JSON by treating it as empty (c = 0).
func enrichedColors(order *domain.Order) map[string]struct{} {
	colors := map[string]struct{}{}
	if order.ColorsJSON == "" {
		return colors
	}
	var raw []string
	if err := json.Unmarshal([]byte(order.ColorsJSON), &raw); err == nil {
		for _, c := range raw {
			colors[c] = struct{}{}
		}
	}
	return colors
}

// Reassign runs Phase 1 (capacity relief, mandatory) then Phase 2
// (load balancing, best-effort) over ordersByMachine, mutating it in
// place and returning the list of moves applied. No order is moved
// more than once.
func Reassign(ordersByMachine map[int64][]*domain.Order, machines []*domain.Machine, graph Graph) []Reassignment {
	machinesByID := make(map[int64]*domain.Machine, len(machines))
	for _, m := range machines {
		machinesByID[m.ID] = m
	}

	loads := make(map[int64]int, len(ordersByMachine))
	for id, orders := range ordersByMachine {
		loads[id] = len(orders)
	}

	moved := map[int64]struct{}{}
	var reassignments []Reassignment

	// --- Phase 1: capacity relief ---
	for machineID, orders := range ordersByMachine {
		machine := machinesByID[machineID]
		if machine == nil {
			continue
		}
		neighbors := graph[machineID]
		if len(neighbors) == 0 {
			continue
		}
		functionalCurrent := machine.EffectiveFunctionalInks()

		for _, order := range append([]*domain.Order(nil), orders...) {
			if _, done := moved[order.ID]; done {
				continue
			}
			c := numColors(order)
			if c <= functionalCurrent {
				continue
			}

			var best int64
			bestCapacity := functionalCurrent
			for neighborID := range neighbors {
				neighbor := machinesByID[neighborID]
				if neighbor == nil {
					continue
				}
				neighborInks := neighbor.EffectiveFunctionalInks()
				if c <= neighborInks && neighborInks > bestCapacity {
					if loads[neighborID] < capacityLoadCeiling {
						bestCapacity = neighborInks
						best = neighborID
					}
				}
			}

			if best != 0 {
				ordersByMachine[machineID] = removeOrder(ordersByMachine[machineID], order.ID)
				ordersByMachine[best] = append(ordersByMachine[best], order)
				moved[order.ID] = struct{}{}
				loads[machineID]--
				loads[best]++
				reassignments = append(reassignments, Reassignment{
					OrderID:     order.ID,
					FromMachine: machineID,
					ToMachine:   best,
					Reason:      "capacity relief: order exceeds functional ink capacity",
				})
			}
		}
	}

	// --- Phase 2: load balancing ---
	machineIDs := make([]int64, 0, len(loads))
	for id := range loads {
		machineIDs = append(machineIDs, id)
	}
	sort.Slice(machineIDs, func(i, j int) bool { return loads[machineIDs[i]] > loads[machineIDs[j]] })

	for _, machineID := range machineIDs {
		load := loads[machineID]
		if load <= balanceLoadThreshold {
			continue
		}
		machine := machinesByID[machineID]
		if machine == nil {
			continue
		}
		neighbors := graph[machineID]
		if len(neighbors) == 0 {
			continue
		}

		maxMoves := load * 3 / 10
		if ceiling := load - 15; maxMoves > ceiling {
			maxMoves = ceiling
		}
		movedFromThisMachine := 0

		for _, order := range append([]*domain.Order(nil), ordersByMachine[machineID]...) {
			if movedFromThisMachine >= maxMoves {
				break
			}
			if _, done := moved[order.ID]; done {
				continue
			}
			c := numColors(order)

			var bestTarget int64
			minLoad := loads[machineID]
			for neighborID := range neighbors {
				neighbor := machinesByID[neighborID]
				if neighbor == nil {
					continue
				}
				neighborInks := neighbor.EffectiveFunctionalInks()
				neighborLoad := loads[neighborID]
				if c <= neighborInks && neighborLoad < minLoad && (loads[machineID]-neighborLoad) >= balanceMinGap {
					minLoad = neighborLoad
					bestTarget = neighborID
				}
			}

			if bestTarget != 0 {
				ordersByMachine[machineID] = removeOrder(ordersByMachine[machineID], order.ID)
				ordersByMachine[bestTarget] = append(ordersByMachine[bestTarget], order)
				moved[order.ID] = struct{}{}
				loads[machineID]--
				loads[bestTarget]++
				movedFromThisMachine++
				reassignments = append(reassignments, Reassignment{
					OrderID:     order.ID,
					FromMachine: machineID,
					ToMachine:   bestTarget,
					Reason:      "load balancing",
				})
			}
		}
	}

	log.Printf("planner: %d reassignments applied", len(reassignments))
	return reassignments
}

func removeOrder(orders []*domain.Order, orderID int64) []*domain.Order {
	out := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.ID != orderID {
			out = append(out, o)
		}
	}
	return out
}
