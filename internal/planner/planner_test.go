package planner

import (
	"testing"

	"github.com/pinggolf/m3-planning-tools/internal/domain"
)

func TestBuildCompatibilityGraphIsSymmetric(t *testing.T) {
	machines := []*domain.Machine{
		{ID: 1, ShareRolls: []int64{2}}, // one-sided declaration
		{ID: 2},
		{ID: 3, ShareRolls: []int64{1, 2}},
	}
	graph := BuildCompatibilityGraph(machines)

	if _, ok := graph[2][1]; !ok {
		t.Errorf("graph[2] missing edge to 1, symmetric closure not applied")
	}
	if _, ok := graph[1][2]; !ok {
		t.Errorf("graph[1] missing edge to 2")
	}
	if _, ok := graph[1][3]; !ok {
		t.Errorf("graph[1] missing edge to 3 from 3's declaration")
	}
}

func TestBuildCompatibilityGraphNoSelfLoops(t *testing.T) {
	machines := []*domain.Machine{{ID: 1, ShareRolls: []int64{1}}}
	graph := BuildCompatibilityGraph(machines)
	if _, ok := graph[1][1]; ok {
		t.Errorf("graph[1] contains a self-loop")
	}
}

func overloadedMachine(id int64, shareRolls []int64) *domain.Machine {
	return &domain.Machine{ID: id, Inks: 4, FunctionalInks: 4, ShareRolls: shareRolls}
}

func colorOrder(id int64, n int) *domain.Order {
	colors := `["c1"`
	for i := 2; i <= n; i++ {
		colors += `,"c` + string(rune('0'+i)) + `"`
	}
	colors += `]`
	return &domain.Order{ID: id, ColorsJSON: colors}
}

func TestReassignPhase1MovesOrderExceedingCapacity(t *testing.T) {
	machines := []*domain.Machine{
		overloadedMachine(1, []int64{2}),
		overloadedMachine(2, []int64{1}),
	}
	machines[1].FunctionalInks = 8 // neighbor has more capacity

	ordersByMachine := map[int64][]*domain.Order{
		1: {colorOrder(100, 6)}, // exceeds machine 1's 4-ink capacity
		2: {},
	}

	graph := BuildCompatibilityGraph(machines)
	reassignments := Reassign(ordersByMachine, machines, graph)

	if len(reassignments) != 1 {
		t.Fatalf("Reassign applied %d moves, want 1", len(reassignments))
	}
	if reassignments[0].ToMachine != 2 {
		t.Errorf("order moved to machine %d, want 2", reassignments[0].ToMachine)
	}
	if len(ordersByMachine[1]) != 0 {
		t.Errorf("machine 1 still holds %d orders, want 0", len(ordersByMachine[1]))
	}
	if len(ordersByMachine[2]) != 1 {
		t.Errorf("machine 2 holds %d orders, want 1", len(ordersByMachine[2]))
	}
}

func TestReassignNeverMovesSameOrderTwice(t *testing.T) {
	machines := []*domain.Machine{
		overloadedMachine(1, []int64{2, 3}),
		overloadedMachine(2, []int64{1, 3}),
		overloadedMachine(3, []int64{1, 2}),
	}
	machines[1].FunctionalInks = 8
	machines[2].FunctionalInks = 8

	ordersByMachine := map[int64][]*domain.Order{
		1: {colorOrder(100, 6), colorOrder(101, 6)},
		2: {},
		3: {},
	}

	graph := BuildCompatibilityGraph(machines)
	reassignments := Reassign(ordersByMachine, machines, graph)

	seen := map[int64]int{}
	for _, r := range reassignments {
		seen[r.OrderID]++
	}
	for id, count := range seen {
		if count > 1 {
			t.Errorf("order %d was moved %d times, want at most 1", id, count)
		}
	}
}

func TestReassignWithNoNeighborsIsNoop(t *testing.T) {
	machines := []*domain.Machine{overloadedMachine(1, nil)}
	ordersByMachine := map[int64][]*domain.Order{1: {colorOrder(100, 6)}}
	graph := BuildCompatibilityGraph(machines)

	reassignments := Reassign(ordersByMachine, machines, graph)
	if len(reassignments) != 0 {
		t.Errorf("Reassign with isolated machine produced %d moves, want 0", len(reassignments))
	}
}
