package graph

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func indexOf(order []uuid.UUID, id uuid.UUID) int {
	for i, candidate := range order {
		if candidate == id {
			return i
		}
	}
	return -1
}

func TestSortTopologicalChain(t *testing.T) {
	n := ids(3)
	conns := []Connection{
		{SourceNode: n[0], SourcePort: "out", TargetNode: n[1], TargetPort: "in"},
		{SourceNode: n[1], SourcePort: "out", TargetNode: n[2], TargetPort: "in"},
	}

	order, err := sortTopological(n, conns)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("order length = %d", len(order))
	}
	for _, c := range conns {
		if indexOf(order, c.SourceNode) >= indexOf(order, c.TargetNode) {
			t.Fatalf("source after target in %v", order)
		}
	}
}

func TestSortTopologicalSourcesBeforeTargets(t *testing.T) {
	// Diamond: a -> b, a -> c, b -> d, c -> d.
	n := ids(4)
	conns := []Connection{
		{SourceNode: n[0], TargetNode: n[1]},
		{SourceNode: n[0], TargetNode: n[2]},
		{SourceNode: n[1], TargetNode: n[3]},
		{SourceNode: n[2], TargetNode: n[3]},
	}

	order, err := sortTopological(n, conns)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	for _, c := range conns {
		src, dst := indexOf(order, c.SourceNode), indexOf(order, c.TargetNode)
		if src < 0 || dst < 0 || src >= dst {
			t.Fatalf("edge %v->%v violated in %v", c.SourceNode, c.TargetNode, order)
		}
	}
}

func TestSortTopologicalInsertionOrderTieBreak(t *testing.T) {
	// No edges at all: the order must equal insertion order.
	n := ids(5)

	order, err := sortTopological(n, nil)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	for i := range n {
		if order[i] != n[i] {
			t.Fatalf("tie-break broke insertion order: %v vs %v", order, n)
		}
	}
}

func TestSortTopologicalDeterministic(t *testing.T) {
	n := ids(6)
	conns := []Connection{
		{SourceNode: n[5], TargetNode: n[0]},
		{SourceNode: n[3], TargetNode: n[0]},
		{SourceNode: n[4], TargetNode: n[3]},
	}

	first, err := sortTopological(n, conns)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	for range 10 {
		again, err := sortTopological(n, conns)
		if err != nil {
			t.Fatalf("sort: %v", err)
		}
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("non-deterministic order: %v vs %v", first, again)
			}
		}
	}
}

func TestSortTopologicalCycle(t *testing.T) {
	n := ids(3)
	conns := []Connection{
		{SourceNode: n[0], TargetNode: n[1]},
		{SourceNode: n[1], TargetNode: n[2]},
		{SourceNode: n[2], TargetNode: n[0]},
	}

	_, err := sortTopological(n, conns)

	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if len(cycle.Nodes) != 3 {
		t.Fatalf("cycle nodes = %v, want all three", cycle.Nodes)
	}
}

func TestSortTopologicalPartialCycle(t *testing.T) {
	// One clean root feeding a two-node cycle: only the cycle members
	// are reported.
	n := ids(3)
	conns := []Connection{
		{SourceNode: n[0], TargetNode: n[1]},
		{SourceNode: n[1], TargetNode: n[2]},
		{SourceNode: n[2], TargetNode: n[1]},
	}

	_, err := sortTopological(n, conns)

	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if len(cycle.Nodes) != 2 {
		t.Fatalf("cycle nodes = %v, want the two cycle members", cycle.Nodes)
	}
	for _, id := range cycle.Nodes {
		if id == n[0] {
			t.Fatal("acyclic root reported as cycle member")
		}
	}
}

func TestSortTopologicalEmpty(t *testing.T) {
	order, err := sortTopological(nil, nil)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("order = %v, want empty", order)
	}
}
