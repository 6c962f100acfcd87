package graph

import "github.com/google/uuid"

// sortTopological orders nodes so that every connection's source
// precedes its target. Nodes with no incoming connections (generators)
// come first. Ties are broken by stable insertion order, keeping the
// result deterministic across runs with identical input.
//
// Returns a *CycleError naming the unresolved nodes when no such order
// exists; the caller must then reject the mutation that produced the
// edge set.
func sortTopological(insertion []uuid.UUID, conns []Connection) ([]uuid.UUID, error) {
	indegree := make(map[uuid.UUID]int, len(insertion))
	for _, id := range insertion {
		indegree[id] = 0
	}
	for _, c := range conns {
		indegree[c.TargetNode]++
	}

	order := make([]uuid.UUID, 0, len(insertion))
	emitted := make(map[uuid.UUID]bool, len(insertion))

	// Each round selects the earliest-inserted node whose remaining
	// in-degree is zero. Graphs stay small, so the quadratic scan is
	// cheaper than maintaining a priority structure and gives the
	// documented tie-break exactly.
	for len(order) < len(insertion) {
		picked := false
		for _, id := range insertion {
			if emitted[id] || indegree[id] != 0 {
				continue
			}
			emitted[id] = true
			order = append(order, id)
			for _, c := range conns {
				if c.SourceNode == id {
					indegree[c.TargetNode]--
				}
			}
			picked = true
			break
		}
		if !picked {
			var cycle []uuid.UUID
			for _, id := range insertion {
				if !emitted[id] {
					cycle = append(cycle, id)
				}
			}
			return nil, &CycleError{Nodes: cycle}
		}
	}

	return order, nil
}
