// Package graph holds the topology side of the synthesizer: node
// descriptors with their declared ports and parameter snapshots,
// typed connections, and a deterministic topological processing order
// recomputed synchronously with every topology-changing mutation.
//
// The graph admits cycles structurally (connections are just edges);
// acyclicity is enforced procedurally, on every Connect, by running
// the scheduler against the candidate edge set and rejecting the
// mutation when it stalls. A successful mutation therefore always
// leaves a processing order that covers exactly the live nodes.
package graph
