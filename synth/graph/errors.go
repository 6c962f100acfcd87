package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeNotFoundError reports an operation on an id with no descriptor.
type NodeNotFoundError struct {
	ID uuid.UUID
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %s not found", e.ID)
}

// PortNotFoundError reports a connection endpoint naming a port the
// node does not declare in the required direction.
type PortNotFoundError struct {
	Node uuid.UUID
	Port string
}

func (e *PortNotFoundError) Error() string {
	return fmt.Sprintf("port %q not found on node %s", e.Port, e.Node)
}

// ConnectionError reports an invalid connection request.
type ConnectionError struct {
	Conn   Connection
	Reason string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect %s:%s to %s:%s: %s",
		e.Conn.SourceNode, e.Conn.SourcePort, e.Conn.TargetNode, e.Conn.TargetPort, e.Reason)
}

// ConnectionNotFoundError reports a disconnect whose exact 4-tuple does
// not exist.
type ConnectionNotFoundError struct {
	Conn Connection
}

func (e *ConnectionNotFoundError) Error() string {
	return fmt.Sprintf("connection %s:%s -> %s:%s not found",
		e.Conn.SourceNode, e.Conn.SourcePort, e.Conn.TargetNode, e.Conn.TargetPort)
}

// CycleError reports that a mutation would leave the connection graph
// cyclic. Nodes lists the ids still unresolved when the topological
// sort stalled, in insertion order.
type CycleError struct {
	Nodes []uuid.UUID
}

func (e *CycleError) Error() string {
	ids := make([]string, len(e.Nodes))
	for i, id := range e.Nodes {
		ids[i] = id.String()
	}
	return "circular dependency involving nodes: " + strings.Join(ids, ", ")
}
