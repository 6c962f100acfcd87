package node

import "fmt"

// UnknownTypeError reports a registry lookup for an unregistered node
// type.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown node type %q", e.Type)
}

// MissingInputError reports a required input port with no usable
// buffer during Process.
type MissingInputError struct {
	Port string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing required input port %q", e.Port)
}

// OutputBufferError reports an output port whose buffer was not
// allocated before Process.
type OutputBufferError struct {
	Port string
}

func (e *OutputBufferError) Error() string {
	return fmt.Sprintf("output buffer for port %q not allocated", e.Port)
}

// ProcessError wraps a failure inside a node's Process call with the
// failing node's identity. The engine isolates it to the node and the
// block; it never aborts the stream.
type ProcessError struct {
	NodeName string
	NodeType string
	Err      error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process %s node %q: %v", e.NodeType, e.NodeName, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
