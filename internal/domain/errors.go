package domain

import (
	"errors"
	"fmt"
)

// Common engine errors that callers can compare against with errors.Is.
var (
	// ErrUnavailableRead indicates a consumer called Get on a resource
	// before its producer marked it available.
	ErrUnavailableRead = errors.New("resource not available")

	// ErrTypeMismatch indicates a resource name was re-registered with an
	// element type that differs from its first registration.
	ErrTypeMismatch = errors.New("resource registered with a different type")

	// ErrFlagMismatch indicates a resource name was re-registered with
	// lifecycle flags that differ from its first registration.
	ErrFlagMismatch = errors.New("resource registered with different flags")

	// ErrProducerConflict indicates a resource already has a producer and
	// a second node attempted to register it as an output.
	ErrProducerConflict = errors.New("resource already has a producer")

	// ErrMissingProducer indicates a node's run returned without making
	// one of its declared outputs available.
	ErrMissingProducer = errors.New("node failed to produce a declared resource")

	// ErrOneshotWithResetable indicates an execute-once node declared a
	// produced resource that is not Permanent.
	ErrOneshotWithResetable = errors.New("oneshot node produces a non-permanent resource")

	// ErrCycleDetected indicates the declared edges of the graph do not
	// form a DAG.
	ErrCycleDetected = errors.New("graph contains a cycle")

	// ErrDuplicateNode indicates a node with this name already exists in
	// the graph.
	ErrDuplicateNode = errors.New("node already exists in graph")

	// ErrUnknownResource indicates a lookup for a resource name that was
	// never registered.
	ErrUnknownResource = errors.New("unknown resource")
)

// TypeMismatchError reports the resource name and the conflicting types
// involved in a failed registration.
type TypeMismatchError struct {
	Name     string
	Existing string
	Wanted   string
}

// Error implements the error interface for TypeMismatchError.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("resource %q: registered as %s, wanted %s", e.Name, e.Existing, e.Wanted)
}

// Unwrap supports errors.Is(err, ErrTypeMismatch).
func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// FlagMismatchError reports the resource name and the conflicting flags
// involved in a failed registration.
type FlagMismatchError struct {
	Name     string
	Existing ResourceFlag
	Wanted   ResourceFlag
}

// Error implements the error interface for FlagMismatchError.
func (e *FlagMismatchError) Error() string {
	return fmt.Sprintf("resource %q: registered with flags=%s, wanted flags=%s", e.Name, e.Existing, e.Wanted)
}

// Unwrap supports errors.Is(err, ErrFlagMismatch).
func (e *FlagMismatchError) Unwrap() error { return ErrFlagMismatch }

// MissingProducerError reports which node and resource failed to satisfy
// the produced-must-be-available postcondition.
type MissingProducerError struct {
	Node     string
	Resource string
}

// Error implements the error interface for MissingProducerError.
func (e *MissingProducerError) Error() string {
	return fmt.Sprintf("node %q did not make resource %q available", e.Node, e.Resource)
}

// Unwrap supports errors.Is(err, ErrMissingProducer).
func (e *MissingProducerError) Unwrap() error { return ErrMissingProducer }

// OneshotWithResetableError reports the oneshot node and the offending
// non-permanent resource it declared as output.
type OneshotWithResetableError struct {
	Node     string
	Resource string
}

// Error implements the error interface for OneshotWithResetableError.
func (e *OneshotWithResetableError) Error() string {
	return fmt.Sprintf("oneshot node %q produces non-permanent resource %q", e.Node, e.Resource)
}

// Unwrap supports errors.Is(err, ErrOneshotWithResetable).
func (e *OneshotWithResetableError) Unwrap() error { return ErrOneshotWithResetable }

// CycleDetectedError reports a cycle found while validating a graph's
// edges. Path lists, sorted by name, every node that could not be ordered:
// the nodes on a cycle and any node downstream of one.
type CycleDetectedError struct {
	Path []string
}

// Error implements the error interface for CycleDetectedError.
func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected: %v", e.Path)
}

// Unwrap supports errors.Is(err, ErrCycleDetected).
func (e *CycleDetectedError) Unwrap() error { return ErrCycleDetected }
