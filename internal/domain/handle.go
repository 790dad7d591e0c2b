package domain

import (
	"fmt"
	"reflect"
	"weak"
)

// InputHandle is a type-safe, read-only reference to a resource a node
// declared as a required input. It is the Go-generic rendition of the
// original's in_resource<T>: a node's Run body calls Get to read the
// current value once the node has been scheduled (and is therefore
// guaranteed the resource is available).
type InputHandle[T any] struct {
	resource weak.Pointer[Resource]
}

// Get returns the resource's current value. It returns ErrUnavailableRead
// if called before the resource is available, rather than panicking — a
// usage error a caller can check and propagate like any other error, the
// same way a node's Run body already propagates a body failure.
func (h InputHandle[T]) Get() (T, error) {
	var zero T
	r := h.resource.Value()
	if r == nil {
		return zero, fmt.Errorf("domain: input resource no longer exists: %w", ErrUnavailableRead)
	}
	v, ok := r.get()
	if !ok {
		return zero, fmt.Errorf("domain: resource %q: %w", r.Name(), ErrUnavailableRead)
	}
	return v.(T), nil
}

// OutputHandle is a type-safe, write-only reference to a resource a node
// declared as a produced output. The Go-generic rendition of the
// original's out_resource<T>.
type OutputHandle[T any] struct {
	resource weak.Pointer[Resource]
	reg      *Registry
}

func (h OutputHandle[T]) resolve() *Resource {
	r := h.resource.Value()
	if r == nil {
		panic("domain: output resource no longer exists")
	}
	return r
}

// Set stores value and makes the resource available, triggering every
// registered consumer. A node's Run body calls Set for every output it
// declared; an output left unset when Run returns surfaces as a
// MissingProducerError from the owning graph. Set is equivalent to
// storing value via Emplace and immediately calling MakeAvailable.
func (h OutputHandle[T]) Set(value T) {
	h.reg.publish(h.resolve(), value)
}

// Emplace constructs a value with construct and stores it into the
// resource's slot without making it available. A node's Run body pairs
// Emplace with a later MakeAvailable call when it needs to finish
// constructing a value before announcing it, rather than computing the
// whole value up front the way Set requires.
func (h OutputHandle[T]) Emplace(construct func() T) {
	h.resolve().storeValue(construct())
}

// MakeAvailable publishes whatever value is currently stored in the
// resource, notifying every registered consumer. It is idempotent: the
// first call within a run performs the false→true transition and
// notification; every later call before the next Graph.Reset is a no-op,
// matching make_available's round-trip contract.
func (h OutputHandle[T]) MakeAvailable() {
	h.reg.notify(h.resolve())
}

// RegisterOutput declares that node produces the named resource with
// element type T and the given lifecycle flags, and returns a handle the
// node's Run body uses to publish the value. It is an error to register
// the same name as an output twice, or to register it with a type or
// flags that conflict with an earlier registration (as either an input or
// an output).
func RegisterOutput[T any](reg *Registry, node *ExecNode, name string, flags ResourceFlag) (OutputHandle[T], error) {
	var zero OutputHandle[T]
	typ := reflect.TypeFor[T]()

	r, err := reg.resolve(name, typ, flags)
	if err != nil {
		return zero, err
	}
	if r.hasProducer() {
		return zero, ErrProducerConflict
	}
	r.setProducer(node)
	node.addProduced(r)

	return OutputHandle[T]{resource: weak.Make(r), reg: reg}, nil
}

// RegisterInput declares that node requires the named resource with
// element type T, and returns a handle the node's Run body uses to read
// the value. It is an error to register a name with a type or flags that
// conflict with an earlier registration.
func RegisterInput[T any](reg *Registry, node *ExecNode, name string, flags ResourceFlag) (InputHandle[T], error) {
	var zero InputHandle[T]
	typ := reflect.TypeFor[T]()

	r, err := reg.resolve(name, typ, flags)
	if err != nil {
		return zero, err
	}
	r.addConsumer(node)
	node.addRequired(r)

	return InputHandle[T]{resource: weak.Make(r)}, nil
}
