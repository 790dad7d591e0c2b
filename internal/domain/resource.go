package domain

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"weak"
)

// Resource is one record in the bipartite graph: a named, typed value slot
// that becomes available at most once per run and notifies its consumers
// when it does. The zero Resource is not usable; construct one with
// newResource.
type Resource struct {
	name string

	// typ is the element type captured at first registration. Every later
	// registration of this name, input or output, must agree with it.
	typ reflect.Type

	flags ResourceFlag

	// mu guards value and timeAvailable. available is an atomic.Bool that
	// is switched outside mu: signalAvailable sets it only after the value
	// has been stored, and ResetForNextRun clears it after clearing the
	// value.
	mu        sync.RWMutex
	value     any
	available atomic.Bool

	timeAvailable time.Time

	// producer is set by whichever ExecNode first registers this name as
	// an output. A weak pointer so a resource record never keeps its
	// producer node alive past the graph's own ownership of it.
	producer weak.Pointer[ExecNode]

	// consumers lists every ExecNode that registered this name as an
	// input; signalAvailable returns a copy of this slice for
	// Registry.notify to walk on availability.
	consumersMu sync.Mutex
	consumers   []weak.Pointer[ExecNode]
}

// newResource constructs a Resource record for name with the given element
// type and lifecycle flags. Graphs only ever hold Resources behind a
// pointer so weak.Make can target them.
func newResource(name string, typ reflect.Type, flags ResourceFlag) *Resource {
	return &Resource{
		name:  name,
		typ:   typ,
		flags: flags,
	}
}

// Name returns the resource's registered name.
func (r *Resource) Name() string { return r.name }

// Flags returns the resource's lifecycle policy.
func (r *Resource) Flags() ResourceFlag { return r.flags }

// Available reports whether the resource currently holds a value a
// consumer may read.
func (r *Resource) Available() bool { return r.available.Load() }

// TimeAvailable returns the timestamp of the resource's false→true
// transition in the current run (the first Set or MakeAvailable; later
// calls do not re-stamp it), or the zero time if the resource is not
// available.
func (r *Resource) TimeAvailable() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.timeAvailable
}

// get returns the current value and whether it is available. Nodes read
// through the generic InputHandle[T].Get in handle.go rather than this
// directly.
func (r *Resource) get() (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.available.Load()
}

// Value returns the resource's current value and whether it is available,
// for callers outside domain that need to inspect a resource without going
// through a typed InputHandle — diagnostics, Graph.Print callers, and tests.
func (r *Resource) Value() (any, bool) { return r.get() }

// storeValue writes value into the resource's slot without touching
// availability. Used by OutputHandle.Set and OutputHandle.Emplace, which
// store and then separately (or immediately) call signalAvailable.
func (r *Resource) storeValue(value any) {
	r.mu.Lock()
	r.value = value
	r.mu.Unlock()
}

// signalAvailable performs the idempotent false→true availability
// transition: the first call stamps timeAvailable and returns the
// consumer set to notify; every later call (before the next
// ResetForNextRun) is a no-op and returns nil, matching make_available's
// "subsequent calls are no-ops" contract. It does not notify by itself:
// the caller (Registry.notify) decides when triggering those consumers is
// safe relative to its own locking.
func (r *Resource) signalAvailable(now time.Time) []weak.Pointer[ExecNode] {
	if !r.available.CompareAndSwap(false, true) {
		return nil
	}

	r.mu.Lock()
	r.timeAvailable = now
	r.mu.Unlock()

	r.consumersMu.Lock()
	defer r.consumersMu.Unlock()
	out := make([]weak.Pointer[ExecNode], len(r.consumers))
	copy(out, r.consumers)
	return out
}

// ResetForNextRun clears the value and availability of a Resetable
// resource. Called by Graph.Reset; never called for a Permanent resource.
func (r *Resource) ResetForNextRun() {
	r.mu.Lock()
	r.value = nil
	r.timeAvailable = time.Time{}
	r.mu.Unlock()
	r.available.Store(false)
}

// addConsumer records node as a consumer of this resource, so its
// availability makes Registry.notify check whether node can now run.
func (r *Resource) addConsumer(node *ExecNode) {
	r.consumersMu.Lock()
	defer r.consumersMu.Unlock()
	r.consumers = append(r.consumers, weak.Make(node))
}

// setProducer records node as this resource's sole producer. Callers must
// have already checked that no other producer is registered.
func (r *Resource) setProducer(node *ExecNode) {
	r.producer = weak.Make(node)
}

// hasProducer reports whether a producer is registered and still live.
func (r *Resource) hasProducer() bool {
	return r.producer.Value() != nil
}
