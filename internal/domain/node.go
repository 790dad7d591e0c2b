package domain

import (
	"reflect"
	"sync"
	"time"
)

// Node is the contract a pluggable unit of work implements to join a
// graph. Declare runs once, while the graph is being built: self is the
// node's own identity, freshly constructed, and reg is the graph's
// resource table. A Declare implementation calls RegisterInput/
// RegisterOutput with self to register its required inputs and produced
// outputs, typically storing the returned handles on the Node itself for
// Run to use later. Run is the node's RunFunc body, invoked at most once
// per schedule once every declared input is available.
type Node interface {
	Declare(self *ExecNode, reg *Registry) error
	Run() error
}

// Registry is the per-graph table of named Resource records. A Graph owns
// exactly one Registry and hands it to each Node's Declare method so
// nodes can register inputs and outputs without the graph exposing its
// internal node map.
type Registry struct {
	mu        sync.Mutex
	resources map[string]*Resource

	// onReady is invoked whenever a resource becoming available leaves one
	// of its consumers able to run. Set by the owning Graph so scheduling
	// policy lives in application, not domain.
	onReady func(*ExecNode)
}

// NewRegistry constructs a Registry. onReady is called with every
// consumer node that becomes executable as a side effect of a resource
// publish; it may be nil in tests that only exercise registration.
func NewRegistry(onReady func(*ExecNode)) *Registry {
	return &Registry{
		resources: make(map[string]*Resource),
		onReady:   onReady,
	}
}

// resolve returns the named resource, creating it on first reference. The
// first call to resolve a given name fixes its type and flags; every
// later call, whether from RegisterInput or RegisterOutput, must agree
// with both or resolve returns a typed mismatch error.
func (reg *Registry) resolve(name string, typ reflect.Type, flags ResourceFlag) (*Resource, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.resources[name]
	if !ok {
		r = newResource(name, typ, flags)
		reg.resources[name] = r
		return r, nil
	}
	if r.typ != typ {
		return nil, &TypeMismatchError{Name: name, Existing: r.typ.String(), Wanted: typ.String()}
	}
	if r.flags != flags {
		return nil, &FlagMismatchError{Name: name, Existing: r.flags, Wanted: flags}
	}
	return r, nil
}

// publish stores value in r and then signals availability, the combined
// store-and-publish behavior of OutputHandle.Set.
func (reg *Registry) publish(r *Resource, value any) {
	r.storeValue(value)
	reg.notify(r)
}

// notify performs r's idempotent availability transition and, for every
// consumer left executable by that change, invokes the registry's onReady
// hook. A repeat call on an already-available resource is a no-op, since
// signalAvailable returns no consumers to walk. Called by
// OutputHandle.Set (via publish) and directly by OutputHandle.MakeAvailable.
func (reg *Registry) notify(r *Resource) {
	consumers := r.signalAvailable(time.Now())
	for _, wp := range consumers {
		node := wp.Value()
		if node == nil {
			continue
		}
		if node.CanExecute() && reg.onReady != nil {
			reg.onReady(node)
		}
	}
}

// Lookup returns the named resource and whether it has been registered.
// Used by Graph.GetResource and by tests that need to inspect resource
// state directly.
func (reg *Registry) Lookup(name string) (*Resource, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.resources[name]
	return r, ok
}

// Resources returns every resource currently registered, in no particular
// order. Used by Graph.Reset and Graph.Print.
func (reg *Registry) Resources() []*Resource {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]*Resource, 0, len(reg.resources))
	for _, r := range reg.resources {
		out = append(out, r)
	}
	return out
}

// NewExecNode constructs an ExecNode named name with the given node flags
// and run body. Exported for Graph, which owns the node's identity and
// lifetime; domain.Node implementations never construct an ExecNode
// directly.
func NewExecNode(name string, flags NodeFlag, run RunFunc) *ExecNode {
	return newExecNode(name, flags, run)
}
