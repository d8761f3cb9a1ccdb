// Package registry holds the test cases known to a test binary. Cases
// register themselves from init functions; the runner enumerates them in
// registration order.
package registry

import (
	"iter"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ngs-bits/tfw/assert"
)

// Method is a single test method of a case.
type Method struct {
	Name string
	Fn   func(t *assert.T)
}

// TestCase is a named, ordered collection of test methods.
type TestCase struct {
	name    string
	methods []Method
}

// NewTestCase creates an empty case. Methods are added with Add.
func NewTestCase(name string) *TestCase {
	return &TestCase{name: name}
}

// Add appends a method and returns the case so calls can be chained. Names
// are not validated here; the runner rejects empty and duplicate names when
// the case runs.
func (tc *TestCase) Add(name string, fn func(t *assert.T)) *TestCase {
	tc.methods = append(tc.methods, Method{Name: name, Fn: fn})
	return tc
}

func (tc *TestCase) Name() string {
	return tc.name
}

// Methods returns a copy of the methods in declaration order.
func (tc *TestCase) Methods() []Method {
	return slices.Clone(tc.methods)
}

// Registry is a set of test cases with unique names.
type Registry struct {
	mu    sync.RWMutex
	cases []*TestCase
	index map[string]*TestCase
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{index: make(map[string]*TestCase)}
}

// Register adds tc unless a case with the same name is already registered, in
// which case the existing case is kept. It reports whether tc was added. Nil
// cases and cases without a name are rejected.
func (r *Registry) Register(tc *TestCase) bool {
	if tc == nil || tc.name == "" {
		log.Root().Error("Rejected test case without a name")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[tc.name]; ok {
		log.Root().Debug("Test case already registered", "case", tc.name)
		return false
	}
	r.index[tc.name] = tc
	r.cases = append(r.cases, tc)
	log.Root().Debug("Registered test case", "case", tc.name, "methods", len(tc.methods))
	return true
}

// All iterates over the registered cases in registration order. Each
// iteration works on a snapshot taken when it starts, so cases registered
// during the iteration are not visited.
func (r *Registry) All() iter.Seq[*TestCase] {
	return func(yield func(*TestCase) bool) {
		r.mu.RLock()
		snapshot := slices.Clone(r.cases)
		r.mu.RUnlock()

		for _, tc := range snapshot {
			if !yield(tc) {
				return
			}
		}
	}
}

// Lookup returns the case registered under name.
func (r *Registry) Lookup(name string) (*TestCase, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.index[name]
	return tc, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cases)
}

var defaultRegistry = New()

// Default returns the process-wide registry used by Register.
func Default() *Registry {
	return defaultRegistry
}

// Register adds tc to the default registry. It is meant to be called from init
// functions of test packages.
func Register(tc *TestCase) bool {
	return defaultRegistry.Register(tc)
}
