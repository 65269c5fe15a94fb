// package passgraph orders render passes by their declared dependencies. The graph is
// a two-state machine: mutations are accepted while unbuilt, Build computes and caches
// the schedule, and any later mutation drops back to unbuilt.
package passgraph

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/prism-go/engine/graph"
)

// State is the lifecycle state of the graph.
type State int

const (
	// StateUnbuilt accepts mutations; the schedule is unavailable.
	StateUnbuilt State = iota

	// StateBuilt serves the cached schedule; mutations invalidate it.
	StateBuilt
)

// String returns the state name.
func (s State) String() string {
	if s == StateBuilt {
		return "built"
	}
	return "unbuilt"
}

// Graph schedules passes so every pass runs after all of its dependencies. Ties are
// broken by declaration order, so the schedule is deterministic for a given set of
// Add and DependOn calls.
type Graph interface {
	// Add registers a pass. Re-adding a known pass is a duplicate-name error.
	//
	// Parameters:
	//   - name: the pass name
	//
	// Returns:
	//   - error: a duplicate-name error
	Add(name string) error

	// DependOn records that a pass must execute after another. Both passes must
	// already be registered. Self-dependencies are rejected as cycles.
	//
	// Parameters:
	//   - name: the dependent pass
	//   - after: the pass it must execute after
	//
	// Returns:
	//   - error: an unknown-pass or cycle error
	DependOn(name, after string) error

	// Build computes and caches the schedule, moving the graph to the built state.
	//
	// Returns:
	//   - error: a cycle error naming the passes involved
	Build() error

	// Order returns the cached schedule.
	//
	// Returns:
	//   - []string: the pass names in execution order
	//   - error: a not-built error when Build has not succeeded since the last mutation
	Order() ([]string, error)

	// Contains reports whether a pass is registered.
	//
	// Parameters:
	//   - name: the pass name
	//
	// Returns:
	//   - bool: true when the pass is registered
	Contains(name string) bool

	// State returns the current lifecycle state.
	//
	// Returns:
	//   - State: the state
	State() State

	// Invalidate drops the cached schedule, returning to the unbuilt state.
	Invalidate()
}

type passGraph struct {
	mu       *sync.Mutex
	declared []string
	index    map[string]int
	deps     map[string][]string
	order    []string
	state    State
}

var _ Graph = &passGraph{}

// NewGraph creates an empty pass graph.
//
// Returns:
//   - Graph: the constructed graph
func NewGraph() Graph {
	return &passGraph{
		mu:    &sync.Mutex{},
		index: make(map[string]int),
		deps:  make(map[string][]string),
	}
}

// FromModel builds a pass graph from a model's passes and dependency relation.
//
// Parameters:
//   - m: the validated model
//
// Returns:
//   - Graph: the built graph
//   - error: a duplicate-name, unknown-pass, or cycle error
func FromModel(m *graph.Model) (Graph, error) {
	g := NewGraph()
	for _, pass := range m.Passes {
		if err := g.Add(pass.Name); err != nil {
			return nil, err
		}
	}
	for _, pass := range m.Passes {
		for _, dep := range m.Dependencies[pass.Name] {
			if err := g.DependOn(pass.Name, dep); err != nil {
				return nil, err
			}
		}
	}
	if err := g.Build(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *passGraph) Add(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.index[name]; ok {
		return fmt.Errorf("pass %q: %w", name, graph.ErrDuplicateName)
	}
	g.index[name] = len(g.declared)
	g.declared = append(g.declared, name)
	g.state = StateUnbuilt
	return nil
}

func (g *passGraph) DependOn(name, after string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.index[name]; !ok {
		return fmt.Errorf("pass %q: %w", name, graph.ErrUnknownPass)
	}
	if _, ok := g.index[after]; !ok {
		return fmt.Errorf("pass %q: %w", after, graph.ErrUnknownPass)
	}
	if name == after {
		return fmt.Errorf("pass %q depends on itself: %w", name, graph.ErrCyclicDependency)
	}
	for _, existing := range g.deps[name] {
		if existing == after {
			return nil
		}
	}
	g.deps[name] = append(g.deps[name], after)
	g.state = StateUnbuilt
	return nil
}

func (g *passGraph) Build() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, err := g.schedule()
	if err != nil {
		return err
	}
	g.order = order
	g.state = StateBuilt
	return nil
}

// schedule runs Kahn's algorithm, always taking the ready pass that was declared
// earliest. When passes are left over the walk found a cycle; the error names the
// cycle members, with passes that are merely downstream of a cycle trimmed out.
func (g *passGraph) schedule() ([]string, error) {
	indegree := make(map[string]int, len(g.declared))
	dependents := make(map[string][]string, len(g.declared))
	for _, name := range g.declared {
		indegree[name] = len(g.deps[name])
		for _, dep := range g.deps[name] {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for _, name := range g.declared {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(g.declared))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return g.index[ready[i]] < g.index[ready[j]]
		})
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(g.declared) {
		stuck := make(map[string]bool)
		for _, name := range g.declared {
			if indegree[name] > 0 {
				stuck[name] = true
			}
		}
		// A pass downstream of a cycle is stuck too, but is not part of it. Trim
		// stuck passes no other stuck pass depends on until only cycle members remain.
		for trimmed := true; trimmed; {
			trimmed = false
			for name := range stuck {
				needed := false
				for _, dependent := range dependents[name] {
					if stuck[dependent] {
						needed = true
						break
					}
				}
				if !needed {
					delete(stuck, name)
					trimmed = true
				}
			}
		}
		var cyclic []string
		for _, name := range g.declared {
			if stuck[name] {
				cyclic = append(cyclic, name)
			}
		}
		return nil, fmt.Errorf("passes [%s]: %w", strings.Join(cyclic, ", "), graph.ErrCyclicDependency)
	}
	return order, nil
}

func (g *passGraph) Order() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateBuilt {
		return nil, graph.ErrGraphNotBuilt
	}
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out, nil
}

func (g *passGraph) Contains(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.index[name]
	return ok
}

func (g *passGraph) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *passGraph) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateUnbuilt
}
