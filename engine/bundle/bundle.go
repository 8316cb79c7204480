// Package bundle implements the Bundle (§4.H): the language-neutral IR
// container the Build Planner consumes. A Bundle aggregates every callable
// (Application/Workflow) a compile touches plus a stable build order
// computed by a post-order traversal from the primary callable.
package bundle

import (
	"fmt"

	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/ir"
)

// Bundle is a read-mostly aggregate: an ordered list of callables, a
// primary entry point, and their dependency order (§3). It is populated
// incrementally as translation discovers callables, then sealed once,
// before the Planner runs.
type Bundle struct {
	primaryCallable string
	callables       map[string]ir.Callable
	order           []string
	sealed          bool
	dependencies    []string
}

// New returns an empty, unsealed Bundle.
func New() *Bundle {
	return &Bundle{callables: make(map[string]ir.Callable)}
}

// Add registers c under its own name, overwriting any prior registration
// under the same name. Add panics if called after Seal, since a sealed
// Bundle's dependency order is final.
func (b *Bundle) Add(c ir.Callable) {
	if b.sealed {
		panic("bundle: Add called on a sealed Bundle")
	}
	name := c.CallableName()
	if _, exists := b.callables[name]; !exists {
		b.order = append(b.order, name)
	}
	b.callables[name] = c
}

// SetPrimary records name as the Bundle's entry point.
func (b *Bundle) SetPrimary(name string) {
	b.primaryCallable = name
}

// Callables returns every registered callable by name. Do not mutate the
// returned map.
func (b *Bundle) Callables() map[string]ir.Callable {
	return b.callables
}

// Primary returns the callable registered under the primary name, or nil if
// no primary was set or no callable has that name. It does not depend on
// Seal having been called.
func (b *Bundle) Primary() ir.Callable {
	return b.callables[b.primaryCallable]
}

// Dependencies returns the sealed build order: every callable exactly
// once, after all of its transitive callees (§4.H). Calling this before
// Seal returns nil.
func (b *Bundle) Dependencies() []string {
	return b.dependencies
}

// Seal computes the Bundle's dependency order via a post-order traversal
// starting from the primary callable, enforcing that primaryCallable is a
// key of callables (resolving the Open Question raised in spec.md §9: one
// source path named a workflow's bundle entry by its own name while the
// caller queried by a possibly different name, with no enforcement that
// the two agree). Seal is idempotent; calling it twice recomputes the same
// order from the same state.
func (b *Bundle) Seal() error {
	if _, ok := b.callables[b.primaryCallable]; !ok {
		return core.NewError(
			fmt.Errorf("primary callable %q is not registered in the bundle", b.primaryCallable),
			core.ErrorInternal,
			map[string]any{"primaryCallable": b.primaryCallable},
		)
	}

	visited := make(map[string]bool, len(b.callables))
	onStack := make(map[string]bool, len(b.callables))
	var order []string

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		if onStack[name] {
			return core.NewError(
				fmt.Errorf("cyclic callable dependency: %v -> %s", append(path, name), name),
				core.ErrorUnsupportedConstruct,
				map[string]any{"cycle": append(append([]string{}, path...), name)},
			)
		}
		if visited[name] {
			return nil
		}
		c, ok := b.callables[name]
		if !ok {
			return core.NewError(
				fmt.Errorf("unknown callee %q referenced by the dependency graph", name),
				core.ErrorInternal,
				map[string]any{"callee": name},
			)
		}
		onStack[name] = true
		path = append(path, name)
		for _, callee := range callees(c) {
			if err := visit(callee, path); err != nil {
				return err
			}
		}
		onStack[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	if err := visit(b.primaryCallable, nil); err != nil {
		return err
	}
	// Every registered callable appears in dependencies even if unreachable
	// from the primary (e.g. a sub-workflow translated but never wired),
	// appended after the reachable set in registration order so the
	// reachable prefix stays stable regardless of what else was Added.
	for _, name := range b.order {
		if !visited[name] {
			visited[name] = true
			order = append(order, name)
		}
	}

	b.dependencies = order
	b.sealed = true
	return nil
}

// Sealed reports whether Seal has completed successfully.
func (b *Bundle) Sealed() bool { return b.sealed }

func callees(c ir.Callable) []string {
	switch v := c.(type) {
	case *ir.Workflow:
		return v.Callees()
	default:
		return nil
	}
}
