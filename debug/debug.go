// Package debug inspects a container's dependency graph without
// instantiating anything. Build walks the graph into nodes; Tree renders
// them as text with scope markers, cycle and unknown-dependency warnings.
package debug

import (
	"github.com/xraph/crucible"
)

// Kind classifies a tree node.
type Kind string

const (
	// KindDependency is a resolvable identifier known to a provider.
	KindDependency Kind = "dependency"
	// KindOrigin is the placeholder root used when the origin itself is
	// not a dependency, only an injected callable.
	KindOrigin Kind = "origin"
	// KindInjection groups the dependencies injected into one function.
	KindInjection Kind = "injection"
	// KindCycle marks an identifier that already appears among its own
	// ancestors.
	KindCycle Kind = "cycle"
	// KindUnknown marks an identifier no provider recognizes.
	KindUnknown Kind = "unknown"
)

// Node is one vertex of the resolved graph. The sentinel scope means the
// node carries no scope of its own, such as warnings and injection groups.
type Node struct {
	Description string
	Scope       *crucible.Scope
	Kind        Kind
	Children    []*Node
}

// task is one unit of graph traversal. Exactly one of dependency or
// injection is meaningful; isOrigin is set on the origin's own task so the
// walk never has to compare identifiers against a possibly non-comparable
// origin.
type task struct {
	parent    *Node
	ancestors map[any]struct{}

	dependency any
	injection  *injectionTask
	isOrigin   bool
}

type injectionTask struct {
	name string
	deps []any
}

// Build walks origin's dependency graph breadth-limited by depth and
// returns its root. The origin counts as depth zero; a negative depth means
// unlimited. Cycles and unknown identifiers become warning leaves rather
// than errors, so the tree is always complete.
func Build(c *crucible.Container, origin any, depth int) *Node {
	if depth < 0 {
		depth = 1 << 31
	}
	depth++

	root := &Node{
		Description: crucible.Describe(origin),
		Scope:       crucible.Sentinel(),
		Kind:        KindOrigin,
	}
	stack := []task{{
		parent:     root,
		ancestors:  map[any]struct{}{},
		dependency: origin,
		isOrigin:   true,
	}}

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if t.injection != nil {
			if len(t.injection.deps) == 0 {
				continue
			}
			node := &Node{
				Description: t.injection.name,
				Scope:       crucible.Sentinel(),
				Kind:        KindInjection,
			}
			t.parent.Children = append(t.parent.Children, node)
			for _, d := range t.injection.deps {
				stack = append(stack, task{parent: node, ancestors: t.ancestors, dependency: d})
			}
			continue
		}

		dep := t.dependency
		info, known := c.Debug(dep)
		if !known {
			if t.isOrigin {
				// The origin is not a dependency. If it is an injected
				// callable its injections still make a tree.
				for _, d := range wrapperDependencies(dep) {
					stack = append(stack, task{parent: t.parent, ancestors: t.ancestors, dependency: d})
				}
			} else {
				t.parent.Children = append(t.parent.Children, &Node{
					Description: "/!\\ Unknown: " + crucible.Describe(dep),
					Scope:       crucible.Sentinel(),
					Kind:        KindUnknown,
				})
			}
			continue
		}

		// Known identifiers are comparable, so the set operations below
		// cannot panic.
		if _, cyclic := t.ancestors[dep]; cyclic {
			t.parent.Children = append(t.parent.Children, &Node{
				Description: "/!\\ Cyclic dependency: " + info.Description,
				Scope:       crucible.Sentinel(),
				Kind:        KindCycle,
			})
			continue
		}

		node := &Node{
			Description: info.Description,
			Scope:       info.Scope,
			Kind:        KindDependency,
		}
		t.parent.Children = append(t.parent.Children, node)
		ancestors := extend(t.ancestors, dep)

		if t.isOrigin {
			// The placeholder root is redundant once the origin turns out
			// to be a dependency itself.
			root = node
			for _, d := range wrapperDependencies(dep) {
				stack = append(stack, task{parent: node, ancestors: ancestors, dependency: d})
			}
		}

		if len(ancestors) < depth {
			for _, d := range info.Dependencies {
				stack = append(stack, task{parent: node, ancestors: ancestors, dependency: d})
			}
			for _, w := range info.Wired {
				stack = append(stack, task{parent: node, ancestors: ancestors, injection: &injectionTask{
					name: w.Name,
					deps: w.Dependencies,
				}})
			}
		}
	}

	return root
}

func wrapperDependencies(dep any) []any {
	if w, ok := dep.(*crucible.Injected); ok {
		return w.Dependencies()
	}
	return nil
}

func extend(ancestors map[any]struct{}, dep any) map[any]struct{} {
	next := make(map[any]struct{}, len(ancestors)+1)
	for k := range ancestors {
		next[k] = struct{}{}
	}
	next[dep] = struct{}{}
	return next
}
