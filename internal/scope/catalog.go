// ABOUTME: Scope catalog with an implication graph for token authorization
// ABOUTME: Validated at startup; closure computation is pure and per-request

package scope

import (
	"fmt"
	"sort"
)

// Definition describes a named permission grant. A scope may imply
// other scopes; implication edges form a directed acyclic graph.
type Definition struct {
	Name        string
	Description string
	Implies     []string
}

// Catalog is the closed set of scopes the platform recognizes.
// It is built once at startup and read-only afterwards.
type Catalog struct {
	defs  map[string]Definition
	order []string
}

// NewCatalog builds a catalog from definitions. It rejects duplicate
// names, implication edges to unknown scopes, and cycles in the
// implication graph, so bad catalogs fail at startup rather than at
// request time.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Definition, len(defs))}

	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("scope with empty name")
		}
		if _, exists := c.defs[d.Name]; exists {
			return nil, fmt.Errorf("duplicate scope %q", d.Name)
		}
		c.defs[d.Name] = d
		c.order = append(c.order, d.Name)
	}

	for _, d := range defs {
		for _, imp := range d.Implies {
			if _, ok := c.defs[imp]; !ok {
				return nil, fmt.Errorf("scope %q implies unknown scope %q", d.Name, imp)
			}
		}
	}

	if cycle := c.findCycle(); cycle != "" {
		return nil, fmt.Errorf("scope implication cycle through %q", cycle)
	}

	return c, nil
}

// findCycle returns the name of a scope on an implication cycle, or "".
func (c *Catalog) findCycle() string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(c.defs))

	var visit func(name string) string
	visit = func(name string) string {
		switch state[name] {
		case visiting:
			return name
		case done:
			return ""
		}
		state[name] = visiting
		for _, imp := range c.defs[name].Implies {
			if hit := visit(imp); hit != "" {
				return hit
			}
		}
		state[name] = done
		return ""
	}

	for _, name := range c.order {
		if hit := visit(name); hit != "" {
			return hit
		}
	}
	return ""
}

// Known reports whether a scope name is in the catalog.
func (c *Catalog) Known(name string) bool {
	_, ok := c.defs[name]
	return ok
}

// Names returns all scope names in registration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Describe returns the definition for a scope name.
func (c *Catalog) Describe(name string) (Definition, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// Expand returns the transitive closure of the granted scopes under
// the implication graph. Unknown granted names are carried through as
// themselves but imply nothing. The computation is pure; callers run
// it per request so grant changes take effect immediately.
func (c *Catalog) Expand(granted []string) map[string]struct{} {
	closure := make(map[string]struct{}, len(granted))
	queue := make([]string, 0, len(granted))
	for _, g := range granted {
		if _, seen := closure[g]; seen {
			continue
		}
		closure[g] = struct{}{}
		queue = append(queue, g)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, imp := range c.defs[name].Implies {
			if _, seen := closure[imp]; seen {
				continue
			}
			closure[imp] = struct{}{}
			queue = append(queue, imp)
		}
	}
	return closure
}

// Allows reports whether the granted scope set satisfies the required
// scope. A required scope outside the catalog fails closed.
func (c *Catalog) Allows(granted []string, required string) bool {
	if !c.Known(required) {
		return false
	}
	_, ok := c.Expand(granted)[required]
	return ok
}

// SortedClosure is a test and diagnostics helper returning the closure
// of granted scopes as a sorted slice.
func (c *Catalog) SortedClosure(granted []string) []string {
	closure := c.Expand(granted)
	out := make([]string, 0, len(closure))
	for name := range closure {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
