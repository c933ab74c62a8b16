package light

import "fmt"

// Registry holds the machines of all configured lights in configuration
// order.
type Registry struct {
	order []*Machine
	byID  map[string]*Machine
}

// NewRegistry creates a registry. Light ids must be unique.
func NewRegistry(machines ...*Machine) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Machine, len(machines))}
	for _, m := range machines {
		if _, dup := r.byID[m.ID()]; dup {
			return nil, fmt.Errorf("duplicate light id %q", m.ID())
		}
		r.byID[m.ID()] = m
		r.order = append(r.order, m)
	}
	return r, nil
}

// Get returns the machine with the given id.
func (r *Registry) Get(id string) (*Machine, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// All returns every machine in configuration order.
func (r *Registry) All() []*Machine {
	return r.order
}
