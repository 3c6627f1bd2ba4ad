package param

import (
	"fmt"
)

// Registry is an ordered collection of parameters. Registration is
// explicit, in declaration order; there is no reflection-driven
// discovery of parameters.
type Registry struct {
	order  []string
	params map[string]*Parameter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{params: make(map[string]*Parameter)}
}

// Register adds a parameter. Form refs must name already-registered
// scalar integer count parameters, which keeps the reference graph
// cycle-free by construction.
func (r *Registry) Register(p *Parameter) error {
	if _, dup := r.params[p.Name]; dup {
		return fmt.Errorf("param: parameter %s is already registered", p.Name)
	}
	for _, d := range p.Form {
		if d.Ref == "" {
			continue
		}
		ref, ok := r.params[d.Ref]
		if !ok {
			return fmt.Errorf("param: form of %s references %s, which is not registered yet", p.Name, d.Ref)
		}
		if ref.Kind != KindInt || len(ref.Form) != 0 {
			return fmt.Errorf("param: form of %s references %s, which is not a scalar integer count", p.Name, d.Ref)
		}
	}
	r.order = append(r.order, p.Name)
	r.params[p.Name] = p
	return nil
}

// MustRegister is Register for statically-known parameter sets.
func (r *Registry) MustRegister(p *Parameter) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get returns a registered parameter by name.
func (r *Registry) Get(name string) (*Parameter, bool) {
	p, ok := r.params[name]
	return p, ok
}

// Names returns all parameter names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns all parameters in registration order.
func (r *Registry) All() []*Parameter {
	out := make([]*Parameter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.params[name])
	}
	return out
}

// Required returns the required parameters in registration order.
func (r *Registry) Required() []*Parameter {
	var out []*Parameter
	for _, name := range r.order {
		if p := r.params[name]; p.Required {
			out = append(out, p)
		}
	}
	return out
}

// Optional returns the optional parameters in registration order.
func (r *Registry) Optional() []*Parameter {
	var out []*Parameter
	for _, name := range r.order {
		if p := r.params[name]; !p.Required {
			out = append(out, p)
		}
	}
	return out
}

// Check validates every required parameter and every set optional one,
// failing fast with the offending parameter's name. Per parameter the
// order is unset, then shape, then type, then acceptability.
func (r *Registry) Check() error {
	for _, name := range r.order {
		p := r.params[name]
		if !p.IsSet() {
			if p.Required {
				return fmt.Errorf("param: required parameter %s has not been set", name)
			}
			continue
		}

		expected, err := p.ExpectedShape(r)
		if err != nil {
			return err
		}
		if !shapesEqual(expected, p.Value.Shape()) {
			return fmt.Errorf("param: parameter %s has shape %v, expected %v",
				name, p.Value.Shape(), []int(expected))
		}

		if !kindAssignable(p.Kind, p.Value.Kind()) {
			return fmt.Errorf("param: parameter %s holds %s, expected %s",
				name, p.Value.Kind(), p.Kind)
		}

		if ok, msg := p.CheckAcceptability(); !ok {
			return fmt.Errorf("param: parameter %s is unacceptable: %s", name, msg)
		}
	}
	return nil
}

// kindAssignable reports whether a held kind satisfies a declared kind.
// Integer payloads upgrade to float declarations.
func kindAssignable(declared, held Kind) bool {
	if declared == held {
		return true
	}
	switch declared {
	case KindFloat:
		return held == KindInt
	case KindFloatSlice:
		return held == KindIntSlice
	default:
		return false
	}
}

// Equal compares the required parameters of two registries, collecting
// every mismatch message rather than stopping at the first.
func (r *Registry) Equal(o *Registry) (bool, []string) {
	var msgs []string
	for _, name := range r.order {
		p := r.params[name]
		if !p.Required {
			continue
		}
		op, ok := o.Get(name)
		if !ok {
			msgs = append(msgs, fmt.Sprintf("parameter %s is missing from the other set", name))
			continue
		}
		if eq, diag := p.Equals(op); !eq {
			msgs = append(msgs, diag)
		}
	}
	for _, op := range o.Required() {
		if _, ok := r.Get(op.Name); !ok {
			msgs = append(msgs, fmt.Sprintf("parameter %s is only present in the other set", op.Name))
		}
	}
	return len(msgs) == 0, msgs
}
