// Package param implements the metadata parameter model: kind-tagged
// header values, tolerance-aware parameter comparison, acceptability
// checks, and an ordered registry with a fail-fast consistency check.
package param

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/unit"
	"gonum.org/v1/gonum/floats/scalar"
)

// Tols is a relative/absolute tolerance pair for closeness checks.
type Tols struct {
	Rel float64
	Abs float64
}

// DefaultTols are the closeness defaults applied when a Spec carries none.
var DefaultTols = Tols{Rel: 1e-5, Abs: 1e-8}

func closeTo(a, b float64, t Tols) bool {
	return scalar.EqualWithinAbsOrRel(a, b, t.Abs, t.Rel)
}

// Range is a closed acceptability interval.
type Range struct {
	Min float64
	Max float64
}

// Variant selects the behavioral flavor of a parameter. Variants are a
// closed set dispatched explicitly; there is no open extension point.
type Variant uint8

const (
	// VariantPlain is an ordinary parameter.
	VariantPlain Variant = iota
	// VariantAngle stores radians and adds degree accessors.
	VariantAngle
	// VariantLocation stores a geocentric XYZ 3-vector in meters and adds
	// geodetic accessors. Its range acceptability checks the vector
	// magnitude rather than the element mean.
	VariantLocation
	// VariantQuantity carries declared unit dimensions and validates
	// tolerance units at construction.
	VariantQuantity
)

// FormDim is one axis of a parameter's expected form: either a fixed
// extent or the name of a sibling scalar count parameter whose value
// supplies the extent.
type FormDim struct {
	Fixed int
	Ref   string
}

// Fixed declares a form axis with a literal extent.
func Fixed(n int) FormDim { return FormDim{Fixed: n} }

// Ref declares a form axis sized by a named count parameter.
func Ref(name string) FormDim { return FormDim{Ref: name} }

// Shape is a resolved expected shape. nil means scalar.
type Shape []int

// Spec describes a Parameter to be constructed.
type Spec struct {
	Name        string
	Description string
	Required    bool
	Kind        Kind
	// Form gives the expected array shape. nil means scalar.
	Form []FormDim
	// Value is the initial payload, usually Null.
	Value Value
	// Spoof is the placeholder substituted for an unset optional
	// parameter when a caller asks for spoofing on write.
	Spoof Value
	// AcceptableVals enumerates allowed values. When both AcceptableVals
	// and AcceptableRange are given, the value list wins.
	AcceptableVals []Value
	// AcceptableRange bounds the mean of element magnitudes (vector
	// magnitude for VariantLocation).
	AcceptableRange *Range
	// Tols overrides the default closeness tolerances.
	Tols *Tols
	// AbsTol optionally carries the absolute tolerance as a dimensioned
	// quantity. Its dimensions must match Units; a bare Tols.Abs is taken
	// in the parameter's declared unit.
	AbsTol  *unit.Unit
	Variant Variant
	// Units declares the dimensions of a VariantQuantity parameter.
	Units unit.Dimensions
}

// Parameter is one metadata attribute of a dataset container.
type Parameter struct {
	Name            string
	Description     string
	Required        bool
	Kind            Kind
	Form            []FormDim
	Value           Value
	Spoof           Value
	AcceptableVals  []Value
	AcceptableRange *Range
	Tols            Tols
	Variant         Variant
	Units           unit.Dimensions
}

// New validates a Spec and constructs the Parameter.
func New(s Spec) (*Parameter, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("param: parameter name must not be empty")
	}
	p := &Parameter{
		Name:            s.Name,
		Description:     s.Description,
		Required:        s.Required,
		Kind:            s.Kind,
		Form:            s.Form,
		Value:           s.Value,
		Spoof:           s.Spoof,
		AcceptableVals:  s.AcceptableVals,
		AcceptableRange: s.AcceptableRange,
		Tols:            DefaultTols,
		Variant:         s.Variant,
		Units:           s.Units,
	}
	if s.Tols != nil {
		p.Tols = *s.Tols
	}
	switch s.Variant {
	case VariantQuantity:
		if len(s.Units) == 0 {
			return nil, fmt.Errorf("param: quantity parameter %s needs declared units", s.Name)
		}
		if s.AbsTol != nil {
			if err := s.AbsTol.Check(s.Units); err != nil {
				return nil, fmt.Errorf("param: absolute tolerance of %s: %w", s.Name, err)
			}
			p.Tols.Abs = s.AbsTol.Value()
		}
		if !s.Value.IsNull() {
			u, ok := s.Value.AsUnit()
			if !ok {
				return nil, fmt.Errorf("param: quantity parameter %s holds %s, want Quantity", s.Name, s.Value.Kind())
			}
			if err := u.Check(s.Units); err != nil {
				return nil, fmt.Errorf("param: value of %s: %w", s.Name, err)
			}
		}
	case VariantAngle:
		if s.Kind != KindFloat {
			return nil, fmt.Errorf("param: angle parameter %s must be a Float scalar", s.Name)
		}
	case VariantLocation:
		if s.Kind != KindFloatSlice {
			return nil, fmt.Errorf("param: location parameter %s must be a FloatSlice", s.Name)
		}
	case VariantPlain:
	default:
		return nil, fmt.Errorf("param: unknown variant %d for %s", s.Variant, s.Name)
	}
	return p, nil
}

// MustNew is New for statically-known specs.
func MustNew(s Spec) *Parameter {
	p, err := New(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsSet reports whether the parameter holds a value.
func (p *Parameter) IsSet() bool { return !p.Value.IsNull() }

// ApplySpoof fills an unset optional parameter with its placeholder
// value. It reports whether a substitution happened. Required
// parameters never spoof.
func (p *Parameter) ApplySpoof() bool {
	if p.Required || p.IsSet() || p.Spoof.IsNull() {
		return false
	}
	p.Value = p.Spoof
	return true
}

// Degrees returns an angle parameter's value in degrees.
func (p *Parameter) Degrees() (float64, error) {
	if p.Variant != VariantAngle {
		return 0, fmt.Errorf("param: %s is not an angle parameter", p.Name)
	}
	rad, ok := p.Value.AsFloat()
	if !ok {
		return 0, fmt.Errorf("param: angle parameter %s is not set", p.Name)
	}
	return rad * 180 / math.Pi, nil
}

// SetDegrees stores an angle parameter's value from degrees.
func (p *Parameter) SetDegrees(deg float64) error {
	if p.Variant != VariantAngle {
		return fmt.Errorf("param: %s is not an angle parameter", p.Name)
	}
	p.Value = Float(deg * math.Pi / 180)
	return nil
}

// Geodesy converts between geocentric XYZ (meters) and geodetic
// latitude/longitude (radians) with altitude (meters).
type Geodesy interface {
	ToLatLonAlt(x, y, z float64) (lat, lon, alt float64)
	FromLatLonAlt(lat, lon, alt float64) (x, y, z float64)
}

// LatLonAlt returns a location parameter's geodetic coordinates in
// radians and meters.
func (p *Parameter) LatLonAlt(g Geodesy) (lat, lon, alt float64, err error) {
	if p.Variant != VariantLocation {
		return 0, 0, 0, fmt.Errorf("param: %s is not a location parameter", p.Name)
	}
	xyz, ok := p.Value.AsFloats()
	if !ok || len(xyz) != 3 {
		return 0, 0, 0, fmt.Errorf("param: location parameter %s is not a set 3-vector", p.Name)
	}
	lat, lon, alt = g.ToLatLonAlt(xyz[0], xyz[1], xyz[2])
	return lat, lon, alt, nil
}

// SetLatLonAlt stores a location parameter from geodetic coordinates in
// radians and meters.
func (p *Parameter) SetLatLonAlt(g Geodesy, lat, lon, alt float64) error {
	if p.Variant != VariantLocation {
		return fmt.Errorf("param: %s is not a location parameter", p.Name)
	}
	x, y, z := g.FromLatLonAlt(lat, lon, alt)
	p.Value = Floats([]float64{x, y, z})
	return nil
}

// LatLonAltDegrees is LatLonAlt with the angles in degrees.
func (p *Parameter) LatLonAltDegrees(g Geodesy) (lat, lon, alt float64, err error) {
	lat, lon, alt, err = p.LatLonAlt(g)
	if err != nil {
		return 0, 0, 0, err
	}
	return lat * 180 / math.Pi, lon * 180 / math.Pi, alt, nil
}

// SetLatLonAltDegrees is SetLatLonAlt with the angles in degrees.
func (p *Parameter) SetLatLonAltDegrees(g Geodesy, lat, lon, alt float64) error {
	return p.SetLatLonAlt(g, lat*math.Pi/180, lon*math.Pi/180, alt)
}

// ExpectedShape resolves the parameter's form against the registry.
// Name refs resolve to the value of sibling scalar count parameters;
// an unresolved ref is an error, never a silent default.
func (p *Parameter) ExpectedShape(r *Registry) (Shape, error) {
	if len(p.Form) == 0 {
		return nil, nil
	}
	out := make(Shape, len(p.Form))
	for i, d := range p.Form {
		if d.Ref == "" {
			out[i] = d.Fixed
			continue
		}
		ref, ok := r.Get(d.Ref)
		if !ok {
			return nil, fmt.Errorf("param: form of %s references unknown parameter %s", p.Name, d.Ref)
		}
		n, ok := ref.Value.AsInt()
		if !ok {
			return nil, fmt.Errorf("param: form of %s references %s, which is not a set integer count", p.Name, d.Ref)
		}
		out[i] = int(n)
	}
	return out, nil
}

// CheckAcceptability reports whether the value is acceptable and, when
// it is not, a human-readable reason. Unset values are acceptable here;
// the registry's Check handles required-but-unset separately.
func (p *Parameter) CheckAcceptability() (bool, string) {
	if p.Value.IsNull() {
		return true, ""
	}
	if len(p.AcceptableVals) > 0 {
		return p.checkAgainstVals()
	}
	if p.AcceptableRange != nil {
		return p.checkAgainstRange()
	}
	return true, ""
}

func (p *Parameter) checkAgainstVals() (bool, string) {
	stringOK := func(s string) bool {
		for _, av := range p.AcceptableVals {
			as, ok := av.AsString()
			if ok && strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(as)) {
				return true
			}
		}
		return false
	}
	floatOK := func(e float64) bool {
		for _, av := range p.AcceptableVals {
			af, ok := av.AsFloat()
			if ok && closeTo(e, af, p.Tols) {
				return true
			}
		}
		return false
	}

	switch p.Value.Kind() {
	case KindString:
		s, _ := p.Value.AsString()
		if !stringOK(s) {
			return false, fmt.Sprintf("value %q is not in the acceptable set", s)
		}
	case KindStringSlice:
		ss, _ := p.Value.AsStrings()
		for i, s := range ss {
			if !stringOK(s) {
				return false, fmt.Sprintf("element %d (%q) is not in the acceptable set", i, s)
			}
		}
	case KindIntSlice, KindFloatSlice:
		// Every element must be acceptable.
		elems, _ := p.Value.AsFloats()
		for i, e := range elems {
			if !floatOK(e) {
				return false, fmt.Sprintf("element %d (%v) is not in the acceptable set", i, e)
			}
		}
	default:
		for _, av := range p.AcceptableVals {
			if eq, _ := p.Value.equalWithin(av, p.Tols); eq {
				return true, ""
			}
		}
		return false, fmt.Sprintf("value %s is not in the acceptable set", p.Value)
	}
	return true, ""
}

func (p *Parameter) checkAgainstRange() (bool, string) {
	elems, ok := p.Value.floatElements()
	if !ok || len(elems) == 0 {
		return false, fmt.Sprintf("value of kind %s cannot be range-checked", p.Value.Kind())
	}
	var stat float64
	if p.Variant == VariantLocation {
		if len(elems) != 3 {
			return false, fmt.Sprintf("location value has %d elements, want 3", len(elems))
		}
		stat = math.Sqrt(elems[0]*elems[0] + elems[1]*elems[1] + elems[2]*elems[2])
	} else {
		// Mean of element magnitudes. A single out-of-range element can
		// hide inside an acceptable mean; per-element screening belongs
		// to the caller.
		var sum float64
		for _, e := range elems {
			sum += math.Abs(e)
		}
		stat = sum / float64(len(elems))
	}
	if stat < p.AcceptableRange.Min || stat > p.AcceptableRange.Max {
		return false, fmt.Sprintf("value statistic %g is outside the acceptable range [%g, %g]",
			stat, p.AcceptableRange.Min, p.AcceptableRange.Max)
	}
	return true, ""
}

// Equals compares two parameters' values with this parameter's
// tolerances, returning a diagnostic on mismatch.
func (p *Parameter) Equals(o *Parameter) (bool, string) {
	if o == nil {
		return false, "other parameter is nil"
	}
	if p.Value.IsNull() != o.Value.IsNull() {
		return false, fmt.Sprintf("parameter %s is set on one side only", p.Name)
	}
	eq, diag := p.Value.equalWithin(o.Value, p.Tols)
	if !eq {
		return false, fmt.Sprintf("parameter %s: %s", p.Name, diag)
	}
	return true, ""
}
