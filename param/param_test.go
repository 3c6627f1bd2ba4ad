package param

import (
	"math"
	"testing"

	"github.com/ctessum/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "Float", KindFloat.String())
	assert.Equal(t, "Quantity", KindQuantity.String())
	assert.Equal(t, "Unknown", Kind(99).String())
}

func TestEqualsTolerances(t *testing.T) {
	mk := func(v Value) *Parameter {
		return MustNew(Spec{Name: "p", Kind: v.Kind(), Value: v})
	}

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"CloseWithinRel", Float(1.0), Float(1.000001), true},
		{"FarOutsideRel", Float(1.0), Float(1.001), false},
		{"IntUpgrades", Int(3), Float(3.0), true},
		{"TrimmedStrings", String("east "), String("east"), true},
		{"DifferentStrings", String("east"), String("north"), false},
		{"StringSlices", Strings([]string{"a ", "b"}), Strings([]string{"a", "b"}), true},
		{"SliceLenDiffers", Ints([]int64{1, 2}), Ints([]int64{1, 2, 3}), false},
		{"FloatSlicesClose", Floats([]float64{1, 2}), Floats([]float64{1.000001, 2}), true},
		{"ShapeDiffers", FloatsShaped([]float64{1, 2}, []int{1, 2}), Floats([]float64{1, 2}), false},
		{"KindMismatch", Float(1), String("1"), false},
		{"BothNull", Null(), Null(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq, diag := mk(tt.a).Equals(mk(tt.b))
			assert.Equal(t, tt.want, eq, diag)
			if !tt.want {
				assert.NotEmpty(t, diag)
			}
		})
	}
}

func TestEqualsSetVsUnset(t *testing.T) {
	a := MustNew(Spec{Name: "x", Kind: KindFloat, Value: Float(1)})
	b := MustNew(Spec{Name: "x", Kind: KindFloat})
	eq, diag := a.Equals(b)
	assert.False(t, eq)
	assert.Contains(t, diag, "set on one side only")
}

func TestMapEquality(t *testing.T) {
	a := Map(map[string]Value{"Key": Float(1.0), "note": String("ok")})
	b := Map(map[string]Value{"key": Float(1.000001), "Note": String("ok")})
	eq, diag := a.equalWithin(b, DefaultTols)
	assert.True(t, eq, diag)

	c := Map(map[string]Value{"key": Float(2.0)})
	eq, _ = a.equalWithin(c, DefaultTols)
	assert.False(t, eq)
}

func TestCheckAcceptabilityVals(t *testing.T) {
	p := MustNew(Spec{
		Name:           "vis_units",
		Kind:           KindString,
		Value:          String("JY"),
		AcceptableVals: []Value{String("uncalib"), String("Jy"), String("K str")},
		// The value list wins when a range is also present.
		AcceptableRange: &Range{Min: 0, Max: 1},
	})
	ok, msg := p.CheckAcceptability()
	assert.True(t, ok, msg)

	p.Value = String("furlongs")
	ok, msg = p.CheckAcceptability()
	assert.False(t, ok)
	assert.Contains(t, msg, "acceptable set")
}

func TestCheckAcceptabilityRangeMean(t *testing.T) {
	tests := []struct {
		name  string
		elems []float64
		rng   Range
		want  bool
	}{
		{"MeanOfMagnitudes", []float64{-2, 2}, Range{1, 3}, true},
		{"MeanOutside", []float64{10, -10}, Range{1, 3}, false},
		{"ClosedEndpoints", []float64{3}, Range{1, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustNew(Spec{
				Name:            "r",
				Kind:            KindFloatSlice,
				Value:           Floats(tt.elems),
				AcceptableRange: &tt.rng,
			})
			ok, msg := p.CheckAcceptability()
			assert.Equal(t, tt.want, ok, msg)
		})
	}
}

func TestLocationMagnitudeRange(t *testing.T) {
	p := MustNew(Spec{
		Name:            "telescope_location",
		Kind:            KindFloatSlice,
		Variant:         VariantLocation,
		Value:           Floats([]float64{6.37e6, 0, 0}),
		AcceptableRange: &Range{Min: 6.35e6, Max: 6.39e6},
	})
	ok, msg := p.CheckAcceptability()
	assert.True(t, ok, msg)

	// Element mean would pass for a vector whose magnitude does not.
	p.Value = Floats([]float64{6.37e6, 6.37e6, 6.37e6})
	ok, _ = p.CheckAcceptability()
	assert.False(t, ok)
}

func TestAngleDegrees(t *testing.T) {
	p := MustNew(Spec{Name: "phase_center_ra", Kind: KindFloat, Variant: VariantAngle})
	require.NoError(t, p.SetDegrees(90))
	rad, ok := p.Value.AsFloat()
	require.True(t, ok)
	assert.InDelta(t, math.Pi/2, rad, 1e-12)

	deg, err := p.Degrees()
	require.NoError(t, err)
	assert.InDelta(t, 90, deg, 1e-12)

	plain := MustNew(Spec{Name: "x", Kind: KindFloat})
	_, err = plain.Degrees()
	assert.Error(t, err)
}

type sphereGeo struct{}

func (sphereGeo) ToLatLonAlt(x, y, z float64) (float64, float64, float64) {
	r := math.Sqrt(x*x + y*y + z*z)
	return math.Asin(z / r), math.Atan2(y, x), r - 6370e3
}

func (sphereGeo) FromLatLonAlt(lat, lon, alt float64) (float64, float64, float64) {
	r := 6370e3 + alt
	return r * math.Cos(lat) * math.Cos(lon), r * math.Cos(lat) * math.Sin(lon), r * math.Sin(lat)
}

func TestLocationLatLonAlt(t *testing.T) {
	p := MustNew(Spec{Name: "telescope_location", Kind: KindFloatSlice, Variant: VariantLocation})
	require.NoError(t, p.SetLatLonAltDegrees(sphereGeo{}, -30.7, 21.4, 1051))

	lat, lon, alt, err := p.LatLonAltDegrees(sphereGeo{})
	require.NoError(t, err)
	assert.InDelta(t, -30.7, lat, 1e-9)
	assert.InDelta(t, 21.4, lon, 1e-9)
	assert.InDelta(t, 1051, alt, 1e-6)
}

func TestQuantityConstruction(t *testing.T) {
	// Matching tolerance units.
	p, err := New(Spec{
		Name:    "channel_width",
		Kind:    KindQuantity,
		Variant: VariantQuantity,
		Units:   unit.Herz,
		Value:   Quantity(unit.New(97656.25, unit.Herz)),
		AbsTol:  unit.New(1e-3, unit.Herz),
	})
	require.NoError(t, err)
	assert.Equal(t, 1e-3, p.Tols.Abs)

	// Incompatible tolerance units are rejected at construction.
	_, err = New(Spec{
		Name:    "channel_width",
		Kind:    KindQuantity,
		Variant: VariantQuantity,
		Units:   unit.Herz,
		AbsTol:  unit.New(1e-3, unit.Meter),
	})
	assert.Error(t, err)

	// Value with wrong dimensions is rejected too.
	_, err = New(Spec{
		Name:    "channel_width",
		Kind:    KindQuantity,
		Variant: VariantQuantity,
		Units:   unit.Herz,
		Value:   Quantity(unit.New(1.0, unit.Second)),
	})
	assert.Error(t, err)
}

func TestQuantityEquality(t *testing.T) {
	mk := func(v float64, d unit.Dimensions) *Parameter {
		return MustNew(Spec{
			Name: "q", Kind: KindQuantity, Variant: VariantQuantity,
			Units: d, Value: Quantity(unit.New(v, d)),
		})
	}
	eq, diag := mk(1.0, unit.Herz).Equals(mk(1.000001, unit.Herz))
	assert.True(t, eq, diag)

	eq, diag = mk(1.0, unit.Herz).Equals(mk(1.0, unit.Second))
	assert.False(t, eq)
	assert.Contains(t, diag, "dimensions differ")
}

func TestApplySpoof(t *testing.T) {
	p := MustNew(Spec{Name: "dut1", Kind: KindFloat, Spoof: Float(0)})
	assert.True(t, p.ApplySpoof())
	assert.True(t, p.IsSet())
	assert.False(t, p.ApplySpoof())

	noSpoof := MustNew(Spec{Name: "rdate", Kind: KindString})
	assert.False(t, noSpoof.ApplySpoof())

	required := MustNew(Spec{Name: "vis_units", Required: true, Kind: KindString, Spoof: String("uncalib")})
	assert.False(t, required.ApplySpoof())
	assert.False(t, required.IsSet())
}

func TestValueJSONRoundTrip(t *testing.T) {
	in := Map(map[string]Value{
		"nfreqs": Int(8),
		"freqs":  FloatsShaped([]float64{1, 2, 3, 4}, []int{1, 4}),
		"width":  Quantity(unit.New(97656.25, unit.Herz)),
		"names":  Strings([]string{"ant0", "ant1"}),
		"flag":   Bool(true),
		"empty":  Null(),
	})

	b, err := in.MarshalJSON()
	require.NoError(t, err)

	var out Value
	require.NoError(t, out.UnmarshalJSON(b))
	eq, diag := in.equalWithin(out, DefaultTols)
	assert.True(t, eq, diag)

	om, _ := out.AsMap()
	u, ok := om["width"].AsUnit()
	require.True(t, ok)
	assert.NoError(t, u.Check(unit.Herz))
}
