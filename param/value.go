package param

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/unit"
)

// Kind identifies the payload class held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindStringSlice
	KindIntSlice
	KindFloatSlice
	KindMap
	KindQuantity
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindStringSlice:
		return "StringSlice"
	case KindIntSlice:
		return "IntSlice"
	case KindFloatSlice:
		return "FloatSlice"
	case KindMap:
		return "Map"
	case KindQuantity:
		return "Quantity"
	default:
		return "Unknown"
	}
}

// Value is a closed tagged union over every payload class a header
// parameter can hold. The zero Value is Null.
//
// Values are immutable by convention: slice payloads are shared, not
// copied, and callers must not mutate them after construction.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	raw   []byte
	ss    []string
	is    []int64
	fs    []float64
	shape []int
	m     map[string]Value
	dims  unit.Dimensions
}

// Null returns the unset value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int wraps an integer.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float wraps a float.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String wraps a string.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bytes wraps a raw byte string. Only legacy files produce these; new
// headers always store proper strings.
func Bytes(v []byte) Value { return Value{kind: KindBytes, raw: v} }

// Strings wraps a string slice.
func Strings(v []string) Value { return Value{kind: KindStringSlice, ss: v} }

// Ints wraps an integer slice.
func Ints(v []int64) Value { return Value{kind: KindIntSlice, is: v} }

// Floats wraps a one-dimensional float slice.
func Floats(v []float64) Value { return Value{kind: KindFloatSlice, fs: v} }

// FloatsShaped wraps a float slice carrying a multi-dimensional shape in
// row-major order. It panics if the shape does not cover the data.
func FloatsShaped(v []float64, shape []int) Value {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(v) {
		panic(fmt.Sprintf("param: shape %v does not match %d elements", shape, len(v)))
	}
	return Value{kind: KindFloatSlice, fs: v, shape: shape}
}

// Map wraps a free-form keyword map.
func Map(v map[string]Value) Value { return Value{kind: KindMap, m: v} }

// Quantity wraps a dimensioned scalar. The stored value is SI.
func Quantity(u *unit.Unit) Value {
	return Value{kind: KindQuantity, f: u.Value(), dims: u.Dimensions()}
}

// Kind reports the payload class.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is unset.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the float payload. Int and Quantity payloads upgrade.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat, KindQuantity:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsString returns the string payload. Bytes do not upgrade; legacy byte
// strings are decoded explicitly by the reader's compatibility pass.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsBytes returns the raw byte payload.
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.raw, true
}

// AsStrings returns the string-slice payload.
func (v Value) AsStrings() ([]string, bool) {
	if v.kind != KindStringSlice {
		return nil, false
	}
	return v.ss, true
}

// AsInts returns the int-slice payload.
func (v Value) AsInts() ([]int64, bool) {
	if v.kind != KindIntSlice {
		return nil, false
	}
	return v.is, true
}

// AsFloats returns the float-slice payload. Int slices upgrade.
func (v Value) AsFloats() ([]float64, bool) {
	switch v.kind {
	case KindFloatSlice:
		return v.fs, true
	case KindIntSlice:
		out := make([]float64, len(v.is))
		for i, x := range v.is {
			out[i] = float64(x)
		}
		return out, true
	default:
		return nil, false
	}
}

// AsMap returns the map payload.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// AsUnit returns the dimensioned payload.
func (v Value) AsUnit() (*unit.Unit, bool) {
	if v.kind != KindQuantity {
		return nil, false
	}
	return unit.New(v.f, v.dims), true
}

// Shape returns the declared array shape: the stored multi-dimensional
// shape when present, the slice length for flat slices, nil for scalars.
func (v Value) Shape() []int {
	if v.shape != nil {
		return v.shape
	}
	switch v.kind {
	case KindStringSlice:
		return []int{len(v.ss)}
	case KindIntSlice:
		return []int{len(v.is)}
	case KindFloatSlice:
		return []int{len(v.fs)}
	default:
		return nil
	}
}

// floatElements flattens numeric payloads for range checks.
func (v Value) floatElements() ([]float64, bool) {
	switch v.kind {
	case KindInt:
		return []float64{float64(v.i)}, true
	case KindFloat, KindQuantity:
		return []float64{v.f}, true
	case KindIntSlice, KindFloatSlice:
		return v.AsFloats()
	default:
		return nil, false
	}
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// equalWithin compares two values with tolerance-aware closeness.
// The diagnostic is empty when the values match.
func (v Value) equalWithin(o Value, t Tols) (bool, string) {
	// Numeric scalars cross-compare regardless of integer width.
	vn, vok := v.scalarFloat()
	on, ook := o.scalarFloat()
	if vok && ook {
		if v.kind == KindQuantity || o.kind == KindQuantity {
			if v.kind != o.kind {
				return false, fmt.Sprintf("kinds differ: %s vs %s", v.kind, o.kind)
			}
			if !v.dims.Matches(o.dims) {
				return false, fmt.Sprintf("unit dimensions differ: %s vs %s", v.dims, o.dims)
			}
		}
		if !closeTo(vn, on, t) {
			return false, fmt.Sprintf("values are not close: %v vs %v", vn, on)
		}
		return true, ""
	}

	if v.kind != o.kind {
		return false, fmt.Sprintf("kinds differ: %s vs %s", v.kind, o.kind)
	}

	switch v.kind {
	case KindNull:
		return true, ""
	case KindBool:
		if v.b != o.b {
			return false, fmt.Sprintf("values differ: %v vs %v", v.b, o.b)
		}
	case KindString:
		if strings.TrimSpace(v.s) != strings.TrimSpace(o.s) {
			return false, fmt.Sprintf("strings differ: %q vs %q", v.s, o.s)
		}
	case KindBytes:
		if !bytes.Equal(v.raw, o.raw) {
			return false, "byte strings differ"
		}
	case KindStringSlice:
		if len(v.ss) != len(o.ss) {
			return false, fmt.Sprintf("lengths differ: %d vs %d", len(v.ss), len(o.ss))
		}
		for i := range v.ss {
			if strings.TrimSpace(v.ss[i]) != strings.TrimSpace(o.ss[i]) {
				return false, fmt.Sprintf("element %d differs: %q vs %q", i, v.ss[i], o.ss[i])
			}
		}
	case KindIntSlice, KindFloatSlice:
		if !shapesEqual(v.Shape(), o.Shape()) {
			return false, fmt.Sprintf("shapes differ: %v vs %v", v.Shape(), o.Shape())
		}
		vf, _ := v.AsFloats()
		of, _ := o.AsFloats()
		for i := range vf {
			if !closeTo(vf[i], of[i], t) {
				return false, fmt.Sprintf("element %d is not close: %v vs %v", i, vf[i], of[i])
			}
		}
	case KindMap:
		return mapsEqualWithin(v.m, o.m, t)
	default:
		return false, fmt.Sprintf("cannot compare kind %s", v.kind)
	}
	return true, ""
}

func (v Value) scalarFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat, KindQuantity:
		return v.f, true
	default:
		return 0, false
	}
}

// mapsEqualWithin compares keyword maps with case-insensitive keys and
// per-key closeness.
func mapsEqualWithin(a, b map[string]Value, t Tols) (bool, string) {
	fold := func(m map[string]Value) (map[string]Value, string) {
		out := make(map[string]Value, len(m))
		for k, val := range m {
			lk := strings.ToLower(k)
			if _, dup := out[lk]; dup {
				return nil, fmt.Sprintf("duplicate key %q after case folding", lk)
			}
			out[lk] = val
		}
		return out, ""
	}
	fa, msg := fold(a)
	if msg != "" {
		return false, msg
	}
	fb, msg := fold(b)
	if msg != "" {
		return false, msg
	}
	if len(fa) != len(fb) {
		return false, fmt.Sprintf("key counts differ: %d vs %d", len(fa), len(fb))
	}
	for k, va := range fa {
		vb, ok := fb[k]
		if !ok {
			return false, fmt.Sprintf("key %q missing from one side", k)
		}
		if eq, diag := va.equalWithin(vb, t); !eq {
			return false, fmt.Sprintf("key %q: %s", k, diag)
		}
	}
	return true, ""
}

// String renders a compact description for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "<null>"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindBytes:
		return fmt.Sprintf("bytes[%d]", len(v.raw))
	case KindQuantity:
		return fmt.Sprintf("%g %s", v.f, v.dims)
	default:
		return fmt.Sprintf("%s%v", v.kind, v.Shape())
	}
}

// wireValue is the serialized form of a Value. Kind tags are stable
// strings so headers stay readable and forward-decodable.
type wireValue struct {
	Kind   string           `json:"k"`
	Bool   *bool            `json:"b,omitempty"`
	Int    *int64           `json:"i,omitempty"`
	Float  *float64         `json:"f,omitempty"`
	Str    *string          `json:"s,omitempty"`
	Bytes  []byte           `json:"raw,omitempty"`
	Strs   []string         `json:"ss,omitempty"`
	Ints   []int64          `json:"is,omitempty"`
	Floats []float64        `json:"fs,omitempty"`
	Shape  []int            `json:"shape,omitempty"`
	Map    map[string]Value `json:"m,omitempty"`
	Dims   map[string]int   `json:"d,omitempty"`
}

var kindNames = map[Kind]string{
	KindNull:        "null",
	KindBool:        "bool",
	KindInt:         "int",
	KindFloat:       "float",
	KindString:      "string",
	KindBytes:       "bytes",
	KindStringSlice: "strings",
	KindIntSlice:    "ints",
	KindFloatSlice:  "floats",
	KindMap:         "map",
	KindQuantity:    "quantity",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Kind: kindNames[v.kind]}
	switch v.kind {
	case KindNull:
	case KindBool:
		w.Bool = &v.b
	case KindInt:
		w.Int = &v.i
	case KindFloat:
		w.Float = &v.f
	case KindString:
		w.Str = &v.s
	case KindBytes:
		w.Bytes = v.raw
	case KindStringSlice:
		w.Strs = v.ss
	case KindIntSlice:
		w.Ints = v.is
	case KindFloatSlice:
		w.Floats = v.fs
		w.Shape = v.shape
	case KindMap:
		w.Map = v.m
	case KindQuantity:
		w.Float = &v.f
		w.Dims = make(map[string]int, len(v.dims))
		for d, pow := range v.dims {
			w.Dims[strconv.Itoa(int(d))] = pow
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	k, ok := kindsByName[w.Kind]
	if !ok {
		return fmt.Errorf("param: unknown value kind %q", w.Kind)
	}
	*v = Value{kind: k}
	switch k {
	case KindNull:
	case KindBool:
		if w.Bool != nil {
			v.b = *w.Bool
		}
	case KindInt:
		if w.Int != nil {
			v.i = *w.Int
		}
	case KindFloat:
		if w.Float != nil {
			v.f = *w.Float
		}
	case KindString:
		if w.Str != nil {
			v.s = *w.Str
		}
	case KindBytes:
		v.raw = w.Bytes
	case KindStringSlice:
		v.ss = w.Strs
	case KindIntSlice:
		v.is = w.Ints
	case KindFloatSlice:
		v.fs = w.Floats
		v.shape = w.Shape
	case KindMap:
		v.m = w.Map
	case KindQuantity:
		if w.Float != nil {
			v.f = *w.Float
		}
		v.dims = make(unit.Dimensions, len(w.Dims))
		for ds, pow := range w.Dims {
			d, err := strconv.Atoi(ds)
			if err != nil {
				return fmt.Errorf("param: bad dimension key %q: %w", ds, err)
			}
			v.dims[unit.Dimension(d)] = pow
		}
	}
	return nil
}
