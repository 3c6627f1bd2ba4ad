package hvf

import (
	"errors"
	"fmt"
)

// Element type kinds. All numeric kinds are little-endian on disk.
const (
	KindBool    = "bool"
	KindInt     = "int"
	KindUint    = "uint"
	KindFloat   = "float"
	KindComplex = "complex"
	// KindCompound is a two-field struct standing in for a complex
	// number in containers whose type system has no native complex.
	KindCompound = "compound"
)

// ErrBadCompound rejects compound element types that cannot represent a
// complex number.
var ErrBadCompound = errors.New("hvf: compound type is not a complex pair")

// Field is one member of a compound element type.
type Field struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Bits int    `json:"bits"`
}

// DType describes a dataset's element type.
type DType struct {
	Kind   string  `json:"kind"`
	Bits   int     `json:"bits,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Canonical element types.
var (
	Bool       = DType{Kind: KindBool, Bits: 8}
	Float32    = DType{Kind: KindFloat, Bits: 32}
	Float64    = DType{Kind: KindFloat, Bits: 64}
	Complex64  = DType{Kind: KindComplex, Bits: 64}
	Complex128 = DType{Kind: KindComplex, Bits: 128}
)

// CompoundFromFields builds a compound complex stand-in. Exactly two
// fields named "r" and "i", in that order, of the same kind and width,
// are accepted; anything else fails CheckCompound.
func CompoundFromFields(fields []Field) (DType, error) {
	dt := DType{Kind: KindCompound, Fields: fields}
	if err := CheckCompound(dt); err != nil {
		return DType{}, err
	}
	return dt, nil
}

// Compound is CompoundFromFields for a homogeneous r/i pair.
func Compound(kind string, bits int) (DType, error) {
	return CompoundFromFields([]Field{
		{Name: "r", Kind: kind, Bits: bits},
		{Name: "i", Kind: kind, Bits: bits},
	})
}

// CheckCompound verifies that a compound element type is decodable as a
// complex number: exactly two same-kind, same-width numeric fields
// named "r" and "i".
func CheckCompound(dt DType) error {
	if dt.Kind != KindCompound {
		return fmt.Errorf("%w: kind is %s", ErrBadCompound, dt.Kind)
	}
	if len(dt.Fields) != 2 {
		return fmt.Errorf("%w: %d fields, want 2", ErrBadCompound, len(dt.Fields))
	}
	r, i := dt.Fields[0], dt.Fields[1]
	if r.Name != "r" || i.Name != "i" {
		return fmt.Errorf("%w: fields are named %q and %q, want \"r\" and \"i\"", ErrBadCompound, r.Name, i.Name)
	}
	if r.Kind != i.Kind {
		return fmt.Errorf("%w: field kinds differ: %s vs %s", ErrBadCompound, r.Kind, i.Kind)
	}
	if r.Bits != i.Bits {
		return fmt.Errorf("%w: field widths differ: %d vs %d", ErrBadCompound, r.Bits, i.Bits)
	}
	switch r.Kind {
	case KindInt, KindUint:
		switch r.Bits {
		case 8, 16, 32, 64:
		default:
			return fmt.Errorf("%w: unsupported integer width %d", ErrBadCompound, r.Bits)
		}
	case KindFloat:
		switch r.Bits {
		case 32, 64:
		default:
			return fmt.Errorf("%w: unsupported float width %d", ErrBadCompound, r.Bits)
		}
	default:
		return fmt.Errorf("%w: unsupported field kind %s", ErrBadCompound, r.Kind)
	}
	return nil
}

// ElemSize returns the on-disk byte size of one element.
func (dt DType) ElemSize() int {
	switch dt.Kind {
	case KindCompound:
		n := 0
		for _, f := range dt.Fields {
			n += f.Bits / 8
		}
		return n
	default:
		return dt.Bits / 8
	}
}

// IsComplex reports whether elements decode to complex numbers.
func (dt DType) IsComplex() bool {
	return dt.Kind == KindComplex || dt.Kind == KindCompound
}

// Validate rejects element types the container cannot store.
func (dt DType) Validate() error {
	switch dt.Kind {
	case KindBool:
		if dt.Bits != 8 {
			return fmt.Errorf("hvf: bool elements must be 8 bits, got %d", dt.Bits)
		}
	case KindFloat:
		if dt.Bits != 32 && dt.Bits != 64 {
			return fmt.Errorf("hvf: unsupported float width %d", dt.Bits)
		}
	case KindInt, KindUint:
		switch dt.Bits {
		case 8, 16, 32, 64:
		default:
			return fmt.Errorf("hvf: unsupported integer width %d", dt.Bits)
		}
	case KindComplex:
		if dt.Bits != 64 && dt.Bits != 128 {
			return fmt.Errorf("hvf: unsupported complex width %d", dt.Bits)
		}
	case KindCompound:
		return CheckCompound(dt)
	default:
		return fmt.Errorf("hvf: unknown element kind %q", dt.Kind)
	}
	return nil
}

// Equals reports structural element type equality.
func (dt DType) Equals(o DType) bool {
	if dt.Kind != o.Kind || dt.Bits != o.Bits || len(dt.Fields) != len(o.Fields) {
		return false
	}
	for i := range dt.Fields {
		if dt.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

func (dt DType) String() string {
	if dt.Kind == KindCompound {
		return fmt.Sprintf("compound(%s%d,%s%d)",
			dt.Fields[0].Kind, dt.Fields[0].Bits, dt.Fields[1].Kind, dt.Fields[1].Bits)
	}
	return fmt.Sprintf("%s%d", dt.Kind, dt.Bits)
}
