package cube

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// Float is a 4-D float array with either 32- or 64-bit elements.
type Float struct {
	shape Shape
	f32   []float32
	f64   []float64
}

// NewFloat32 allocates a zero-filled array of float32 elements.
func NewFloat32(shape Shape) *Float {
	mustValid(shape)
	return &Float{shape: shape, f32: make([]float32, shape.Size())}
}

// NewFloat64 allocates a zero-filled array of float64 elements.
func NewFloat64(shape Shape) *Float {
	mustValid(shape)
	return &Float{shape: shape, f64: make([]float64, shape.Size())}
}

// Shape returns the array extents.
func (f *Float) Shape() Shape { return f.shape }

// Wide reports whether elements are float64.
func (f *Float) Wide() bool { return f.f64 != nil }

// At returns the element at (i, j, k, l), widened if necessary.
func (f *Float) At(i, j, k, l int) float64 {
	n := f.shape.Index(i, j, k, l)
	if f.f64 != nil {
		return f.f64[n]
	}
	return float64(f.f32[n])
}

// Set stores v at (i, j, k, l), narrowing if necessary.
func (f *Float) Set(i, j, k, l int, v float64) {
	n := f.shape.Index(i, j, k, l)
	if f.f64 != nil {
		f.f64[n] = v
		return
	}
	f.f32[n] = float32(v)
}

// Data32 exposes the backing slice of a narrow array.
func (f *Float) Data32() []float32 { return f.f32 }

// Data64 exposes the backing slice of a wide array.
func (f *Float) Data64() []float64 { return f.f64 }

// Subset gathers the selected region into a new array of the same
// element width.
func (f *Float) Subset(idx [4][]int) (*Float, error) {
	norm, sub, err := normalize(f.shape, idx)
	if err != nil {
		return nil, err
	}
	out := &Float{shape: sub}
	if f.f64 != nil {
		out.f64 = make([]float64, sub.Size())
		gatherInto(out.f64, f.f64, f.shape, norm)
	} else {
		out.f32 = make([]float32, sub.Size())
		gatherInto(out.f32, f.f32, f.shape, norm)
	}
	return out, nil
}

// SetRegion scatters src into the selected region.
func (f *Float) SetRegion(src *Float, idx [4][]int) error {
	norm, sub, err := normalize(f.shape, idx)
	if err != nil {
		return err
	}
	if src.shape != sub {
		return fmt.Errorf("cube: source shape %s does not match selection %s", src.shape, sub)
	}
	if src.Wide() != f.Wide() {
		return fmt.Errorf("cube: element width mismatch in SetRegion")
	}
	if f.f64 != nil {
		scatterFrom(f.f64, src.f64, f.shape, norm)
	} else {
		scatterFrom(f.f32, src.f32, f.shape, norm)
	}
	return nil
}

// EqualApprox compares element-wise with the given tolerances.
func (f *Float) EqualApprox(o *Float, rtol, atol float64) bool {
	if f.shape != o.shape {
		return false
	}
	n := f.shape.Size()
	for i := 0; i < n; i++ {
		if !scalar.EqualWithinAbsOrRel(f.at(i), o.at(i), atol, rtol) {
			return false
		}
	}
	return true
}

func (f *Float) at(n int) float64 {
	if f.f64 != nil {
		return f.f64[n]
	}
	return float64(f.f32[n])
}
