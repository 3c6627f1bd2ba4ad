package cube

import "fmt"

// concatShape joins two shapes along one axis. Every other dimension
// must agree.
func concatShape(axis int, a, b Shape) (Shape, error) {
	if axis < 0 || axis > 3 {
		return Shape{}, fmt.Errorf("cube: concat axis %d out of range", axis)
	}
	for d := 0; d < 4; d++ {
		if d != axis && a[d] != b[d] {
			return Shape{}, fmt.Errorf("cube: shapes %s and %s disagree on dimension %d", a, b, d)
		}
	}
	out := a
	out[axis] += b[axis]
	return out, nil
}

// blocks returns the interleave geometry for a concat along axis: the
// number of outer blocks and each input's block length in elements.
func blocks(axis int, a, b Shape) (outer, ablk, bblk int) {
	inner := 1
	for d := axis + 1; d < 4; d++ {
		inner *= a[d]
	}
	outer = 1
	for d := 0; d < axis; d++ {
		outer *= a[d]
	}
	return outer, a[axis] * inner, b[axis] * inner
}

func interleave[T any](dst, a, b []T, outer, ablk, bblk int) {
	for i := 0; i < outer; i++ {
		copy(dst[i*(ablk+bblk):], a[i*ablk:(i+1)*ablk])
		copy(dst[i*(ablk+bblk)+ablk:], b[i*bblk:(i+1)*bblk])
	}
}

// ConcatComplex joins two complex cubes along an axis. Mixed widths
// widen the result.
func ConcatComplex(axis int, a, b *Complex) (*Complex, error) {
	shape, err := concatShape(axis, a.Shape(), b.Shape())
	if err != nil {
		return nil, err
	}
	outer, ablk, bblk := blocks(axis, a.Shape(), b.Shape())
	if a.Wide() == b.Wide() {
		if a.Wide() {
			out := NewComplex128(shape)
			interleave(out.c128, a.c128, b.c128, outer, ablk, bblk)
			return out, nil
		}
		out := NewComplex64(shape)
		interleave(out.c64, a.c64, b.c64, outer, ablk, bblk)
		return out, nil
	}
	out := NewComplex128(shape)
	interleave(out.c128, wide128(a), wide128(b), outer, ablk, bblk)
	return out, nil
}

func wide128(c *Complex) []complex128 {
	if c.Wide() {
		return c.c128
	}
	out := make([]complex128, len(c.c64))
	for i, v := range c.c64 {
		out[i] = complex128(v)
	}
	return out
}

// ConcatFloat joins two float cubes along an axis. Mixed widths widen
// the result.
func ConcatFloat(axis int, a, b *Float) (*Float, error) {
	shape, err := concatShape(axis, a.Shape(), b.Shape())
	if err != nil {
		return nil, err
	}
	outer, ablk, bblk := blocks(axis, a.Shape(), b.Shape())
	if a.Wide() == b.Wide() {
		if a.Wide() {
			out := NewFloat64(shape)
			interleave(out.f64, a.f64, b.f64, outer, ablk, bblk)
			return out, nil
		}
		out := NewFloat32(shape)
		interleave(out.f32, a.f32, b.f32, outer, ablk, bblk)
		return out, nil
	}
	out := NewFloat64(shape)
	interleave(out.f64, wide64(a), wide64(b), outer, ablk, bblk)
	return out, nil
}

func wide64(f *Float) []float64 {
	if f.Wide() {
		return f.f64
	}
	out := make([]float64, len(f.f32))
	for i, v := range f.f32 {
		out[i] = float64(v)
	}
	return out
}

// ConcatBool joins two bool cubes along an axis.
func ConcatBool(axis int, a, b *Bool) (*Bool, error) {
	shape, err := concatShape(axis, a.Shape(), b.Shape())
	if err != nil {
		return nil, err
	}
	outer, ablk, bblk := blocks(axis, a.Shape(), b.Shape())
	out := NewBool(shape)
	interleave(out.data, a.data, b.data, outer, ablk, bblk)
	return out, nil
}
