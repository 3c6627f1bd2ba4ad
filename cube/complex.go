package cube

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// Complex is a 4-D complex array with either 64- or 128-bit elements.
// The element width is fixed at construction and preserved through
// Subset so narrow data never silently widens on disk.
type Complex struct {
	shape Shape
	c64   []complex64
	c128  []complex128
}

// NewComplex64 allocates a zero-filled array of complex64 elements.
func NewComplex64(shape Shape) *Complex {
	mustValid(shape)
	return &Complex{shape: shape, c64: make([]complex64, shape.Size())}
}

// NewComplex128 allocates a zero-filled array of complex128 elements.
func NewComplex128(shape Shape) *Complex {
	mustValid(shape)
	return &Complex{shape: shape, c128: make([]complex128, shape.Size())}
}

func mustValid(s Shape) {
	if !s.valid() {
		panic(fmt.Sprintf("cube: invalid shape %s", s))
	}
}

// Shape returns the array extents.
func (c *Complex) Shape() Shape { return c.shape }

// Wide reports whether elements are complex128.
func (c *Complex) Wide() bool { return c.c128 != nil }

// At returns the element at (i, j, k, l), widened if necessary.
func (c *Complex) At(i, j, k, l int) complex128 {
	n := c.shape.Index(i, j, k, l)
	if c.c128 != nil {
		return c.c128[n]
	}
	return complex128(c.c64[n])
}

// Set stores v at (i, j, k, l), narrowing if necessary.
func (c *Complex) Set(i, j, k, l int, v complex128) {
	n := c.shape.Index(i, j, k, l)
	if c.c128 != nil {
		c.c128[n] = v
		return
	}
	c.c64[n] = complex64(v)
}

// Data64 exposes the backing slice of a narrow array.
func (c *Complex) Data64() []complex64 { return c.c64 }

// Data128 exposes the backing slice of a wide array.
func (c *Complex) Data128() []complex128 { return c.c128 }

// Subset gathers the selected region into a new array of the same
// element width. A nil index list selects the full axis.
func (c *Complex) Subset(idx [4][]int) (*Complex, error) {
	norm, sub, err := normalize(c.shape, idx)
	if err != nil {
		return nil, err
	}
	out := &Complex{shape: sub}
	if c.c128 != nil {
		out.c128 = make([]complex128, sub.Size())
		gatherInto(out.c128, c.c128, c.shape, norm)
	} else {
		out.c64 = make([]complex64, sub.Size())
		gatherInto(out.c64, c.c64, c.shape, norm)
	}
	return out, nil
}

// SetRegion scatters src into the selected region. src's shape must
// match the selection, and its element width must match the receiver.
func (c *Complex) SetRegion(src *Complex, idx [4][]int) error {
	norm, sub, err := normalize(c.shape, idx)
	if err != nil {
		return err
	}
	if src.shape != sub {
		return fmt.Errorf("cube: source shape %s does not match selection %s", src.shape, sub)
	}
	if src.Wide() != c.Wide() {
		return fmt.Errorf("cube: element width mismatch in SetRegion")
	}
	if c.c128 != nil {
		scatterFrom(c.c128, src.c128, c.shape, norm)
	} else {
		scatterFrom(c.c64, src.c64, c.shape, norm)
	}
	return nil
}

// EqualApprox compares element-wise with the given tolerances, ignoring
// element width.
func (c *Complex) EqualApprox(o *Complex, rtol, atol float64) bool {
	if c.shape != o.shape {
		return false
	}
	n := c.shape.Size()
	for i := 0; i < n; i++ {
		a, b := c.at(i), o.at(i)
		if !scalar.EqualWithinAbsOrRel(real(a), real(b), atol, rtol) ||
			!scalar.EqualWithinAbsOrRel(imag(a), imag(b), atol, rtol) {
			return false
		}
	}
	return true
}

func (c *Complex) at(n int) complex128 {
	if c.c128 != nil {
		return c.c128[n]
	}
	return complex128(c.c64[n])
}
