package cube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillComplex(c *Complex) {
	s := c.Shape()
	for i := 0; i < s[0]; i++ {
		for j := 0; j < s[1]; j++ {
			for k := 0; k < s[2]; k++ {
				for l := 0; l < s[3]; l++ {
					c.Set(i, j, k, l, complex(float64(s.Index(i, j, k, l)), -1))
				}
			}
		}
	}
}

func TestShape(t *testing.T) {
	s := Shape{4, 1, 8, 2}
	assert.Equal(t, 64, s.Size())
	assert.Equal(t, [4]int{16, 16, 2, 1}, s.Strides())
	assert.Equal(t, 0, s.Index(0, 0, 0, 0))
	assert.Equal(t, 63, s.Index(3, 0, 7, 1))
	assert.Equal(t, "(4, 1, 8, 2)", s.String())
}

func TestComplexSubset(t *testing.T) {
	c := NewComplex128(Shape{4, 1, 8, 2})
	fillComplex(c)

	sub, err := c.Subset([4][]int{{1, 3}, nil, {0, 2, 4}, {1}})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 1, 3, 1}, sub.Shape())
	assert.Equal(t, c.At(1, 0, 0, 1), sub.At(0, 0, 0, 0))
	assert.Equal(t, c.At(3, 0, 4, 1), sub.At(1, 0, 2, 0))

	_, err = c.Subset([4][]int{{4}, nil, nil, nil})
	assert.Error(t, err)
}

func TestComplexSetRegionRoundTrip(t *testing.T) {
	full := NewComplex64(Shape{4, 1, 8, 2})
	part := NewComplex64(Shape{2, 1, 3, 2})
	for i := range part.Data64() {
		part.Data64()[i] = complex(float32(i), 0.5)
	}

	idx := [4][]int{{0, 2}, nil, {1, 4, 6}, nil}
	require.NoError(t, full.SetRegion(part, idx))

	got, err := full.Subset(idx)
	require.NoError(t, err)
	assert.True(t, got.EqualApprox(part, 0, 0))

	// Untouched elements stay zero.
	assert.Equal(t, complex128(0), full.At(1, 0, 0, 0))
}

func TestComplexWidthMismatch(t *testing.T) {
	wide := NewComplex128(Shape{2, 1, 2, 2})
	narrow := NewComplex64(Shape{2, 1, 2, 2})
	err := wide.SetRegion(narrow, [4][]int{nil, nil, nil, nil})
	assert.Error(t, err)
}

func TestComplexEqualApprox(t *testing.T) {
	a := NewComplex128(Shape{2, 1, 2, 2})
	b := NewComplex128(Shape{2, 1, 2, 2})
	fillComplex(a)
	fillComplex(b)
	assert.True(t, a.EqualApprox(b, 1e-5, 1e-8))

	b.Set(1, 0, 1, 1, b.At(1, 0, 1, 1)+1)
	assert.False(t, a.EqualApprox(b, 1e-5, 1e-8))

	// Width-insensitive comparison.
	n := NewComplex64(Shape{2, 1, 2, 2})
	w := NewComplex128(Shape{2, 1, 2, 2})
	n.Set(0, 0, 0, 0, 1+2i)
	w.Set(0, 0, 0, 0, 1+2i)
	assert.True(t, n.EqualApprox(w, 1e-5, 1e-8))
}

func TestFloatSubsetAndRegion(t *testing.T) {
	f := NewFloat32(Shape{3, 1, 4, 2})
	for i := range f.Data32() {
		f.Data32()[i] = float32(i) * 0.5
	}

	sub, err := f.Subset([4][]int{{2}, nil, {3, 1}, nil})
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 1, 2, 2}, sub.Shape())
	assert.Equal(t, f.At(2, 0, 3, 0), sub.At(0, 0, 0, 0))
	assert.Equal(t, f.At(2, 0, 1, 1), sub.At(0, 0, 1, 1))

	g := NewFloat32(Shape{3, 1, 4, 2})
	require.NoError(t, g.SetRegion(sub, [4][]int{{2}, nil, {3, 1}, nil}))
	back, err := g.Subset([4][]int{{2}, nil, {3, 1}, nil})
	require.NoError(t, err)
	assert.True(t, back.EqualApprox(sub, 0, 0))
}

func TestBool(t *testing.T) {
	b := NewBool(Shape{2, 1, 3, 2})
	b.Set(1, 0, 2, 1, true)

	sub, err := b.Subset([4][]int{{1}, nil, {2}, nil})
	require.NoError(t, err)
	assert.False(t, sub.At(0, 0, 0, 0))
	assert.True(t, sub.At(0, 0, 0, 1))

	o := NewBool(Shape{2, 1, 3, 2})
	assert.False(t, b.Equal(o))
	o.Set(1, 0, 2, 1, true)
	assert.True(t, b.Equal(o))
}

func TestSetRegionShapeMismatch(t *testing.T) {
	full := NewBool(Shape{4, 1, 8, 2})
	part := NewBool(Shape{2, 1, 8, 2})
	err := full.SetRegion(part, [4][]int{{0}, nil, nil, nil})
	assert.Error(t, err)
}
