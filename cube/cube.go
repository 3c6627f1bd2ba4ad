// Package cube holds the in-memory 4-D array values moved by the
// partial I/O engine: visibilities, flags, and sample counts over the
// axes (baseline-times, spectral windows, frequencies, polarizations).
package cube

import "fmt"

// Shape is the extent of each of the four axes, in row-major order.
type Shape [4]int

// Size returns the total element count.
func (s Shape) Size() int {
	return s[0] * s[1] * s[2] * s[3]
}

// Strides returns the row-major element stride of each axis.
func (s Shape) Strides() [4]int {
	return [4]int{s[1] * s[2] * s[3], s[2] * s[3], s[3], 1}
}

// Index returns the flat offset of (i, j, k, l).
func (s Shape) Index(i, j, k, l int) int {
	return ((i*s[1]+j)*s[2]+k)*s[3] + l
}

func (s Shape) valid() bool {
	for _, d := range s {
		if d < 0 {
			return false
		}
	}
	return true
}

// Equals reports exact shape equality.
func (s Shape) Equals(o Shape) bool { return s == o }

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", s[0], s[1], s[2], s[3])
}

// normalize expands a per-axis selection into explicit bounds-checked
// index lists. A nil list selects the full axis.
func normalize(shape Shape, idx [4][]int) ([4][]int, Shape, error) {
	var out [4][]int
	var sub Shape
	for ax := 0; ax < 4; ax++ {
		if idx[ax] == nil {
			full := make([]int, shape[ax])
			for i := range full {
				full[i] = i
			}
			out[ax] = full
			sub[ax] = shape[ax]
			continue
		}
		for _, i := range idx[ax] {
			if i < 0 || i >= shape[ax] {
				return out, sub, fmt.Errorf("cube: index %d out of range on axis %d (extent %d)", i, ax, shape[ax])
			}
		}
		out[ax] = idx[ax]
		sub[ax] = len(idx[ax])
	}
	return out, sub, nil
}

// gatherInto packs the selected region of src into dst in row-major
// order. idx must already be normalized.
func gatherInto[T any](dst, src []T, shape Shape, idx [4][]int) {
	st := shape.Strides()
	pos := 0
	for _, i0 := range idx[0] {
		b0 := i0 * st[0]
		for _, i1 := range idx[1] {
			b1 := b0 + i1*st[1]
			for _, i2 := range idx[2] {
				b2 := b1 + i2*st[2]
				for _, i3 := range idx[3] {
					dst[pos] = src[b2+i3]
					pos++
				}
			}
		}
	}
}

// scatterFrom unpacks src (row-major over the selection) into the
// selected region of dst. idx must already be normalized.
func scatterFrom[T any](dst, src []T, shape Shape, idx [4][]int) {
	st := shape.Strides()
	pos := 0
	for _, i0 := range idx[0] {
		b0 := i0 * st[0]
		for _, i1 := range idx[1] {
			b1 := b0 + i1*st[1]
			for _, i2 := range idx[2] {
				b2 := b1 + i2*st[2]
				for _, i3 := range idx[3] {
					dst[b2+i3] = src[pos]
					pos++
				}
			}
		}
	}
}
