package cube

import "fmt"

// Bool is a 4-D boolean array, used for flag masks.
type Bool struct {
	shape Shape
	data  []bool
}

// NewBool allocates a zero-filled (all-false) array.
func NewBool(shape Shape) *Bool {
	mustValid(shape)
	return &Bool{shape: shape, data: make([]bool, shape.Size())}
}

// Shape returns the array extents.
func (b *Bool) Shape() Shape { return b.shape }

// At returns the element at (i, j, k, l).
func (b *Bool) At(i, j, k, l int) bool { return b.data[b.shape.Index(i, j, k, l)] }

// Set stores v at (i, j, k, l).
func (b *Bool) Set(i, j, k, l int, v bool) { b.data[b.shape.Index(i, j, k, l)] = v }

// Data exposes the backing slice.
func (b *Bool) Data() []bool { return b.data }

// Subset gathers the selected region into a new array.
func (b *Bool) Subset(idx [4][]int) (*Bool, error) {
	norm, sub, err := normalize(b.shape, idx)
	if err != nil {
		return nil, err
	}
	out := &Bool{shape: sub, data: make([]bool, sub.Size())}
	gatherInto(out.data, b.data, b.shape, norm)
	return out, nil
}

// SetRegion scatters src into the selected region.
func (b *Bool) SetRegion(src *Bool, idx [4][]int) error {
	norm, sub, err := normalize(b.shape, idx)
	if err != nil {
		return err
	}
	if src.shape != sub {
		return fmt.Errorf("cube: source shape %s does not match selection %s", src.shape, sub)
	}
	scatterFrom(b.data, src.data, b.shape, norm)
	return nil
}

// Equal compares element-wise.
func (b *Bool) Equal(o *Bool) bool {
	if b.shape != o.shape {
		return false
	}
	for i, v := range b.data {
		if v != o.data[i] {
			return false
		}
	}
	return true
}
