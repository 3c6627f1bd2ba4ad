package hvf

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/radioastro/uvio/cube"
)

// putField stores one compound sub-field value.
func putField(buf []byte, f Field, v float64) {
	switch f.Kind {
	case KindFloat:
		if f.Bits == 32 {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
		} else {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		}
	case KindInt, KindUint:
		n := uint64(int64(math.Round(v)))
		switch f.Bits {
		case 8:
			buf[0] = byte(n)
		case 16:
			binary.LittleEndian.PutUint16(buf, uint16(n))
		case 32:
			binary.LittleEndian.PutUint32(buf, uint32(n))
		case 64:
			binary.LittleEndian.PutUint64(buf, n)
		}
	}
}

// getField loads one compound sub-field value.
func getField(buf []byte, f Field) float64 {
	switch f.Kind {
	case KindFloat:
		if f.Bits == 32 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(buf))
	case KindInt:
		switch f.Bits {
		case 8:
			return float64(int8(buf[0]))
		case 16:
			return float64(int16(binary.LittleEndian.Uint16(buf)))
		case 32:
			return float64(int32(binary.LittleEndian.Uint32(buf)))
		case 64:
			return float64(int64(binary.LittleEndian.Uint64(buf)))
		}
	case KindUint:
		switch f.Bits {
		case 8:
			return float64(buf[0])
		case 16:
			return float64(binary.LittleEndian.Uint16(buf))
		case 32:
			return float64(binary.LittleEndian.Uint32(buf))
		case 64:
			return float64(binary.LittleEndian.Uint64(buf))
		}
	}
	return 0
}

// EncodeComplex packs a complex cube for a dataset of element type dt.
// Compound elements are written one at a time, real sub-field then imag
// sub-field, without staging a second full-size buffer.
func EncodeComplex(dt DType, c *cube.Complex) ([]byte, error) {
	if !dt.IsComplex() {
		return nil, fmt.Errorf("hvf: cannot store complex data in a %s dataset", dt)
	}
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	n := c.Shape().Size()
	es := dt.ElemSize()
	out := make([]byte, n*es)

	at := func(i int) complex128 {
		if w := c.Data128(); w != nil {
			return w[i]
		}
		return complex128(c.Data64()[i])
	}

	switch dt.Kind {
	case KindComplex:
		if dt.Bits == 64 {
			for i := 0; i < n; i++ {
				v := at(i)
				binary.LittleEndian.PutUint32(out[i*8:], math.Float32bits(float32(real(v))))
				binary.LittleEndian.PutUint32(out[i*8+4:], math.Float32bits(float32(imag(v))))
			}
		} else {
			for i := 0; i < n; i++ {
				v := at(i)
				binary.LittleEndian.PutUint64(out[i*16:], math.Float64bits(real(v)))
				binary.LittleEndian.PutUint64(out[i*16+8:], math.Float64bits(imag(v)))
			}
		}
	case KindCompound:
		fw := dt.Fields[0].Bits / 8
		for i := 0; i < n; i++ {
			v := at(i)
			putField(out[i*es:], dt.Fields[0], real(v))
			putField(out[i*es+fw:], dt.Fields[1], imag(v))
		}
	}
	return out, nil
}

// DecodeComplex unpacks dataset bytes into a complex cube. wide selects
// complex128 elements; the only other target is complex64.
func DecodeComplex(dt DType, data []byte, shape cube.Shape, wide bool) (*cube.Complex, error) {
	if !dt.IsComplex() {
		return nil, fmt.Errorf("hvf: cannot decode a %s dataset as complex data", dt)
	}
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	n := shape.Size()
	es := dt.ElemSize()
	if len(data) != n*es {
		return nil, fmt.Errorf("hvf: got %d bytes for %d %s elements", len(data), n, dt)
	}

	var out *cube.Complex
	if wide {
		out = cube.NewComplex128(shape)
	} else {
		out = cube.NewComplex64(shape)
	}
	set := func(i int, v complex128) {
		if w := out.Data128(); w != nil {
			w[i] = v
		} else {
			out.Data64()[i] = complex64(v)
		}
	}

	switch dt.Kind {
	case KindComplex:
		if dt.Bits == 64 {
			for i := 0; i < n; i++ {
				re := math.Float32frombits(binary.LittleEndian.Uint32(data[i*8:]))
				im := math.Float32frombits(binary.LittleEndian.Uint32(data[i*8+4:]))
				set(i, complex(float64(re), float64(im)))
			}
		} else {
			for i := 0; i < n; i++ {
				re := math.Float64frombits(binary.LittleEndian.Uint64(data[i*16:]))
				im := math.Float64frombits(binary.LittleEndian.Uint64(data[i*16+8:]))
				set(i, complex(re, im))
			}
		}
	case KindCompound:
		fw := dt.Fields[0].Bits / 8
		for i := 0; i < n; i++ {
			re := getField(data[i*es:], dt.Fields[0])
			im := getField(data[i*es+fw:], dt.Fields[1])
			set(i, complex(re, im))
		}
	}
	return out, nil
}

// EncodeFloat packs a float cube for a dataset of element type dt.
func EncodeFloat(dt DType, f *cube.Float) ([]byte, error) {
	if dt.Kind != KindFloat {
		return nil, fmt.Errorf("hvf: cannot store float data in a %s dataset", dt)
	}
	n := f.Shape().Size()
	at := func(i int) float64 {
		if w := f.Data64(); w != nil {
			return w[i]
		}
		return float64(f.Data32()[i])
	}
	if dt.Bits == 32 {
		out := make([]byte, n*4)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(at(i))))
		}
		return out, nil
	}
	out := make([]byte, n*8)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(at(i)))
	}
	return out, nil
}

// DecodeFloat unpacks dataset bytes into a float cube of the same
// element width as the dataset.
func DecodeFloat(dt DType, data []byte, shape cube.Shape) (*cube.Float, error) {
	if dt.Kind != KindFloat {
		return nil, fmt.Errorf("hvf: cannot decode a %s dataset as float data", dt)
	}
	n := shape.Size()
	if len(data) != n*dt.Bits/8 {
		return nil, fmt.Errorf("hvf: got %d bytes for %d %s elements", len(data), n, dt)
	}
	if dt.Bits == 32 {
		out := cube.NewFloat32(shape)
		dst := out.Data32()
		for i := 0; i < n; i++ {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return out, nil
	}
	out := cube.NewFloat64(shape)
	dst := out.Data64()
	for i := 0; i < n; i++ {
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return out, nil
}

// EncodeBool packs a bool cube, one byte per element.
func EncodeBool(b *cube.Bool) []byte {
	src := b.Data()
	out := make([]byte, len(src))
	for i, v := range src {
		if v {
			out[i] = 1
		}
	}
	return out
}

// DecodeBool unpacks dataset bytes into a bool cube.
func DecodeBool(data []byte, shape cube.Shape) (*cube.Bool, error) {
	if len(data) != shape.Size() {
		return nil, fmt.Errorf("hvf: got %d bytes for %d bool elements", len(data), shape.Size())
	}
	out := cube.NewBool(shape)
	dst := out.Data()
	for i, v := range data {
		dst[i] = v != 0
	}
	return out, nil
}
