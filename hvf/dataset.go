package hvf

import (
	"fmt"
)

// Dataset is a named fixed-shape 4-D array inside a container.
type Dataset struct {
	file   *File
	info   datasetInfo
	chunks []chunkEntry
}

// Name returns the dataset name.
func (d *Dataset) Name() string { return d.info.Name }

// Shape returns the full array extents.
func (d *Dataset) Shape() [4]int { return d.info.Shape }

// DType returns the element type.
func (d *Dataset) DType() DType { return d.info.Dtype }

// Chunked reports whether the dataset uses the chunked layout.
func (d *Dataset) Chunked() bool { return d.info.Layout == layoutChunked }

// Compress returns the chunk compression algorithm.
func (d *Dataset) Compress() Compression { return d.info.Compress }

func (d *Dataset) loadChunkTable() error {
	n := d.info.Shape[0]
	buf := make([]byte, n*chunkEntrySize)
	if n > 0 {
		if _, err := d.file.f.ReadAt(buf, d.info.Offset); err != nil {
			return fmt.Errorf("hvf: read chunk table of %s: %w", d.info.Name, err)
		}
	}
	d.chunks = make([]chunkEntry, n)
	for i := range d.chunks {
		d.chunks[i] = decodeChunkEntry(buf[i*chunkEntrySize:])
	}
	return nil
}

// run is a contiguous stretch of selected elements.
type run struct {
	off int // element offset
	n   int // element count
}

func normalizeAxis(extent int, list []int) ([]int, error) {
	if list == nil {
		full := make([]int, extent)
		for i := range full {
			full[i] = i
		}
		return full, nil
	}
	for _, i := range list {
		if i < 0 || i >= extent {
			return nil, fmt.Errorf("hvf: index %d out of range (extent %d)", i, extent)
		}
	}
	return list, nil
}

// rowRuns coalesces the within-row selection (trailing three axes) into
// contiguous element runs relative to the start of a leading-axis row.
func rowRuns(shape [4]int, i1, i2, i3 []int) []run {
	var runs []run
	push := func(off, n int) {
		if len(runs) > 0 && runs[len(runs)-1].off+runs[len(runs)-1].n == off {
			runs[len(runs)-1].n += n
			return
		}
		runs = append(runs, run{off: off, n: n})
	}
	for _, a := range i1 {
		for _, b := range i2 {
			base := (a*shape[2] + b) * shape[3]
			// A stretch of consecutive trailing indices is one run.
			start := 0
			for start < len(i3) {
				end := start + 1
				for end < len(i3) && i3[end] == i3[end-1]+1 {
					end++
				}
				push(base+i3[start], end-start)
				start = end
			}
		}
	}
	return runs
}

// ReadRegion reads the selected region, returned as packed row-major
// element bytes in selection order. A nil axis list selects the full
// axis.
func (d *Dataset) ReadRegion(idx [4][]int) ([]byte, error) {
	i0, i1, i2, i3, err := d.normalized(idx)
	if err != nil {
		return nil, err
	}
	es := d.info.Dtype.ElemSize()
	rowSel := len(i1) * len(i2) * len(i3)
	out := make([]byte, len(i0)*rowSel*es)
	runs := rowRuns(d.info.Shape, i1, i2, i3)

	if d.Chunked() {
		pos := 0
		for _, row := range i0 {
			rowBytes, err := d.readChunk(row)
			if err != nil {
				return nil, err
			}
			for _, r := range runs {
				if rowBytes != nil {
					copy(out[pos:pos+r.n*es], rowBytes[r.off*es:])
				}
				pos += r.n * es
			}
		}
		return out, nil
	}

	rowElems := d.info.Shape[1] * d.info.Shape[2] * d.info.Shape[3]
	pos := 0
	for _, fr := range coalesceRows(i0, rowElems, runs) {
		n := fr.n * es
		if _, err := d.file.f.ReadAt(out[pos:pos+n], d.info.Offset+int64(fr.off)*int64(es)); err != nil {
			return nil, fmt.Errorf("hvf: read %s: %w", d.info.Name, err)
		}
		pos += n
	}
	return out, nil
}

// WriteRegion writes packed row-major element bytes into the selected
// region.
func (d *Dataset) WriteRegion(idx [4][]int, data []byte) error {
	if d.file.ro {
		return ErrReadOnly
	}
	i0, i1, i2, i3, err := d.normalized(idx)
	if err != nil {
		return err
	}
	es := d.info.Dtype.ElemSize()
	rowSel := len(i1) * len(i2) * len(i3)
	want := len(i0) * rowSel * es
	if len(data) != want {
		return fmt.Errorf("hvf: write %s: got %d bytes for a %d-byte selection", d.info.Name, len(data), want)
	}
	runs := rowRuns(d.info.Shape, i1, i2, i3)

	if d.Chunked() {
		pos := 0
		for _, row := range i0 {
			if err := d.writeChunk(row, runs, data[pos:pos+rowSel*es], es); err != nil {
				return err
			}
			pos += rowSel * es
		}
		return nil
	}

	rowElems := d.info.Shape[1] * d.info.Shape[2] * d.info.Shape[3]
	pos := 0
	for _, fr := range coalesceRows(i0, rowElems, runs) {
		n := fr.n * es
		if _, err := d.file.f.WriteAt(data[pos:pos+n], d.info.Offset+int64(fr.off)*int64(es)); err != nil {
			return fmt.Errorf("hvf: write %s: %w", d.info.Name, err)
		}
		pos += n
	}
	return nil
}

func (d *Dataset) normalized(idx [4][]int) (i0, i1, i2, i3 []int, err error) {
	if i0, err = normalizeAxis(d.info.Shape[0], idx[0]); err != nil {
		return
	}
	if i1, err = normalizeAxis(d.info.Shape[1], idx[1]); err != nil {
		return
	}
	if i2, err = normalizeAxis(d.info.Shape[2], idx[2]); err != nil {
		return
	}
	i3, err = normalizeAxis(d.info.Shape[3], idx[3])
	return
}

// coalesceRows expands per-row runs into file-wide element runs,
// merging across consecutive rows so a regular selection collapses to
// few large transfers.
func coalesceRows(rows []int, rowElems int, runs []run) []run {
	var out []run
	for _, row := range rows {
		base := row * rowElems
		for _, r := range runs {
			off := base + r.off
			if len(out) > 0 && out[len(out)-1].off+out[len(out)-1].n == off {
				out[len(out)-1].n += r.n
				continue
			}
			out = append(out, run{off: off, n: r.n})
		}
	}
	return out
}

// readChunk returns a row's uncompressed bytes, or nil for an
// unmaterialized chunk (implicit zeros).
func (d *Dataset) readChunk(row int) ([]byte, error) {
	e := d.chunks[row]
	if e.Off == 0 {
		return nil, nil
	}
	raw := make([]byte, e.CLen)
	if _, err := d.file.f.ReadAt(raw, int64(e.Off)); err != nil {
		return nil, fmt.Errorf("hvf: read chunk %d of %s: %w", row, d.info.Name, err)
	}
	return decompressChunk(d.info.Compress, raw, int(e.ULen))
}

// writeChunk scatters the selected bytes into a row and rewrites it as
// a fresh chunk at EOF. The old chunk becomes garbage; files written
// incrementally stay correct, just not maximally compact.
func (d *Dataset) writeChunk(row int, runs []run, data []byte, es int) error {
	rowBytes, err := d.readChunk(row)
	if err != nil {
		return err
	}
	ulen := d.info.Shape[1] * d.info.Shape[2] * d.info.Shape[3] * es
	if rowBytes == nil {
		rowBytes = make([]byte, ulen)
	}
	pos := 0
	for _, r := range runs {
		copy(rowBytes[r.off*es:], data[pos:pos+r.n*es])
		pos += r.n * es
	}

	comp, err := compressChunk(d.info.Compress, rowBytes)
	if err != nil {
		return fmt.Errorf("hvf: compress chunk %d of %s: %w", row, d.info.Name, err)
	}
	off, err := d.file.appendBlob(comp)
	if err != nil {
		return fmt.Errorf("hvf: append chunk %d of %s: %w", row, d.info.Name, err)
	}
	e := chunkEntry{Off: uint64(off), CLen: uint32(len(comp)), ULen: uint32(ulen)}
	buf := make([]byte, chunkEntrySize)
	encodeChunkEntry(buf, e)
	if _, err := d.file.f.WriteAt(buf, d.info.Offset+int64(row)*chunkEntrySize); err != nil {
		return fmt.Errorf("hvf: update chunk table of %s: %w", d.info.Name, err)
	}
	d.chunks[row] = e
	return nil
}
