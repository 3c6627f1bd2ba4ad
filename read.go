package uvio

import (
	"context"

	"github.com/radioastro/uvio/cube"
	"github.com/radioastro/uvio/hvf"
	"github.com/radioastro/uvio/sel"
)

// Read loads a container, optionally restricted to a selection or to
// the header alone.
func Read(ctx context.Context, path string, opts ...Option) (u *UVData, err error) {
	o := applyOptions(opts)
	defer func() {
		o.logger.LogRead(ctx, path, o.withoutData, err)
	}()

	if o.withoutData && !o.selection.Empty() {
		return nil, &ConfigError{Msg: "a selection needs data; drop WithoutData or the selection"}
	}

	f, err := hvf.Open(path)
	if err != nil {
		return nil, translateError(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = translateError(cerr)
		}
	}()

	u, err = loadHeader(f, o)
	if err != nil {
		return nil, err
	}
	if o.withoutData {
		if err = u.Check(); err != nil {
			return nil, err
		}
		return u, nil
	}

	plan, err := buildPlan(o.selection, u.planAxes(), o)
	if err != nil {
		return nil, err
	}
	if err = readCubes(f, u, plan); err != nil {
		return nil, err
	}
	if err = u.downselect(plan); err != nil {
		return nil, err
	}
	if parts := selectionParts(o.selection); len(parts) > 0 {
		u.AppendHistory(downselectNote(parts))
	}
	if err = u.Check(); err != nil {
		return nil, err
	}
	return u, nil
}

// loadHeader decodes the file attrs into a fresh parameter set and runs
// the legacy-convention fixups.
func loadHeader(f *hvf.File, o *options) (*UVData, error) {
	u := New()
	attrs := f.Attrs()
	for _, p := range u.reg.All() {
		if v, ok := attrs[p.Name]; ok {
			p.Value = v
		}
	}
	if err := u.applyCompat(attrs, o); err != nil {
		return nil, err
	}
	return u, nil
}

// readCubes stages the data through the container in two steps: the
// most selective axis is pushed down into the region read, the rest are
// trimmed in memory in order of increasing kept fraction.
func readCubes(f *hvf.File, u *UVData, plan *sel.Plan) error {
	order := plan.Order()
	pushIdx, stageShape := pushdown(u.DataShape(), plan, order[0])

	memIdx := make([][4][]int, 0, 2)
	for _, a := range order[1:] {
		ap := plan.Axis(a)
		if ap.Full {
			continue
		}
		var idx [4][]int
		idx[axisDim(a)] = ap.Indices
		memIdx = append(memIdx, idx)
	}

	vis, err := f.Dataset(dsetVisdata)
	if err != nil {
		return translateError(err)
	}
	raw, err := vis.ReadRegion(pushIdx)
	if err != nil {
		return translateError(err)
	}
	data, err := hvf.DecodeComplex(vis.DType(), raw, stageShape, wideComplex(vis.DType()))
	if err != nil {
		return translateError(err)
	}
	for _, idx := range memIdx {
		if data, err = data.Subset(idx); err != nil {
			return err
		}
	}
	u.Data = data

	flags, err := f.Dataset(dsetFlags)
	if err != nil {
		return translateError(err)
	}
	if raw, err = flags.ReadRegion(pushIdx); err != nil {
		return translateError(err)
	}
	fb, err := hvf.DecodeBool(raw, stageShape)
	if err != nil {
		return translateError(err)
	}
	for _, idx := range memIdx {
		if fb, err = fb.Subset(idx); err != nil {
			return err
		}
	}
	u.Flags = fb

	nsamp, err := f.Dataset(dsetNsamples)
	if err != nil {
		return translateError(err)
	}
	if raw, err = nsamp.ReadRegion(pushIdx); err != nil {
		return translateError(err)
	}
	nf, err := hvf.DecodeFloat(nsamp.DType(), raw, stageShape)
	if err != nil {
		return translateError(err)
	}
	for _, idx := range memIdx {
		if nf, err = nf.Subset(idx); err != nil {
			return err
		}
	}
	u.Nsamples = nf
	return nil
}

// pushdown builds the region index that constrains only the given axis,
// and the shape of what that region read returns.
func pushdown(full cube.Shape, plan *sel.Plan, a sel.Axis) ([4][]int, cube.Shape) {
	var idx [4][]int
	shape := full
	ap := plan.Axis(a)
	if !ap.Full {
		d := axisDim(a)
		idx[d] = ap.Indices
		shape[d] = len(ap.Indices)
	}
	return idx, shape
}

// axisDim maps a selectable axis to its cube dimension. The spectral
// window dimension (1) is never selectable.
func axisDim(a sel.Axis) int {
	switch a {
	case sel.AxisBlt:
		return 0
	case sel.AxisFreq:
		return 2
	default:
		return 3
	}
}

// wideComplex reports whether decoding should keep 64-bit components.
func wideComplex(dt hvf.DType) bool {
	if dt.Kind == hvf.KindCompound {
		return dt.Fields[0].Bits > 32
	}
	return dt.Bits > 64
}

// selectionParts names the criteria present in a selection, in the
// order they appear in history annotations.
func selectionParts(s *sel.Selection) []string {
	if s.Empty() {
		return nil
	}
	var parts []string
	if len(s.AntennaNums) > 0 {
		parts = append(parts, "antennas")
	}
	if len(s.AntPairs) > 0 {
		parts = append(parts, "antenna pairs")
	}
	if len(s.BltInds) > 0 {
		parts = append(parts, "baseline-times")
	}
	if len(s.Times) > 0 || len(s.TimeRange) > 0 {
		parts = append(parts, "times")
	}
	if len(s.FreqChans) > 0 {
		parts = append(parts, "frequencies")
	}
	if len(s.Polarizations) > 0 {
		parts = append(parts, "polarizations")
	}
	return parts
}
