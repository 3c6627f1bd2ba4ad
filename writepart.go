package uvio

import (
	"context"
	"fmt"
	"strings"

	"github.com/radioastro/uvio/cube"
	"github.com/radioastro/uvio/hvf"
	"github.com/radioastro/uvio/param"
	"github.com/radioastro/uvio/sel"
)

// WritePart writes the attached data cubes into the region of an
// initialized file named by the selection. u must carry the full header
// of the file; the cubes carry just the part, shaped to the selection.
func WritePart(ctx context.Context, path string, u *UVData, s *sel.Selection, opts ...Option) (err error) {
	o := applyOptions(opts)
	defer func() {
		o.logger.LogWritePart(ctx, path, u.Nblts(), u.Nfreqs(), u.Npols(), err)
	}()

	if u.Data == nil || u.Flags == nil || u.Nsamples == nil {
		return ErrNoData
	}
	if u.Flags.Shape() != u.Data.Shape() {
		return &ShapeMismatchError{Name: "flags", Got: u.Flags.Shape(), Want: u.Data.Shape()}
	}
	if u.Nsamples.Shape() != u.Data.Shape() {
		return &ShapeMismatchError{Name: "nsamples", Got: u.Nsamples.Shape(), Want: u.Data.Shape()}
	}

	f, err := hvf.OpenReadWrite(path)
	if err != nil {
		return translateError(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = translateError(cerr)
		}
	}()

	disk, err := loadHeader(f, o)
	if err != nil {
		return err
	}
	if same, msgs := u.Equal(disk); !same {
		return fmt.Errorf("%w: %s", ErrMetadataMismatch, strings.Join(msgs, "; "))
	}

	plan, err := buildPlan(s, u.planAxes(), o)
	if err != nil {
		return err
	}
	want := planShape(plan)
	if u.Data.Shape() != want {
		return &ShapeMismatchError{Name: "visdata", Got: u.Data.Shape(), Want: want}
	}
	idx := planIndex(plan)

	vis, err := f.Dataset(dsetVisdata)
	if err != nil {
		return translateError(err)
	}
	data, err := hvf.EncodeComplex(vis.DType(), u.Data)
	if err != nil {
		return translateError(err)
	}
	if err = vis.WriteRegion(idx, data); err != nil {
		return translateError(err)
	}

	flags, err := f.Dataset(dsetFlags)
	if err != nil {
		return translateError(err)
	}
	if err = flags.WriteRegion(idx, hvf.EncodeBool(u.Flags)); err != nil {
		return translateError(err)
	}

	nsamp, err := f.Dataset(dsetNsamples)
	if err != nil {
		return translateError(err)
	}
	data, err = hvf.EncodeFloat(nsamp.DType(), u.Nsamples)
	if err != nil {
		return translateError(err)
	}
	if err = nsamp.WriteRegion(idx, data); err != nil {
		return translateError(err)
	}

	if o.historyAppend != "" {
		u.AppendHistory(o.historyAppend)
		if err = f.SetAttr("history", param.String(u.History())); err != nil {
			return translateError(err)
		}
	}
	return nil
}

// Write creates a file and stores the full dataset in one call.
func Write(ctx context.Context, path string, u *UVData, opts ...Option) error {
	if u.Data == nil || u.Flags == nil || u.Nsamples == nil {
		return ErrNoData
	}
	if err := Initialize(ctx, path, u, opts...); err != nil {
		return err
	}
	return WritePart(ctx, path, u, nil, opts...)
}

// buildPlan resolves a selection (nil keeps everything) and routes the
// planner's findings through the warning machinery.
func buildPlan(s *sel.Selection, ax sel.Axes, o *options) (*sel.Plan, error) {
	if s == nil {
		s = &sel.Selection{}
	}
	plan, warns, err := sel.Build(s, ax)
	if err != nil {
		return nil, err
	}
	for _, msg := range warns {
		cat := WarnPerformance
		if strings.Contains(msg, "deprecated") {
			cat = WarnDeprecation
		}
		if werr := o.warn(Warning{Category: cat, Message: msg}); werr != nil {
			return nil, werr
		}
	}
	return plan, nil
}

func planShape(p *sel.Plan) cube.Shape {
	return cube.Shape{len(p.Blt.Indices), 1, len(p.Freq.Indices), len(p.Pol.Indices)}
}

// planIndex converts a plan into the container's region form, where a
// nil axis keeps the full extent.
func planIndex(p *sel.Plan) [4][]int {
	pick := func(ap sel.AxisPlan) []int {
		if ap.Full {
			return nil
		}
		return ap.Indices
	}
	return [4][]int{pick(p.Blt), nil, pick(p.Freq), pick(p.Pol)}
}
