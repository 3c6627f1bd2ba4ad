package uvio

import (
	"context"
	"math"

	"github.com/radioastro/uvio/hvf"
	"github.com/radioastro/uvio/param"
)

// Dataset names inside the container.
const (
	dsetVisdata  = "visdata"
	dsetFlags    = "flags"
	dsetNsamples = "nsamples"
)

// Initialize creates a new file holding the full header metadata and
// empty, zero-valued data cubes of the final shape. Later WritePart
// calls fill the cubes in; u itself may be metadata-only.
func Initialize(ctx context.Context, path string, u *UVData, opts ...Option) (err error) {
	o := applyOptions(opts)
	defer func() {
		o.logger.LogInitialize(ctx, path, u.Nblts(), u.Nfreqs(), u.Npols(), err)
	}()

	w := u
	if o.spoof {
		w = u.clone()
		w.ApplySpoof()
	}
	if err = w.Check(); err != nil {
		return err
	}

	f, err := hvf.Create(path, o.clobber)
	if err != nil {
		return translateError(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = translateError(cerr)
		}
	}()

	if err = writeHeader(f, w); err != nil {
		return err
	}

	shape := [4]int(w.DataShape())
	dt := visDtype(w, o)
	if err = dt.Validate(); err != nil {
		return translateError(err)
	}
	if !dt.IsComplex() {
		return &ConfigError{Msg: "visdata element type must be complex or a two-field compound"}
	}
	if _, err = f.CreateDataset(dsetVisdata, shape, dt, dsetOpts(o.dataCompress)...); err != nil {
		return translateError(err)
	}
	if _, err = f.CreateDataset(dsetFlags, shape, hvf.Bool, dsetOpts(o.flagsCompress)...); err != nil {
		return translateError(err)
	}
	if _, err = f.CreateDataset(dsetNsamples, shape, nsampleDtype(w), dsetOpts(o.nsampleCompress)...); err != nil {
		return translateError(err)
	}
	return nil
}

// writeHeader stores every set parameter as a file attr, plus the
// geodetic telescope position in degrees for readers that want it
// without running the transform themselves.
func writeHeader(f *hvf.File, u *UVData) error {
	for _, p := range u.reg.All() {
		if !p.IsSet() {
			continue
		}
		if err := f.SetAttr(p.Name, p.Value); err != nil {
			return translateError(err)
		}
	}
	lat, lon, alt, err := u.TelescopeLatLonAlt()
	if err != nil {
		return err
	}
	if err := f.SetAttr("latitude", param.Float(lat*180/math.Pi)); err != nil {
		return translateError(err)
	}
	if err := f.SetAttr("longitude", param.Float(lon*180/math.Pi)); err != nil {
		return translateError(err)
	}
	return translateError(f.SetAttr("altitude", param.Float(alt)))
}

// visDtype picks the visdata element type: an explicit option wins,
// otherwise the width follows the attached cube, defaulting to the
// narrow native type.
func visDtype(u *UVData, o *options) hvf.DType {
	if o.dataDtype != nil {
		return *o.dataDtype
	}
	if u.Data != nil && u.Data.Wide() {
		return hvf.Complex128
	}
	return hvf.Complex64
}

func nsampleDtype(u *UVData) hvf.DType {
	if u.Nsamples != nil && u.Nsamples.Wide() {
		return hvf.Float64
	}
	return hvf.Float32
}

func dsetOpts(c hvf.Compression) []hvf.DatasetOption {
	if c == hvf.CompressionNone {
		return nil
	}
	return []hvf.DatasetOption{hvf.WithChunking(c)}
}
