package uvio

import (
	"context"
	"fmt"
	"strings"

	"github.com/radioastro/uvio/cube"
	"github.com/radioastro/uvio/param"
)

// Concatenation axes accepted by WithAxis.
const (
	axisBlt  = "blt"
	axisFreq = "freq"
	axisPol  = "pol"
)

// ReadMulti reads several containers and concatenates them along one
// axis. The axis is taken from WithAxis or inferred from the headers:
// differing frequencies concatenate along freq, differing polarizations
// along pol, otherwise along blt.
func ReadMulti(ctx context.Context, paths []string, opts ...Option) (*UVData, error) {
	if len(paths) == 0 {
		return nil, &ConfigError{Msg: "no paths given"}
	}
	o := applyOptions(opts)
	if o.axis != "" && o.axis != axisBlt && o.axis != axisFreq && o.axis != axisPol {
		return nil, &ConfigError{Msg: fmt.Sprintf("unknown concatenation axis %q", o.axis)}
	}

	acc, err := Read(ctx, paths[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", paths[0], err)
	}
	usedAxis := axisBlt
	for _, path := range paths[1:] {
		next, err := Read(ctx, path, opts...)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		axis := o.axis
		if axis == "" {
			axis = inferAxis(acc, next)
		}
		usedAxis = axis
		if acc, err = combine(acc, next, axis); err != nil {
			return nil, fmt.Errorf("combining %s: %w", path, err)
		}
	}
	if len(paths) > 1 {
		acc.AppendHistory(combineNote(usedAxis))
		if err := acc.Check(); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// inferAxis picks the concatenation axis from the two headers.
func inferAxis(a, b *UVData) string {
	if !floatsEqual(a.floats("freq_array"), b.floats("freq_array")) {
		return axisFreq
	}
	if !intsEqual(a.ints("polarization_array"), b.ints("polarization_array")) {
		return axisPol
	}
	return axisBlt
}

// combine merges b into a along the given axis. Headers must agree on
// everything the axis does not own.
func combine(a, b *UVData, axis string) (*UVData, error) {
	if err := checkCompatible(a, b, axis); err != nil {
		return nil, err
	}

	out := a.clone()
	switch axis {
	case axisFreq:
		fa, fb := a.floats("freq_array"), b.floats("freq_array")
		for _, f := range fb {
			for _, g := range fa {
				if f == g {
					return nil, &ConfigError{Msg: fmt.Sprintf("frequency %v appears in both files", f)}
				}
			}
		}
		merged := append(append([]float64{}, fa...), fb...)
		_ = out.Set("freq_array", param.FloatsShaped(merged, []int{1, len(merged)}))
		_ = out.Set("Nfreqs", param.Int(int64(len(merged))))
		if err := concatCubes(out, a, b, 2); err != nil {
			return nil, err
		}

	case axisPol:
		pa, pb := a.ints("polarization_array"), b.ints("polarization_array")
		for _, p := range pb {
			for _, q := range pa {
				if p == q {
					return nil, &ConfigError{Msg: fmt.Sprintf("polarization %d appears in both files", p)}
				}
			}
		}
		merged := append(append([]int64{}, pa...), pb...)
		_ = out.Set("polarization_array", param.Ints(merged))
		_ = out.Set("Npols", param.Int(int64(len(merged))))
		if err := concatCubes(out, a, b, 3); err != nil {
			return nil, err
		}

	case axisBlt:
		type bltKey struct {
			t  float64
			bl int64
		}
		ta, ba := a.floats("time_array"), a.ints("baseline_array")
		seen := make(map[bltKey]struct{}, len(ta))
		for i := range ta {
			seen[bltKey{ta[i], ba[i]}] = struct{}{}
		}
		tb, bb := b.floats("time_array"), b.ints("baseline_array")
		for i := range tb {
			if _, dup := seen[bltKey{tb[i], bb[i]}]; dup {
				return nil, &ConfigError{Msg: fmt.Sprintf(
					"baseline-time (%v, %d) appears in both files", tb[i], bb[i])}
			}
		}

		catF := func(name string) {
			merged := append(append([]float64{}, a.floats(name)...), b.floats(name)...)
			_ = out.Set(name, param.Floats(merged))
		}
		catI := func(name string) {
			merged := append(append([]int64{}, a.ints(name)...), b.ints(name)...)
			_ = out.Set(name, param.Ints(merged))
		}
		catF("time_array")
		catF("lst_array")
		catF("integration_time")
		catI("ant_1_array")
		catI("ant_2_array")
		catI("baseline_array")
		uvw := append(append([]float64{}, a.floats("uvw_array")...), b.floats("uvw_array")...)
		_ = out.Set("uvw_array", param.FloatsShaped(uvw, []int{len(uvw) / 3, 3}))

		_ = out.Set("Nblts", param.Int(int64(a.Nblts()+b.Nblts())))
		_ = out.Set("Ntimes", param.Int(int64(uniqueFloats(out.floats("time_array")))))
		_ = out.Set("Nbls", param.Int(int64(uniqueInts(out.ints("baseline_array")))))
		_ = out.Set("Nants_data", param.Int(int64(uniqueInts(
			append(append([]int64{}, out.ints("ant_1_array")...), out.ints("ant_2_array")...)))))
		if err := concatCubes(out, a, b, 0); err != nil {
			return nil, err
		}

	default:
		return nil, &ConfigError{Msg: fmt.Sprintf("unknown concatenation axis %q", axis)}
	}

	if !HistoriesMatch(a.History(), b.History()) {
		out.AppendHistory(b.History())
	}
	return out, nil
}

func concatCubes(out, a, b *UVData, dim int) error {
	if a.Data == nil || b.Data == nil {
		return nil
	}
	var err error
	if out.Data, err = cube.ConcatComplex(dim, a.Data, b.Data); err != nil {
		return err
	}
	if out.Flags, err = cube.ConcatBool(dim, a.Flags, b.Flags); err != nil {
		return err
	}
	out.Nsamples, err = cube.ConcatFloat(dim, a.Nsamples, b.Nsamples)
	return err
}

// axisOwned names the parameters a concatenation axis is allowed to
// change between files.
func axisOwned(axis string) map[string]bool {
	owned := map[string]bool{"history": true}
	switch axis {
	case axisFreq:
		owned["freq_array"] = true
		owned["Nfreqs"] = true
	case axisPol:
		owned["polarization_array"] = true
		owned["Npols"] = true
	case axisBlt:
		for _, n := range []string{
			"time_array", "lst_array", "integration_time",
			"ant_1_array", "ant_2_array", "baseline_array", "uvw_array",
			"Nblts", "Ntimes", "Nbls", "Nants_data",
		} {
			owned[n] = true
		}
	}
	return owned
}

// checkCompatible requires agreement on every required parameter the
// axis does not own.
func checkCompatible(a, b *UVData, axis string) error {
	owned := axisOwned(axis)
	_, msgs := a.reg.Equal(b.reg)
	var kept []string
	for _, m := range msgs {
		name := paramNameFromDiff(m)
		if owned[name] {
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) > 0 {
		return &ConfigError{Msg: "files are not compatible: " + strings.Join(kept, "; ")}
	}
	return nil
}

// paramNameFromDiff extracts the parameter name from a registry diff
// message of the form "parameter <name>: ...".
func paramNameFromDiff(m string) string {
	rest := strings.TrimPrefix(m, "parameter ")
	if i := strings.IndexByte(rest, ':'); i > 0 {
		return rest[:i]
	}
	if i := strings.IndexByte(rest, ' '); i > 0 {
		return rest[:i]
	}
	return rest
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intsEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
