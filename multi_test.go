package uvio

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radioastro/uvio/param"
	"github.com/radioastro/uvio/sel"
)

// splitTestFile writes a full dataset, then splits it into two files
// along the given selections.
func splitTestFile(t *testing.T, ctx context.Context, selA, selB *sel.Selection) (pathA, pathB string, full *UVData) {
	t.Helper()
	dir := t.TempDir()
	fullPath := filepath.Join(dir, "full.uvh")
	pathA = filepath.Join(dir, "a.uvh")
	pathB = filepath.Join(dir, "b.uvh")

	full = newTestUVData(t)
	attachTestCubes(t, full)
	require.NoError(t, Write(ctx, fullPath, full))

	a, err := Read(ctx, fullPath, WithSelection(selA))
	require.NoError(t, err)
	b, err := Read(ctx, fullPath, WithSelection(selB))
	require.NoError(t, err)
	require.NoError(t, Write(ctx, pathA, a))
	require.NoError(t, Write(ctx, pathB, b))
	return pathA, pathB, full
}

func TestReadMultiSinglePath(t *testing.T) {
	ctx := context.Background()
	path, full := writeTestFile(t, ctx)

	got, err := ReadMulti(ctx, []string{path})
	require.NoError(t, err)
	eq, msgs := full.Equal(got)
	assert.True(t, eq, "header diffs: %v", msgs)
	assert.NotContains(t, got.History(), "Combined data")
}

func TestReadMultiNoPaths(t *testing.T) {
	_, err := ReadMulti(context.Background(), nil)
	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
}

func TestReadMultiFreqConcat(t *testing.T) {
	ctx := context.Background()
	pathA, pathB, full := splitTestFile(t, ctx,
		freqSel(0, 1, 2, 3), freqSel(4, 5, 6, 7))

	got, err := ReadMulti(ctx, []string{pathA, pathB})
	require.NoError(t, err)

	assert.Equal(t, 8, got.Nfreqs())
	assert.Equal(t, full.floats("freq_array"), got.floats("freq_array"))
	assert.True(t, full.Data.EqualApprox(got.Data, 1e-6, 1e-8))
	assert.True(t, full.Flags.Equal(got.Flags))
	assert.Contains(t, got.History(), "Combined data along frequency axis using uvio.")
}

func TestReadMultiPolConcat(t *testing.T) {
	ctx := context.Background()
	pathA, pathB, full := splitTestFile(t, ctx,
		&sel.Selection{Polarizations: []int{-5}},
		&sel.Selection{Polarizations: []int{-6}})

	got, err := ReadMulti(ctx, []string{pathA, pathB})
	require.NoError(t, err)

	assert.Equal(t, 2, got.Npols())
	assert.Equal(t, []int64{-5, -6}, got.ints("polarization_array"))
	assert.True(t, full.Data.EqualApprox(got.Data, 1e-6, 1e-8))
	assert.Contains(t, got.History(), "Combined data along polarization axis using uvio.")
}

func TestReadMultiBltConcat(t *testing.T) {
	ctx := context.Background()
	pathA, pathB, full := splitTestFile(t, ctx,
		&sel.Selection{BltInds: []int{0, 1}},
		&sel.Selection{BltInds: []int{2, 3}})

	got, err := ReadMulti(ctx, []string{pathA, pathB})
	require.NoError(t, err)

	assert.Equal(t, 4, got.Nblts())
	assert.Equal(t, 2, got.Ntimes())
	assert.Equal(t, full.floats("time_array"), got.floats("time_array"))
	assert.Equal(t, full.ints("baseline_array"), got.ints("baseline_array"))
	assert.True(t, full.Data.EqualApprox(got.Data, 1e-6, 1e-8))
	assert.True(t, full.Nsamples.EqualApprox(got.Nsamples, 1e-6, 1e-8))
	assert.Contains(t, got.History(), "Combined data along baseline-time axis using uvio.")
}

func TestReadMultiOverlappingFrequenciesFail(t *testing.T) {
	ctx := context.Background()
	pathA, _, _ := splitTestFile(t, ctx, freqSel(0, 1, 2, 3), freqSel(4, 5, 6, 7))

	_, err := ReadMulti(ctx, []string{pathA, pathA}, WithAxis("freq"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appears in both files")
}

func TestReadMultiDuplicatePolarizationsFail(t *testing.T) {
	ctx := context.Background()
	pathA, _, _ := splitTestFile(t, ctx,
		&sel.Selection{Polarizations: []int{-5}},
		&sel.Selection{Polarizations: []int{-6}})

	_, err := ReadMulti(ctx, []string{pathA, pathA}, WithAxis("pol"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appears in both files")
}

func TestReadMultiDuplicateBaselineTimesFail(t *testing.T) {
	ctx := context.Background()
	path, _ := writeTestFile(t, ctx)

	_, err := ReadMulti(ctx, []string{path, path}, WithAxis("blt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appears in both files")
}

func TestReadMultiIncompatibleHeadersFail(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.uvh")
	pathB := filepath.Join(dir, "b.uvh")

	u := newTestUVData(t)
	attachTestCubes(t, u)
	require.NoError(t, Write(ctx, pathA, u))

	other := newTestUVData(t)
	attachTestCubes(t, other)
	require.NoError(t, other.Set("object_name", param.String("offzenith")))
	require.NoError(t, Write(ctx, pathB, other))

	_, err := ReadMulti(ctx, []string{pathA, pathB})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not compatible")
	assert.Contains(t, err.Error(), "object_name")
}

func TestReadMultiUnknownAxis(t *testing.T) {
	_, err := ReadMulti(context.Background(), []string{"x"}, WithAxis("spw"))
	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
}

func TestInferAxis(t *testing.T) {
	a := newTestUVData(t)
	b := newTestUVData(t)
	assert.Equal(t, axisBlt, inferAxis(a, b))

	require.NoError(t, b.Set("polarization_array", param.Ints([]int64{1, 2})))
	assert.Equal(t, axisPol, inferAxis(a, b))

	require.NoError(t, b.Set("freq_array", param.FloatsShaped([]float64{1, 2, 3, 4, 5, 6, 7, 8}, []int{1, 8})))
	assert.Equal(t, axisFreq, inferAxis(a, b))
}
