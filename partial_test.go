package uvio

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radioastro/uvio/cube"
	"github.com/radioastro/uvio/param"
	"github.com/radioastro/uvio/sel"
)

func freqSel(chans ...int) *sel.Selection {
	return &sel.Selection{FreqChans: chans}
}

// partFor carves the cubes of a full dataset down to a selection, the
// shape WritePart expects.
func partFor(t *testing.T, u *UVData, idx [4][]int) *UVData {
	t.Helper()
	part := u.clone()
	var err error
	part.Data, err = u.Data.Subset(idx)
	require.NoError(t, err)
	part.Flags, err = u.Flags.Subset(idx)
	require.NoError(t, err)
	part.Nsamples, err = u.Nsamples.Subset(idx)
	require.NoError(t, err)
	return part
}

func TestPartialWriteFillsFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vis.uvh")

	full := newTestUVData(t)
	attachTestCubes(t, full)

	meta := full.clone()
	meta.Data, meta.Flags, meta.Nsamples = nil, nil, nil
	require.NoError(t, Initialize(ctx, path, meta))

	// Fill the file one baseline-time at a time.
	for i := 0; i < full.Nblts(); i++ {
		part := partFor(t, full, [4][]int{{i}, nil, nil, nil})
		require.NoError(t, WritePart(ctx, path, part, &sel.Selection{BltInds: []int{i}}))
	}

	got, err := Read(ctx, path)
	require.NoError(t, err)
	assert.True(t, full.Data.EqualApprox(got.Data, 1e-6, 1e-8))
	assert.True(t, full.Flags.Equal(got.Flags))
	assert.True(t, full.Nsamples.EqualApprox(got.Nsamples, 1e-6, 1e-8))
}

func TestPartialWriteByFrequencyHalves(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vis.uvh")

	full := newTestUVData(t)
	attachTestCubes(t, full)
	require.NoError(t, Initialize(ctx, path, full))

	lo := partFor(t, full, [4][]int{nil, nil, {0, 1, 2, 3}, nil})
	hi := partFor(t, full, [4][]int{nil, nil, {4, 5, 6, 7}, nil})
	require.NoError(t, WritePart(ctx, path, lo, freqSel(0, 1, 2, 3)))
	require.NoError(t, WritePart(ctx, path, hi, freqSel(4, 5, 6, 7)))

	got, err := Read(ctx, path)
	require.NoError(t, err)
	assert.True(t, full.Data.EqualApprox(got.Data, 1e-6, 1e-8))
}

func TestPartialWriteUnwrittenRegionIsZero(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vis.uvh")

	full := newTestUVData(t)
	attachTestCubes(t, full)
	require.NoError(t, Initialize(ctx, path, full))

	part := partFor(t, full, [4][]int{{0}, nil, nil, nil})
	require.NoError(t, WritePart(ctx, path, part, &sel.Selection{BltInds: []int{0}}))

	got, err := Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, full.Data.At(0, 0, 3, 1), got.Data.At(0, 0, 3, 1))
	assert.Equal(t, complex128(0), got.Data.At(2, 0, 3, 1))
	assert.False(t, got.Flags.At(2, 0, 3, 1))
}

func TestPartialWriteRejectsMetadataMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vis.uvh")

	full := newTestUVData(t)
	attachTestCubes(t, full)
	require.NoError(t, Initialize(ctx, path, full))

	changed := full.clone()
	require.NoError(t, changed.Set("object_name", param.String("other field")))
	part := partFor(t, changed, [4][]int{{0}, nil, nil, nil})

	err := WritePart(ctx, path, part, &sel.Selection{BltInds: []int{0}})
	require.ErrorIs(t, err, ErrMetadataMismatch)
	assert.Contains(t, err.Error(), "object_name")
}

func TestPartialWriteRejectsMissingFile(t *testing.T) {
	full := newTestUVData(t)
	attachTestCubes(t, full)
	err := WritePart(context.Background(), filepath.Join(t.TempDir(), "nope.uvh"), full, nil)
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestPartialWriteRejectsWrongShape(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vis.uvh")

	full := newTestUVData(t)
	attachTestCubes(t, full)
	require.NoError(t, Initialize(ctx, path, full))

	// Cubes cover two records, selection names one.
	part := partFor(t, full, [4][]int{{0, 1}, nil, nil, nil})
	err := WritePart(ctx, path, part, &sel.Selection{BltInds: []int{0}})
	var sme *ShapeMismatchError
	require.ErrorAs(t, err, &sme)
}

func TestPartialWriteHistoryAppend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vis.uvh")

	full := newTestUVData(t)
	attachTestCubes(t, full)
	require.NoError(t, Initialize(ctx, path, full))

	part := partFor(t, full, [4][]int{{0}, nil, nil, nil})
	require.NoError(t, WritePart(ctx, path, part, &sel.Selection{BltInds: []int{0}},
		WithHistoryAppend("Wrote record 0.")))

	got, err := Read(ctx, path, WithoutData())
	require.NoError(t, err)
	assert.Contains(t, got.History(), "Wrote record 0.")
}

func writeTestFile(t *testing.T, ctx context.Context) (string, *UVData) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vis.uvh")
	u := newTestUVData(t)
	attachTestCubes(t, u)
	require.NoError(t, Write(ctx, path, u))
	return path, u
}

func TestSelectFrequencies(t *testing.T) {
	ctx := context.Background()
	path, full := writeTestFile(t, ctx)

	got, err := Read(ctx, path, WithSelection(freqSel(1, 3, 5)))
	require.NoError(t, err)

	assert.Equal(t, cube.Shape{4, 1, 3, 2}, got.Data.Shape())
	assert.Equal(t, 3, got.Nfreqs())
	assert.Equal(t, []float64{1e8 + 1e5, 1e8 + 3e5, 1e8 + 5e5}, got.floats("freq_array"))
	for i := 0; i < 4; i++ {
		for l := 0; l < 2; l++ {
			assert.Equal(t, full.Data.At(i, 0, 3, l), got.Data.At(i, 0, 1, l))
		}
	}
	assert.Contains(t, got.History(), "Downselected to specific frequencies using uvio.")
}

func TestSelectPolarizations(t *testing.T) {
	ctx := context.Background()
	path, full := writeTestFile(t, ctx)

	got, err := Read(ctx, path, WithSelection(&sel.Selection{Polarizations: []int{-6}}))
	require.NoError(t, err)

	assert.Equal(t, 1, got.Npols())
	assert.Equal(t, []int64{-6}, got.ints("polarization_array"))
	assert.Equal(t, full.Data.At(2, 0, 5, 1), got.Data.At(2, 0, 5, 0))
}

func TestSelectAntennaPairs(t *testing.T) {
	ctx := context.Background()
	path, full := writeTestFile(t, ctx)

	got, err := Read(ctx, path, WithSelection(&sel.Selection{AntPairs: [][2]int{{2, 0}}}))
	require.NoError(t, err)

	// Records 1 and 3 hold the (0, 2) baseline; the reversed pair
	// matches them too.
	assert.Equal(t, 2, got.Nblts())
	assert.Equal(t, []int64{2, 2}, got.ints("ant_2_array"))
	assert.Equal(t, int64(1), got.intVal("Nbls"))
	assert.Equal(t, full.Data.At(1, 0, 0, 0), got.Data.At(0, 0, 0, 0))
	assert.Equal(t, full.Data.At(3, 0, 0, 0), got.Data.At(1, 0, 0, 0))
}

func TestSelectTimes(t *testing.T) {
	ctx := context.Background()
	path, _ := writeTestFile(t, ctx)

	got, err := Read(ctx, path, WithSelection(&sel.Selection{Times: []float64{2459000.5}}))
	require.NoError(t, err)
	assert.Equal(t, 2, got.Nblts())
	assert.Equal(t, 1, got.Ntimes())
}

func TestSelectCriteriaIntersect(t *testing.T) {
	ctx := context.Background()
	path, full := writeTestFile(t, ctx)

	got, err := Read(ctx, path, WithSelection(&sel.Selection{
		AntPairs:      [][2]int{{0, 2}},
		Times:         []float64{2459000.75},
		FreqChans:     []int{0, 2, 4, 6},
		Polarizations: []int{-5},
	}))
	require.NoError(t, err)
	assert.Equal(t, cube.Shape{1, 1, 4, 1}, got.Data.Shape())
	assert.Equal(t, full.Data.At(3, 0, 2, 0), got.Data.At(0, 0, 1, 0))
	assert.Contains(t, got.History(),
		"Downselected to specific antenna pairs, times, frequencies, and polarizations using uvio.")
}

func TestSelectionOrderInvariance(t *testing.T) {
	ctx := context.Background()
	path, _ := writeTestFile(t, ctx)

	a, err := Read(ctx, path, WithSelection(freqSel(5, 1, 3)))
	require.NoError(t, err)
	b, err := Read(ctx, path, WithSelection(freqSel(1, 3, 5)))
	require.NoError(t, err)

	assert.Equal(t, a.floats("freq_array"), b.floats("freq_array"))
	assert.True(t, a.Data.EqualApprox(b.Data, 0, 0))
}

func TestIrregularSelectionWarnsAndReads(t *testing.T) {
	ctx := context.Background()
	path, full := writeTestFile(t, ctx)

	var warnings []Warning
	got, err := Read(ctx, path,
		WithSelection(freqSel(0, 1, 5)),
		WithWarningHandler(func(w Warning) { warnings = append(warnings, w) }))
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnPerformance, warnings[0].Category)
	assert.Contains(t, warnings[0].Message, "not evenly spaced")

	assert.Equal(t, full.Data.At(0, 0, 5, 0), got.Data.At(0, 0, 2, 0))
}

func TestStrictWarnings(t *testing.T) {
	ctx := context.Background()
	path, _ := writeTestFile(t, ctx)

	_, err := Read(ctx, path, WithSelection(freqSel(0, 1, 5)), WithStrictWarnings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "treated as error")
}

func TestTimeRangeDeprecationWarning(t *testing.T) {
	ctx := context.Background()
	path, _ := writeTestFile(t, ctx)

	var warnings []Warning
	got, err := Read(ctx, path,
		WithSelection(&sel.Selection{TimeRange: []float64{2459000.4, 2459000.505}}),
		WithWarningHandler(func(w Warning) { warnings = append(warnings, w) }))
	require.NoError(t, err)
	assert.Equal(t, 2, got.Nblts())

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnDeprecation, warnings[0].Category)
}

func TestSelectUnknownAntennaFails(t *testing.T) {
	ctx := context.Background()
	path, _ := writeTestFile(t, ctx)

	_, err := Read(ctx, path, WithSelection(&sel.Selection{AntennaNums: []int{7}}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "antenna number 7")
}

func TestSelectEmptyIntersectionFails(t *testing.T) {
	ctx := context.Background()
	path, _ := writeTestFile(t, ctx)

	_, err := Read(ctx, path, WithSelection(&sel.Selection{
		AntPairs: [][2]int{{0, 1}},
		BltInds:  []int{1, 3},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no baseline-times")
}
