package sel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAxes is a 4-record layout: two times, two baselines per time.
func testAxes() Axes {
	return Axes{
		Ant1:   []int64{0, 0, 0, 0},
		Ant2:   []int64{1, 2, 1, 2},
		Times:  []float64{2458432.1, 2458432.1, 2458432.2, 2458432.2},
		Pols:   []int64{-5, -6},
		Nblts:  4,
		Nfreqs: 8,
		Npols:  2,
	}
}

func TestEmptySelectionKeepsEverything(t *testing.T) {
	plan, warns, err := Build(&Selection{}, testAxes())
	require.NoError(t, err)
	assert.Empty(t, warns)
	for _, a := range []Axis{AxisBlt, AxisFreq, AxisPol} {
		ap := plan.Axis(a)
		assert.True(t, ap.Full)
		assert.True(t, ap.Regular)
		assert.Equal(t, 1.0, ap.Frac)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, plan.Blt.Indices)
}

func TestAntennaSelection(t *testing.T) {
	// Both antennas must be in the list.
	plan, _, err := Build(&Selection{AntennaNums: []int{0, 1}}, testAxes())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, plan.Blt.Indices)
	assert.False(t, plan.Blt.Full)
	assert.Equal(t, 0.5, plan.Blt.Frac)

	// Unknown antenna is an error.
	_, _, err = Build(&Selection{AntennaNums: []int{7}}, testAxes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "antenna number 7")
}

func TestAntPairSelection(t *testing.T) {
	plan, _, err := Build(&Selection{AntPairs: [][2]int{{0, 2}}}, testAxes())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, plan.Blt.Indices)

	// Reversed order matches the same records.
	plan, _, err = Build(&Selection{AntPairs: [][2]int{{2, 0}}}, testAxes())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, plan.Blt.Indices)

	_, _, err = Build(&Selection{AntPairs: [][2]int{{3, 4}}}, testAxes())
	assert.Error(t, err)
}

func TestTimeSelection(t *testing.T) {
	plan, warns, err := Build(&Selection{Times: []float64{2458432.2}}, testAxes())
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.Equal(t, []int{2, 3}, plan.Blt.Indices)
	assert.True(t, plan.Blt.Regular)
	assert.Equal(t, 2, plan.Blt.Start)
	assert.Equal(t, 1, plan.Blt.Stride)

	_, _, err = Build(&Selection{Times: []float64{2458433.0}}, testAxes())
	assert.Error(t, err)
}

func TestTimeRangeDeprecationWarning(t *testing.T) {
	plan, warns, err := Build(&Selection{TimeRange: []float64{2458432.0, 2458432.15}}, testAxes())
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "time_range is deprecated")
	assert.Equal(t, []int{0, 1}, plan.Blt.Indices)

	_, _, err = Build(&Selection{TimeRange: []float64{2458432.15, 2458432.0}}, testAxes())
	assert.Error(t, err)
}

func TestCriteriaIntersect(t *testing.T) {
	plan, _, err := Build(&Selection{
		AntPairs: [][2]int{{0, 1}},
		Times:    []float64{2458432.1},
	}, testAxes())
	require.NoError(t, err)
	assert.Equal(t, []int{0}, plan.Blt.Indices)

	// Disjoint criteria cannot be satisfied.
	_, _, err = Build(&Selection{
		BltInds: []int{1},
		Times:   []float64{2458432.2},
	}, testAxes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "satisfy all selection criteria")
}

func TestFreqAndPolSelection(t *testing.T) {
	plan, warns, err := Build(&Selection{
		FreqChans:     []int{0, 2, 4, 6},
		Polarizations: []int{-6},
	}, testAxes())
	require.NoError(t, err)
	assert.Empty(t, warns)

	assert.Equal(t, []int{0, 2, 4, 6}, plan.Freq.Indices)
	assert.True(t, plan.Freq.Regular)
	assert.Equal(t, 2, plan.Freq.Stride)
	assert.False(t, plan.Freq.Full)

	assert.Equal(t, []int{1}, plan.Pol.Indices)
	assert.True(t, plan.Pol.Regular)

	_, _, err = Build(&Selection{FreqChans: []int{9}}, testAxes())
	assert.Error(t, err)
	_, _, err = Build(&Selection{Polarizations: []int{-1}}, testAxes())
	assert.Error(t, err)
}

func TestIrregularWarning(t *testing.T) {
	plan, warns, err := Build(&Selection{FreqChans: []int{0, 1, 3}}, testAxes())
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "frequencies are not evenly spaced")
	assert.False(t, plan.Freq.Regular)

	// Unordered duplicate input is normalized.
	plan, _, err = Build(&Selection{FreqChans: []int{3, 0, 1, 3}}, testAxes())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3}, plan.Freq.Indices)

	// One warning per irregular axis.
	_, warns, err = Build(&Selection{
		FreqChans: []int{0, 1, 3},
		BltInds:   []int{0, 1, 3},
	}, testAxes())
	require.NoError(t, err)
	assert.Len(t, warns, 2)
}

func TestOrderBySmallestFraction(t *testing.T) {
	plan, _, err := Build(&Selection{
		FreqChans:     []int{0},       // 1/8
		Polarizations: []int{-5},      // 1/2
		BltInds:       []int{0, 1, 2}, // 3/4
	}, testAxes())
	require.NoError(t, err)
	assert.Equal(t, [3]Axis{AxisFreq, AxisPol, AxisBlt}, plan.Order())

	// Ties keep the natural axis order.
	plan, _, err = Build(&Selection{}, testAxes())
	require.NoError(t, err)
	assert.Equal(t, [3]Axis{AxisBlt, AxisFreq, AxisPol}, plan.Order())
}

func TestAxisNames(t *testing.T) {
	assert.Equal(t, "baseline-times", AxisBlt.String())
	assert.Equal(t, "frequencies", AxisFreq.String())
	assert.Equal(t, "polarizations", AxisPol.String())
}
