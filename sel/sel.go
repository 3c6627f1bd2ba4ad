// Package sel turns user-level selections (antennas, baselines, times,
// frequencies, polarizations) into per-axis index plans for the partial
// I/O engine.
package sel

import (
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Selection names the data a caller wants. Empty fields select the full
// axis. Antenna, pair, and time criteria cross-reference the container's
// per-record arrays and always collapse into baseline-time indices; they
// are never pushed down to the container as native axes.
type Selection struct {
	// AntennaNums keeps records whose both antennas are in the list.
	AntennaNums []int
	// AntPairs keeps records matching an antenna pair in either order.
	AntPairs [][2]int
	// BltInds selects baseline-time records directly.
	BltInds []int
	// FreqChans selects frequency channels by index.
	FreqChans []int
	// Times keeps records whose time matches a listed value.
	Times []float64
	// TimeRange keeps records inside a closed [start, end] pair.
	//
	// Deprecated: pass explicit Times instead.
	TimeRange []float64
	// Polarizations selects polarizations by code.
	Polarizations []int
}

// Empty reports whether the selection keeps everything.
func (s *Selection) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.AntennaNums) == 0 && len(s.AntPairs) == 0 && len(s.BltInds) == 0 &&
		len(s.FreqChans) == 0 && len(s.Times) == 0 && len(s.TimeRange) == 0 &&
		len(s.Polarizations) == 0
}

// Axes is the container metadata a plan is resolved against.
type Axes struct {
	Ant1  []int64
	Ant2  []int64
	Times []float64
	Pols  []int64

	Nblts  int
	Nfreqs int
	Npols  int

	// TimeTol is the absolute tolerance for time matching. Zero means
	// the default of 1e-9 days.
	TimeTol float64
}

// Axis identifies one of the three selectable container axes.
type Axis int

const (
	AxisBlt Axis = iota
	AxisFreq
	AxisPol
)

func (a Axis) String() string {
	switch a {
	case AxisBlt:
		return "baseline-times"
	case AxisFreq:
		return "frequencies"
	case AxisPol:
		return "polarizations"
	default:
		return "unknown"
	}
}

// AxisPlan is the resolved selection along one axis.
type AxisPlan struct {
	// Indices are the kept positions, sorted ascending and unique.
	Indices []int
	// Full marks a plan that keeps the whole axis.
	Full bool
	// Regular marks a single evenly-spaced stride (contiguous included).
	Regular bool
	Start   int
	Stride  int
	// Frac is the kept fraction of the axis.
	Frac float64
}

// Plan is the per-axis index plan for one container.
type Plan struct {
	Blt  AxisPlan
	Freq AxisPlan
	Pol  AxisPlan
}

// Order returns the axes sorted by kept fraction, smallest first, so a
// reader can apply the most selective axis before staging the rest.
func (p *Plan) Order() [3]Axis {
	order := [3]Axis{AxisBlt, AxisFreq, AxisPol}
	frac := map[Axis]float64{AxisBlt: p.Blt.Frac, AxisFreq: p.Freq.Frac, AxisPol: p.Pol.Frac}
	sort.SliceStable(order[:], func(i, j int) bool {
		return frac[order[i]] < frac[order[j]]
	})
	return order
}

func (p *Plan) axis(a Axis) *AxisPlan {
	switch a {
	case AxisBlt:
		return &p.Blt
	case AxisFreq:
		return &p.Freq
	default:
		return &p.Pol
	}
}

// Axis returns the plan for one axis.
func (p *Plan) Axis(a Axis) AxisPlan { return *p.axis(a) }

// Build resolves a selection against container axes. Non-fatal findings
// come back as warning strings; an empty result on any constrained axis
// is an error.
func Build(s *Selection, ax Axes) (*Plan, []string, error) {
	var warnings []string

	bltIdx, warns, err := resolveBlts(s, ax)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, warns...)

	freqIdx, err := resolveFreqs(s, ax)
	if err != nil {
		return nil, nil, err
	}
	polIdx, err := resolvePols(s, ax)
	if err != nil {
		return nil, nil, err
	}

	plan := &Plan{
		Blt:  axisPlan(bltIdx, ax.Nblts),
		Freq: axisPlan(freqIdx, ax.Nfreqs),
		Pol:  axisPlan(polIdx, ax.Npols),
	}
	for _, a := range []Axis{AxisBlt, AxisFreq, AxisPol} {
		ap := plan.axis(a)
		if !ap.Full && !ap.Regular {
			warnings = append(warnings,
				fmt.Sprintf("selected %s are not evenly spaced; explicit-list I/O is slower", a))
		}
	}
	return plan, warnings, nil
}

// resolveBlts intersects every baseline-time criterion into one sorted
// index list. nil means the axis is unconstrained.
func resolveBlts(s *Selection, ax Axes) ([]int, []string, error) {
	var warnings []string
	var sets []*roaring.Bitmap

	if len(s.AntennaNums) > 0 {
		members := roaring.New()
		present := roaring.New()
		for _, a := range ax.Ant1 {
			present.Add(uint32(a))
		}
		for _, a := range ax.Ant2 {
			present.Add(uint32(a))
		}
		for _, a := range s.AntennaNums {
			if !present.Contains(uint32(a)) {
				return nil, nil, fmt.Errorf("sel: antenna number %d is not present in the data", a)
			}
			members.Add(uint32(a))
		}
		bm := roaring.New()
		for i := 0; i < ax.Nblts; i++ {
			if members.Contains(uint32(ax.Ant1[i])) && members.Contains(uint32(ax.Ant2[i])) {
				bm.Add(uint32(i))
			}
		}
		sets = append(sets, bm)
	}

	if len(s.AntPairs) > 0 {
		bm := roaring.New()
		for _, pair := range s.AntPairs {
			found := false
			for i := 0; i < ax.Nblts; i++ {
				a1, a2 := int(ax.Ant1[i]), int(ax.Ant2[i])
				if (a1 == pair[0] && a2 == pair[1]) || (a1 == pair[1] && a2 == pair[0]) {
					bm.Add(uint32(i))
					found = true
				}
			}
			if !found {
				return nil, nil, fmt.Errorf("sel: antenna pair (%d, %d) is not present in the data", pair[0], pair[1])
			}
		}
		sets = append(sets, bm)
	}

	if len(s.BltInds) > 0 {
		bm := roaring.New()
		for _, i := range s.BltInds {
			if i < 0 || i >= ax.Nblts {
				return nil, nil, fmt.Errorf("sel: baseline-time index %d out of range (Nblts=%d)", i, ax.Nblts)
			}
			bm.Add(uint32(i))
		}
		sets = append(sets, bm)
	}

	tol := ax.TimeTol
	if tol == 0 {
		tol = 1e-9
	}
	if len(s.Times) > 0 {
		bm := roaring.New()
		for _, t := range s.Times {
			found := false
			for i, ft := range ax.Times {
				if math.Abs(ft-t) <= tol {
					bm.Add(uint32(i))
					found = true
				}
			}
			if !found {
				return nil, nil, fmt.Errorf("sel: time %v is not present in the data", t)
			}
		}
		sets = append(sets, bm)
	}
	if len(s.TimeRange) > 0 {
		if len(s.TimeRange) != 2 || s.TimeRange[0] > s.TimeRange[1] {
			return nil, nil, fmt.Errorf("sel: time_range must be a [start, end] pair, got %v", s.TimeRange)
		}
		warnings = append(warnings, "time_range is deprecated; pass explicit times instead")
		bm := roaring.New()
		for i, ft := range ax.Times {
			if ft >= s.TimeRange[0]-tol && ft <= s.TimeRange[1]+tol {
				bm.Add(uint32(i))
			}
		}
		if bm.IsEmpty() {
			return nil, nil, fmt.Errorf("sel: no times fall inside the range %v", s.TimeRange)
		}
		sets = append(sets, bm)
	}

	if len(sets) == 0 {
		return nil, warnings, nil
	}
	acc := sets[0]
	for _, bm := range sets[1:] {
		acc.And(bm)
	}
	if acc.IsEmpty() {
		return nil, nil, fmt.Errorf("sel: no baseline-times satisfy all selection criteria")
	}
	out := make([]int, 0, acc.GetCardinality())
	it := acc.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out, warnings, nil
}

func resolveFreqs(s *Selection, ax Axes) ([]int, error) {
	if len(s.FreqChans) == 0 {
		return nil, nil
	}
	bm := roaring.New()
	for _, c := range s.FreqChans {
		if c < 0 || c >= ax.Nfreqs {
			return nil, fmt.Errorf("sel: frequency channel %d out of range (Nfreqs=%d)", c, ax.Nfreqs)
		}
		bm.Add(uint32(c))
	}
	return toInts(bm), nil
}

func resolvePols(s *Selection, ax Axes) ([]int, error) {
	if len(s.Polarizations) == 0 {
		return nil, nil
	}
	bm := roaring.New()
	for _, code := range s.Polarizations {
		found := false
		for i, p := range ax.Pols {
			if int(p) == code {
				bm.Add(uint32(i))
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("sel: polarization %d is not present in the data", code)
		}
	}
	return toInts(bm), nil
}

func toInts(bm *roaring.Bitmap) []int {
	out := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// axisPlan classifies a sorted unique index list. nil keeps the whole
// axis.
func axisPlan(idx []int, extent int) AxisPlan {
	if idx == nil || len(idx) == extent {
		full := make([]int, extent)
		for i := range full {
			full[i] = i
		}
		return AxisPlan{Indices: full, Full: true, Regular: true, Start: 0, Stride: 1, Frac: 1}
	}
	ap := AxisPlan{Indices: idx, Frac: float64(len(idx)) / float64(extent)}
	ap.Start = idx[0]
	ap.Stride = 1
	ap.Regular = true
	if len(idx) > 1 {
		d := idx[1] - idx[0]
		for i := 2; i < len(idx); i++ {
			if idx[i]-idx[i-1] != d {
				ap.Regular = false
				break
			}
		}
		if ap.Regular {
			ap.Stride = d
		}
	}
	return ap
}
