package uvio

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/unit"

	"github.com/radioastro/uvio/astrom"
	"github.com/radioastro/uvio/cube"
	"github.com/radioastro/uvio/param"
	"github.com/radioastro/uvio/sel"
)

// UVData is one visibility dataset: the checked header parameter set
// plus the three data cubes. The cubes may be nil for metadata-only
// instances.
type UVData struct {
	reg *param.Registry

	// Data holds complex visibilities of shape (Nblts, 1, Nfreqs, Npols).
	Data *cube.Complex
	// Flags marks bad samples, co-shaped with Data.
	Flags *cube.Bool
	// Nsamples counts effective averaged samples, co-shaped with Data.
	Nsamples *cube.Float

	geo      param.Geodesy
	sidereal astrom.SiderealTimer
}

// New returns a UVData with the full parameter set registered and every
// value unset.
func New() *UVData {
	return &UVData{
		reg:      newRegistry(),
		geo:      astrom.WGS84{},
		sidereal: astrom.ERA{},
	}
}

func newRegistry() *param.Registry {
	r := param.NewRegistry()
	reg := func(s param.Spec) { r.MustRegister(param.MustNew(s)) }

	// Scalar counts first: array forms reference them by name.
	reg(param.Spec{Name: "Nblts", Required: true, Kind: param.KindInt,
		Description: "number of baseline-time records"})
	reg(param.Spec{Name: "Nbls", Required: true, Kind: param.KindInt,
		Description: "number of distinct baselines"})
	reg(param.Spec{Name: "Ntimes", Required: true, Kind: param.KindInt,
		Description: "number of distinct times"})
	reg(param.Spec{Name: "Nfreqs", Required: true, Kind: param.KindInt,
		Description: "number of frequency channels"})
	reg(param.Spec{Name: "Npols", Required: true, Kind: param.KindInt,
		Description: "number of polarizations"})
	reg(param.Spec{Name: "Nspws", Required: true, Kind: param.KindInt,
		AcceptableVals: []param.Value{param.Int(1)},
		Description:    "number of spectral windows"})
	reg(param.Spec{Name: "Nants_data", Required: true, Kind: param.KindInt,
		Description: "number of antennas with data"})
	reg(param.Spec{Name: "Nants_telescope", Required: true, Kind: param.KindInt,
		Description: "number of antennas in the array"})

	reg(param.Spec{Name: "spw_array", Required: true, Kind: param.KindIntSlice,
		Form: []param.FormDim{param.Ref("Nspws")}})
	reg(param.Spec{Name: "vis_units", Required: true, Kind: param.KindString,
		AcceptableVals: []param.Value{
			param.String("uncalib"), param.String("Jy"), param.String("K str"),
		},
		Description: "units of the visibilities"})
	reg(param.Spec{Name: "channel_width", Required: true, Kind: param.KindQuantity,
		Variant: param.VariantQuantity, Units: unit.Herz,
		AbsTol:      unit.New(1e-3, unit.Herz),
		Description: "width of a frequency channel"})

	reg(param.Spec{Name: "time_array", Required: true, Kind: param.KindFloatSlice,
		Form:        []param.FormDim{param.Ref("Nblts")},
		Description: "time of each record, Julian date"})
	reg(param.Spec{Name: "lst_array", Required: true, Kind: param.KindFloatSlice,
		Form:            []param.FormDim{param.Ref("Nblts")},
		AcceptableRange: &param.Range{Min: 0, Max: 2 * math.Pi},
		Description:     "local sidereal time of each record, radians"})
	reg(param.Spec{Name: "integration_time", Required: true, Kind: param.KindFloatSlice,
		Form:        []param.FormDim{param.Ref("Nblts")},
		Description: "integration time of each record, seconds"})
	reg(param.Spec{Name: "ant_1_array", Required: true, Kind: param.KindIntSlice,
		Form: []param.FormDim{param.Ref("Nblts")}})
	reg(param.Spec{Name: "ant_2_array", Required: true, Kind: param.KindIntSlice,
		Form: []param.FormDim{param.Ref("Nblts")}})
	reg(param.Spec{Name: "baseline_array", Required: true, Kind: param.KindIntSlice,
		Form: []param.FormDim{param.Ref("Nblts")}})
	reg(param.Spec{Name: "freq_array", Required: true, Kind: param.KindFloatSlice,
		Form:        []param.FormDim{param.Fixed(1), param.Ref("Nfreqs")},
		Description: "center frequency of each channel, Hz"})
	reg(param.Spec{Name: "polarization_array", Required: true, Kind: param.KindIntSlice,
		Form:           []param.FormDim{param.Ref("Npols")},
		AcceptableVals: polarizationCodes(),
		Description:    "polarization codes, AIPS convention"})
	reg(param.Spec{Name: "uvw_array", Required: true, Kind: param.KindFloatSlice,
		Form:        []param.FormDim{param.Ref("Nblts"), param.Fixed(3)},
		Description: "projected baseline vectors, meters"})

	reg(param.Spec{Name: "telescope_location", Required: true, Kind: param.KindFloatSlice,
		Variant:         param.VariantLocation,
		Form:            []param.FormDim{param.Fixed(3)},
		AcceptableRange: &param.Range{Min: 6.35e6, Max: 6.39e6},
		Description:     "geocentric telescope position, meters"})
	reg(param.Spec{Name: "telescope_name", Required: true, Kind: param.KindString})
	reg(param.Spec{Name: "instrument", Required: true, Kind: param.KindString})
	reg(param.Spec{Name: "object_name", Required: true, Kind: param.KindString})
	reg(param.Spec{Name: "history", Required: true, Kind: param.KindString})
	reg(param.Spec{Name: "phase_type", Required: true, Kind: param.KindString,
		AcceptableVals: []param.Value{param.String("drift"), param.String("phased")}})
	reg(param.Spec{Name: "antenna_names", Required: true, Kind: param.KindStringSlice,
		Form: []param.FormDim{param.Ref("Nants_telescope")}})
	reg(param.Spec{Name: "antenna_numbers", Required: true, Kind: param.KindIntSlice,
		Form: []param.FormDim{param.Ref("Nants_telescope")}})

	// Optional parameters. Spoof values stand in on Write when a caller
	// asks for a fully-populated header.
	reg(param.Spec{Name: "phase_center_ra", Kind: param.KindFloat,
		Variant: param.VariantAngle})
	reg(param.Spec{Name: "phase_center_dec", Kind: param.KindFloat,
		Variant: param.VariantAngle})
	reg(param.Spec{Name: "phase_center_epoch", Kind: param.KindFloat,
		Spoof: param.Float(2000.0)})
	reg(param.Spec{Name: "x_orientation", Kind: param.KindString,
		AcceptableVals: []param.Value{param.String("east"), param.String("north")},
		Spoof:          param.String("east")})
	reg(param.Spec{Name: "antenna_positions", Kind: param.KindFloatSlice,
		Form: []param.FormDim{param.Ref("Nants_telescope"), param.Fixed(3)}})
	reg(param.Spec{Name: "antenna_diameters", Kind: param.KindFloatSlice,
		Form: []param.FormDim{param.Ref("Nants_telescope")}})
	reg(param.Spec{Name: "uvplane_reference_time", Kind: param.KindInt,
		Spoof: param.Int(0)})
	reg(param.Spec{Name: "dut1", Kind: param.KindFloat, Spoof: param.Float(0)})
	reg(param.Spec{Name: "gst0", Kind: param.KindFloat, Spoof: param.Float(0)})
	reg(param.Spec{Name: "rdate", Kind: param.KindString, Spoof: param.String("")})
	reg(param.Spec{Name: "earth_omega", Kind: param.KindFloat,
		Spoof: param.Float(360.985)})
	reg(param.Spec{Name: "timesys", Kind: param.KindString,
		Spoof: param.String("UTC")})
	reg(param.Spec{Name: "extra_keywords", Kind: param.KindMap})

	return r
}

// polarizationCodes are the AIPS codes: -8..-1 and 1..4, zero excluded.
func polarizationCodes() []param.Value {
	var out []param.Value
	for c := -8; c <= 4; c++ {
		if c == 0 {
			continue
		}
		out = append(out, param.Int(int64(c)))
	}
	return out
}

// Param returns a header parameter by name.
func (u *UVData) Param(name string) (*param.Parameter, bool) {
	return u.reg.Get(name)
}

// Set stores a header parameter value.
func (u *UVData) Set(name string, v param.Value) error {
	p, ok := u.reg.Get(name)
	if !ok {
		return &ConfigError{Msg: fmt.Sprintf("unknown parameter %s", name)}
	}
	p.Value = v
	return nil
}

// Value returns a header parameter value, Null when unset or unknown.
func (u *UVData) Value(name string) param.Value {
	p, ok := u.reg.Get(name)
	if !ok {
		return param.Null()
	}
	return p.Value
}

func (u *UVData) intVal(name string) int64 {
	n, _ := u.Value(name).AsInt()
	return n
}

func (u *UVData) floats(name string) []float64 {
	fs, _ := u.Value(name).AsFloats()
	return fs
}

func (u *UVData) ints(name string) []int64 {
	is, _ := u.Value(name).AsInts()
	return is
}

func (u *UVData) str(name string) string {
	s, _ := u.Value(name).AsString()
	return s
}

// Nblts returns the number of baseline-time records.
func (u *UVData) Nblts() int { return int(u.intVal("Nblts")) }

// Nfreqs returns the number of frequency channels.
func (u *UVData) Nfreqs() int { return int(u.intVal("Nfreqs")) }

// Npols returns the number of polarizations.
func (u *UVData) Npols() int { return int(u.intVal("Npols")) }

// Ntimes returns the number of distinct times.
func (u *UVData) Ntimes() int { return int(u.intVal("Ntimes")) }

// History returns the history string.
func (u *UVData) History() string { return u.str("history") }

// AppendHistory adds a note to the history string.
func (u *UVData) AppendHistory(note string) {
	h := u.History()
	if h != "" && !strings.HasSuffix(h, " ") {
		h += " "
	}
	_ = u.Set("history", param.String(h+note))
}

// SetChannelWidthHz stores the channel width from a plain Hz value.
func (u *UVData) SetChannelWidthHz(hz float64) {
	_ = u.Set("channel_width", param.Quantity(unit.New(hz, unit.Herz)))
}

// ChannelWidthHz returns the channel width in Hz.
func (u *UVData) ChannelWidthHz() float64 {
	un, ok := u.Value("channel_width").AsUnit()
	if !ok {
		return 0
	}
	return un.Value()
}

// DataShape is the expected cube shape implied by the count parameters.
func (u *UVData) DataShape() cube.Shape {
	return cube.Shape{u.Nblts(), 1, u.Nfreqs(), u.Npols()}
}

// TelescopeLatLonAlt returns the telescope's geodetic coordinates in
// radians and meters.
func (u *UVData) TelescopeLatLonAlt() (lat, lon, alt float64, err error) {
	p, _ := u.reg.Get("telescope_location")
	return p.LatLonAlt(u.geo)
}

// SetTelescopeLatLonAltDegrees stores the telescope position from
// geodetic coordinates in degrees and meters.
func (u *UVData) SetTelescopeLatLonAltDegrees(lat, lon, alt float64) error {
	p, _ := u.reg.Get("telescope_location")
	return p.SetLatLonAltDegrees(u.geo, lat, lon, alt)
}

// SetLSTsFromTimeArray derives lst_array from time_array and the
// telescope longitude.
func (u *UVData) SetLSTsFromTimeArray() error {
	times := u.floats("time_array")
	if times == nil {
		return &ConfigError{Msg: "time_array must be set before computing LSTs"}
	}
	_, lon, _, err := u.TelescopeLatLonAlt()
	if err != nil {
		return err
	}
	lsts := make([]float64, len(times))
	for i, t := range times {
		lsts[i] = u.sidereal.LST(t, lon)
	}
	return u.Set("lst_array", param.Floats(lsts))
}

// BaselineToAntnums unpacks a baseline number into its antenna pair.
func (u *UVData) BaselineToAntnums(baseline int64) (ant1, ant2 int64, err error) {
	if n := u.intVal("Nants_telescope"); n > 2048 {
		return 0, 0, &ConfigError{Msg: fmt.Sprintf("baseline numbers are not defined for Nants_telescope=%d > 2048", n)}
	}
	if baseline > 1<<16 {
		b := baseline - 1<<16
		ant1 = b%2048 - 1
		ant2 = (b-(ant1+1))/2048 - 1
		return ant1, ant2, nil
	}
	ant1 = baseline%256 - 1
	ant2 = (baseline-(ant1+1))/256 - 1
	return ant1, ant2, nil
}

// AntnumsToBaseline packs an antenna pair into a baseline number using
// the 2048 convention. With attempt256, the legacy 256 convention is
// used when both antennas fit; fellBack reports a forced fall back to
// the 2048 convention.
func (u *UVData) AntnumsToBaseline(ant1, ant2 int64, attempt256 bool) (baseline int64, fellBack bool, err error) {
	if n := u.intVal("Nants_telescope"); n > 2048 {
		return 0, false, &ConfigError{Msg: fmt.Sprintf("baseline numbers are not defined for Nants_telescope=%d > 2048", n)}
	}
	// The low field stores ant1+1 modulo 2048, so 2047 would wrap.
	if ant1 > 2046 || ant2 > 2046 {
		return 0, false, &ConfigError{Msg: fmt.Sprintf("antenna numbers (%d, %d) do not fit the 2048-convention encoding", ant1, ant2)}
	}
	if attempt256 {
		if ant1 < 255 && ant2 < 255 {
			return 256*(ant2+1) + (ant1 + 1), false, nil
		}
		fellBack = true
	}
	return 2048*(ant2+1) + (ant1 + 1) + 1<<16, fellBack, nil
}

// SetBaselineArray derives baseline_array from the antenna arrays.
func (u *UVData) SetBaselineArray() error {
	a1, a2 := u.ints("ant_1_array"), u.ints("ant_2_array")
	if a1 == nil || a2 == nil || len(a1) != len(a2) {
		return &ConfigError{Msg: "ant_1_array and ant_2_array must be set and co-sized"}
	}
	bls := make([]int64, len(a1))
	for i := range a1 {
		bl, _, err := u.AntnumsToBaseline(a1[i], a2[i], false)
		if err != nil {
			return err
		}
		bls[i] = bl
	}
	return u.Set("baseline_array", param.Ints(bls))
}

// Check validates the header parameters and, when data cubes are
// attached, their shapes against the count parameters.
func (u *UVData) Check() error {
	if err := u.reg.Check(); err != nil {
		return err
	}
	want := u.DataShape()
	if u.Data != nil && u.Data.Shape() != want {
		return &ShapeMismatchError{Name: "visdata", Got: u.Data.Shape(), Want: want}
	}
	if u.Flags != nil && u.Flags.Shape() != want {
		return &ShapeMismatchError{Name: "flags", Got: u.Flags.Shape(), Want: want}
	}
	if u.Nsamples != nil && u.Nsamples.Shape() != want {
		return &ShapeMismatchError{Name: "nsamples", Got: u.Nsamples.Shape(), Want: want}
	}
	return nil
}

// Equal compares the required header parameters, collecting every
// mismatch. Histories that differ only by trailing annotations still
// match.
func (u *UVData) Equal(o *UVData) (bool, []string) {
	_, msgs := u.reg.Equal(o.reg)
	kept := msgs[:0]
	for _, m := range msgs {
		if strings.HasPrefix(m, "parameter history") && HistoriesMatch(u.History(), o.History()) {
			continue
		}
		kept = append(kept, m)
	}
	return len(kept) == 0, kept
}

// ApplySpoof fills every unset optional parameter that has a
// placeholder, returning the names substituted.
func (u *UVData) ApplySpoof() []string {
	var filled []string
	for _, p := range u.reg.Optional() {
		if p.ApplySpoof() {
			filled = append(filled, p.Name)
		}
	}
	return filled
}

// clone copies the header parameters; cube references are shared.
func (u *UVData) clone() *UVData {
	c := New()
	for _, p := range u.reg.All() {
		cp, _ := c.reg.Get(p.Name)
		cp.Value = p.Value
	}
	c.Data, c.Flags, c.Nsamples = u.Data, u.Flags, u.Nsamples
	return c
}

// planAxes exposes the per-record arrays the selection planner matches
// against.
func (u *UVData) planAxes() sel.Axes {
	return sel.Axes{
		Ant1:   u.ints("ant_1_array"),
		Ant2:   u.ints("ant_2_array"),
		Times:  u.floats("time_array"),
		Pols:   u.ints("polarization_array"),
		Nblts:  u.Nblts(),
		Nfreqs: u.Nfreqs(),
		Npols:  u.Npols(),
	}
}

// downselect trims the header metadata to a selection plan, keeping it
// consistent with data cubes subset by the same plan.
func (u *UVData) downselect(plan *sel.Plan) error {
	if !plan.Blt.Full {
		idx := plan.Blt.Indices
		pickF := func(name string) {
			src := u.floats(name)
			out := make([]float64, len(idx))
			for i, j := range idx {
				out[i] = src[j]
			}
			_ = u.Set(name, param.Floats(out))
		}
		pickI := func(name string) {
			src := u.ints(name)
			out := make([]int64, len(idx))
			for i, j := range idx {
				out[i] = src[j]
			}
			_ = u.Set(name, param.Ints(out))
		}
		pickF("time_array")
		pickF("lst_array")
		pickF("integration_time")
		pickI("ant_1_array")
		pickI("ant_2_array")
		pickI("baseline_array")

		uvw := u.floats("uvw_array")
		out := make([]float64, len(idx)*3)
		for i, j := range idx {
			copy(out[i*3:i*3+3], uvw[j*3:j*3+3])
		}
		_ = u.Set("uvw_array", param.FloatsShaped(out, []int{len(idx), 3}))

		_ = u.Set("Nblts", param.Int(int64(len(idx))))
		_ = u.Set("Ntimes", param.Int(int64(uniqueFloats(u.floats("time_array")))))
		_ = u.Set("Nbls", param.Int(int64(uniqueInts(u.ints("baseline_array")))))
		_ = u.Set("Nants_data", param.Int(int64(uniqueInts(
			append(append([]int64{}, u.ints("ant_1_array")...), u.ints("ant_2_array")...)))))
	}

	if !plan.Freq.Full {
		idx := plan.Freq.Indices
		src := u.floats("freq_array")
		out := make([]float64, len(idx))
		for i, j := range idx {
			out[i] = src[j]
		}
		_ = u.Set("freq_array", param.FloatsShaped(out, []int{1, len(idx)}))
		_ = u.Set("Nfreqs", param.Int(int64(len(idx))))
	}

	if !plan.Pol.Full {
		idx := plan.Pol.Indices
		src := u.ints("polarization_array")
		out := make([]int64, len(idx))
		for i, j := range idx {
			out[i] = src[j]
		}
		_ = u.Set("polarization_array", param.Ints(out))
		_ = u.Set("Npols", param.Int(int64(len(idx))))
	}
	return nil
}

func uniqueFloats(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}

func uniqueInts(xs []int64) int {
	seen := make(map[int64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}
