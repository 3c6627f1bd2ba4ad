package uvio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/radioastro/uvio/param"
)

// lstTol is the absolute tolerance, in radians, for deciding whether a
// stored lst_array agrees with the one recomputed from time_array.
const lstTol = 1e-5

// applyCompat fixes up legacy file conventions after the header attrs
// have been loaded into the parameter set. The rules run in a fixed
// order so each one sees the output of the previous.
func (u *UVData) applyCompat(attrs map[string]param.Value, o *options) error {
	if err := u.compatStringBytes(o); err != nil {
		return err
	}
	if err := u.compatLocation(attrs, o); err != nil {
		return err
	}
	if err := u.compatIntegrationTime(o); err != nil {
		return err
	}
	return u.compatLSTs(o)
}

// compatStringBytes decodes byte-typed values into the strings the
// parameter expects. Older writers stored fixed-width byte strings.
func (u *UVData) compatStringBytes(o *options) error {
	for _, p := range u.reg.All() {
		if p.Value.Kind() != param.KindBytes {
			continue
		}
		if p.Kind != param.KindString {
			continue
		}
		b, _ := p.Value.AsBytes()
		p.Value = param.String(trimNul(string(b)))
		if err := o.warn(Warning{Category: WarnDeprecation,
			Message: fmt.Sprintf("parameter %s is stored as bytes; decoding to a string", p.Name)}); err != nil {
			return err
		}
	}
	return nil
}

func trimNul(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}

// compatLocation reconciles telescope_location with the geodetic
// latitude/longitude/altitude attrs. Files written before the switch to
// degrees carry radians; the magnitude heuristic detects them.
func (u *UVData) compatLocation(attrs map[string]param.Value, o *options) error {
	lat, latOK := attrs["latitude"].AsFloat()
	lon, lonOK := attrs["longitude"].AsFloat()
	alt, altOK := attrs["altitude"].AsFloat()
	if !latOK || !lonOK || !altOK {
		return nil
	}

	loc, _ := u.reg.Get("telescope_location")
	if !loc.IsSet() {
		if looksLikeRadians(lat, lon) {
			if err := o.warn(Warning{Category: WarnDeprecation,
				Message: "latitude and longitude appear to be stored in radians; converting to degrees"}); err != nil {
				return err
			}
			lat *= 180 / math.Pi
			lon *= 180 / math.Pi
		}
		return u.SetTelescopeLatLonAltDegrees(lat, lon, alt)
	}

	gotLat, gotLon, _, err := u.TelescopeLatLonAlt()
	if err != nil {
		return err
	}
	gotLat *= 180 / math.Pi
	gotLon *= 180 / math.Pi
	if closeDeg(lat, gotLat) && closeDeg(lon, gotLon) {
		return nil
	}
	if closeDeg(lat*180/math.Pi, gotLat) && closeDeg(lon*180/math.Pi, gotLon) {
		return o.warn(Warning{Category: WarnDeprecation,
			Message: "latitude and longitude appear to be stored in radians; using telescope_location"})
	}
	return o.warn(Warning{Category: WarnConsistency,
		Message: "latitude and longitude attrs do not match telescope_location; using telescope_location"})
}

// looksLikeRadians is true when both values fit inside the radian range
// but are implausibly small for degrees.
func looksLikeRadians(lat, lon float64) bool {
	return math.Abs(lat) <= math.Pi/2 && math.Abs(lon) <= math.Pi &&
		(math.Abs(lat) < 1.6 && math.Abs(lon) < 3.2)
}

func closeDeg(a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, 1e-6, 1e-8)
}

// compatIntegrationTime broadcasts a scalar integration_time across all
// baseline-times, as older writers stored a single value.
func (u *UVData) compatIntegrationTime(o *options) error {
	p, _ := u.reg.Get("integration_time")
	if !p.IsSet() {
		return nil
	}
	v, ok := p.Value.AsFloat()
	if !ok {
		return nil
	}
	nblts := u.Nblts()
	if nblts <= 0 {
		return nil
	}
	out := make([]float64, nblts)
	for i := range out {
		out[i] = v
	}
	p.Value = param.Floats(out)
	return o.warn(Warning{Category: WarnDeprecation,
		Message: "integration_time is a scalar; broadcasting it to all baseline-times"})
}

// compatLSTs recomputes lst_array from time_array. A missing lst_array
// is filled silently; a stored one that disagrees is kept as is but
// flagged, since the file may use a different sidereal model.
func (u *UVData) compatLSTs(o *options) error {
	p, _ := u.reg.Get("lst_array")
	if !p.IsSet() {
		return u.SetLSTsFromTimeArray()
	}
	times := u.floats("time_array")
	stored := u.floats("lst_array")
	if times == nil || stored == nil || len(times) != len(stored) {
		return nil
	}
	_, lon, _, err := u.TelescopeLatLonAlt()
	if err != nil {
		return nil
	}
	for i, t := range times {
		if !scalar.EqualWithinAbsOrRel(stored[i], u.sidereal.LST(t, lon), lstTol, 1e-8) {
			return o.warn(Warning{Category: WarnConsistency,
				Message: "lst_array does not match values computed from time_array; keeping stored values"})
		}
	}
	return nil
}
