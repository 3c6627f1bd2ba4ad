// Package uvio stores radio-interferometer visibility data in a
// metadata-validated container with partially-addressable binary
// payloads.
//
// A UVData value carries the full observation header (dimensions,
// per-record arrays, telescope metadata) as checked parameters plus
// three data cubes over the axes (baseline-times, spectral windows,
// frequencies, polarizations): complex visibilities, boolean flags,
// and effective sample counts.
//
// The on-disk container is created at full shape by Initialize and
// filled incrementally by WritePart, so datasets larger than memory can
// be assembled region by region. Read applies antenna, baseline, time,
// frequency, and polarization selections without loading the rest of
// the file, and ReadMulti concatenates several containers along one
// axis.
package uvio
