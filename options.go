package uvio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/radioastro/uvio/hvf"
	"github.com/radioastro/uvio/sel"
)

type options struct {
	clobber         bool
	dataCompress    hvf.Compression
	flagsCompress   hvf.Compression
	nsampleCompress hvf.Compression
	dataDtype       *hvf.DType
	withoutData     bool
	selection       *sel.Selection
	axis            string
	spoof           bool
	historyAppend   string
	logger          *Logger
	warningHandler  WarningHandler
	strict          bool
}

// Option configures Initialize/Write/Read behavior.
type Option func(*options)

// WithClobber allows Initialize and Write to replace an existing file.
func WithClobber() Option {
	return func(o *options) { o.clobber = true }
}

// WithDataCompression stores visdata as per-record compressed chunks.
func WithDataCompression(c hvf.Compression) Option {
	return func(o *options) { o.dataCompress = c }
}

// WithFlagsCompression stores flags as per-record compressed chunks.
func WithFlagsCompression(c hvf.Compression) Option {
	return func(o *options) { o.flagsCompress = c }
}

// WithNsampleCompression stores nsamples as per-record compressed chunks.
func WithNsampleCompression(c hvf.Compression) Option {
	return func(o *options) { o.nsampleCompress = c }
}

// WithDataDtype overrides the visdata element type, e.g. to widen
// storage or to use a compound integer encoding.
func WithDataDtype(dt hvf.DType) Option {
	return func(o *options) { o.dataDtype = &dt }
}

// WithCompoundDtype stores visdata as a two-field r/i compound of the
// given sub-field kind and width instead of a native complex type.
func WithCompoundDtype(kind string, bits int) Option {
	return func(o *options) {
		dt := hvf.DType{Kind: hvf.KindCompound, Fields: []hvf.Field{
			{Name: "r", Kind: kind, Bits: bits},
			{Name: "i", Kind: kind, Bits: bits},
		}}
		o.dataDtype = &dt
	}
}

// WithoutData makes Read load the header only, skipping the data cubes.
func WithoutData() Option {
	return func(o *options) { o.withoutData = true }
}

// WithSelection restricts Read to part of the dataset.
func WithSelection(s *sel.Selection) Option {
	return func(o *options) { o.selection = s }
}

// WithAxis fixes the concatenation axis for ReadMulti ("blt", "freq" or
// "pol") instead of inferring it from the file headers.
func WithAxis(axis string) Option {
	return func(o *options) { o.axis = axis }
}

// WithSpoof lets Write fill unset optional parameters with their
// placeholder values, for interoperability with readers that expect
// every header field to be present.
func WithSpoof() Option {
	return func(o *options) { o.spoof = true }
}

// WithHistoryAppend appends a note to the container's history after a
// successful partial write.
func WithHistoryAppend(note string) Option {
	return func(o *options) { o.historyAppend = note }
}

// WithLogger configures structured logging for operations.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) { o.logger = NewTextLogger(level) }
}

// WithWarningHandler routes warnings to a custom handler instead of the
// logger.
func WithWarningHandler(h WarningHandler) Option {
	return func(o *options) { o.warningHandler = h }
}

// WithStrictWarnings promotes the first warning of an operation to an
// error.
func WithStrictWarnings() Option {
	return func(o *options) { o.strict = true }
}

func applyOptions(optFns []Option) *options {
	o := &options{
		dataCompress:    hvf.CompressionNone,
		flagsCompress:   hvf.CompressionNone,
		nsampleCompress: hvf.CompressionNone,
		logger:          NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(o)
		}
	}
	return o
}

// warn dispatches a warning, or converts it to an error in strict mode.
func (o *options) warn(w Warning) error {
	if o.strict {
		return fmt.Errorf("uvio: %s warning treated as error: %s", w.Category, w.Message)
	}
	if o.warningHandler != nil {
		o.warningHandler(w)
		return nil
	}
	o.logger.LogWarning(context.Background(), w)
	return nil
}
