package uvio

import (
	"errors"
	"fmt"

	"github.com/radioastro/uvio/cube"
	"github.com/radioastro/uvio/hvf"
)

var (
	// ErrFileExists is returned when Initialize or Write targets an
	// existing path without clobber.
	ErrFileExists = errors.New("uvio: file already exists")
	// ErrFileNotFound is returned when a read or partial write targets
	// a path that does not exist.
	ErrFileNotFound = errors.New("uvio: file does not exist")
	// ErrMetadataMismatch is returned when a partial write finds that
	// the header on disk no longer matches the metadata in memory.
	ErrMetadataMismatch = errors.New("uvio: metadata in memory and on disk are different")
	// ErrNoData is returned when an operation needs data cubes that are
	// not attached.
	ErrNoData = errors.New("uvio: no data cubes attached")
)

// ShapeMismatchError indicates arrays whose shapes disagree with each
// other or with the selection.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ShapeMismatchError struct {
	Name  string
	Got   cube.Shape
	Want  cube.Shape
	cause error
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("uvio: %s has shape %s, want %s", e.Name, e.Got, e.Want)
}

func (e *ShapeMismatchError) Unwrap() error { return e.cause }

// ConfigError indicates an invalid option or parameter combination.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ConfigError struct {
	Msg   string
	cause error
}

func (e *ConfigError) Error() string { return "uvio: " + e.Msg }

func (e *ConfigError) Unwrap() error { return e.cause }

// translateError unifies container-layer errors into the package's
// error taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, hvf.ErrFileExists) {
		return fmt.Errorf("%w: %w", ErrFileExists, err)
	}
	if errors.Is(err, hvf.ErrFileNotFound) {
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}
	if errors.Is(err, hvf.ErrBadCompound) {
		return &ConfigError{Msg: err.Error(), cause: err}
	}
	return err
}
