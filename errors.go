package dbow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for unusable arguments: bad parameters, an
	// empty vocabulary, a non-positive result count.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidK is returned when the branching factor is below 2.
	ErrInvalidK = fmt.Errorf("%w: branching factor must be at least 2", ErrInvalidInput)

	// ErrEmptyCorpus is returned when a training corpus holds no descriptors.
	ErrEmptyCorpus = fmt.Errorf("%w: training corpus has no descriptors", ErrInvalidInput)

	// ErrDeserialization is returned when stored data is malformed.
	ErrDeserialization = errors.New("deserialization failed")

	// ErrIO is returned when the underlying reader, writer, file or store fails.
	ErrIO = errors.New("i/o failure")

	// ErrDimension matches every *ErrDimensionMismatch via errors.Is.
	ErrDimension = errors.New("dimension mismatch")
)

// ErrDimensionMismatch indicates a descriptor whose length differs from the
// vocabulary's descriptor length.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports whether target is ErrDimension.
func (e *ErrDimensionMismatch) Is(target error) bool {
	return target == ErrDimension
}

func invalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func deserializationError(err error) error {
	if err == nil || errors.Is(err, ErrDeserialization) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDeserialization, err)
}

func ioError(err error) error {
	if err == nil || errors.Is(err, ErrIO) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}
