package batch

import "errors"

var (
	// ErrJobNotFound indicates the requested job doesn't exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidSliceSize indicates a non-positive slice size was supplied.
	ErrInvalidSliceSize = errors.New("slice size must be positive")

	// ErrRecordCountAlreadySet indicates an attempt to overwrite the final
	// expected record count after the ingestion path already set it.
	ErrRecordCountAlreadySet = errors.New("record count already set")

	// ErrSliceNotFound indicates the requested slice doesn't exist.
	ErrSliceNotFound = errors.New("slice not found")
)
