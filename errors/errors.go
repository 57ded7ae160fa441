package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrIndexUnavailable indicates the index artifacts are missing or
	// unreadable; the retriever is in its unloaded state. Callers must be
	// able to tell this apart from a legitimate empty result.
	ErrIndexUnavailable = errors.New("index not built")

	// ErrEmptyCorpus indicates a build pass found zero extractable chunks.
	// The prior index, if any, is left untouched.
	ErrEmptyCorpus = errors.New("no extractable documents in corpus")

	// ErrUnreadableDocument indicates a single source document failed
	// extraction. Per-document failures never abort the whole build.
	ErrUnreadableDocument = errors.New("document extraction failed")

	// ErrInvalidInput indicates invalid caller input
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding endpoint could not
	// produce a vector
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrBuildInProgress indicates a rebuild is already running
	ErrBuildInProgress = errors.New("index build already in progress")
)

// WrapError wraps an error with a context message
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with a formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsIndexUnavailable checks if error means the index is not loaded
func IsIndexUnavailable(err error) bool {
	return errors.Is(err, ErrIndexUnavailable)
}

// IsEmptyCorpus checks if error is an empty corpus build failure
func IsEmptyCorpus(err error) bool {
	return errors.Is(err, ErrEmptyCorpus)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsBuildInProgress checks if error means a rebuild is already running
func IsBuildInProgress(err error) bool {
	return errors.Is(err, ErrBuildInProgress)
}
