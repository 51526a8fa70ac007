package ingestion

import (
	"errors"
	"fmt"
)

// ErrExtractionFailed is matched by every ExtractionError via errors.Is
var ErrExtractionFailed = errors.New("extraction failed")

// ErrUnreadableMessage is the user-facing text of a failed extraction
const ErrUnreadableMessage = "Could not read this file. Try saving as a TXT file or using a different PDF."

// ExtractionError represents a document from which no usable text could be recovered
type ExtractionError struct {
	Filename string
	Message  string
	Cause    error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Is reports ErrExtractionFailed as a match so callers need not know the concrete type
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

// FileError represents a failure to read a file from disk before extraction
type FileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *FileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Path)
}

func (e *FileError) Unwrap() error {
	return e.Cause
}
