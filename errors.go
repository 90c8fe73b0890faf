// Package vast provides an engine for viewing and editing text files whose
// size greatly exceeds available memory, via memory-mapped access, a
// hybrid full/sparse line index, parallel chunked search, and crash-safe
// in-place or copy-on-write replacement.
package vast

import "errors"

// Kind categorizes an engine failure the way a consumer is expected to
// branch on it, independent of the wrapped OS or regexp error text.
type Kind int

const (
	// KindIoError wraps an underlying file system failure.
	KindIoError Kind = iota

	// KindUnsupportedEncoding indicates the requested encoding is not known.
	KindUnsupportedEncoding

	// KindOutOfRange indicates a line number or byte offset outside the file.
	KindOutOfRange

	// KindBadPattern indicates a regular expression failed to compile.
	KindBadPattern

	// KindLengthMismatch indicates an in-place edit would change length.
	KindLengthMismatch

	// KindOverlapError indicates two pending edits overlap.
	KindOverlapError

	// KindCancelled indicates a long-running operation was cooperatively stopped.
	KindCancelled

	// KindScanError indicates a read failure mid-operation.
	KindScanError
)

func (k Kind) String() string {
	switch k {
	case KindIoError:
		return "IoError"
	case KindUnsupportedEncoding:
		return "UnsupportedEncoding"
	case KindOutOfRange:
		return "OutOfRange"
	case KindBadPattern:
		return "BadPattern"
	case KindLengthMismatch:
		return "LengthMismatch"
	case KindOverlapError:
		return "OverlapError"
	case KindCancelled:
		return "Cancelled"
	case KindScanError:
		return "ScanError"
	default:
		return "Unknown"
	}
}

// Position errors
var (
	// ErrOutOfRange indicates a line number or byte offset outside the file.
	ErrOutOfRange = errors.New("position out of range")

	// ErrInvalidRange indicates a byte range with a ≤ b violated, or b > len().
	ErrInvalidRange = errors.New("invalid byte range")
)

// Encoding errors
var (
	// ErrUnsupportedEncoding indicates the requested encoding is not known.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// Search errors
var (
	// ErrBadPattern indicates a regular expression failed to compile.
	ErrBadPattern = errors.New("regular expression failed to compile")

	// ErrEmptyPattern indicates a search was requested with an empty pattern.
	ErrEmptyPattern = errors.New("empty search pattern")
)

// Replace errors
var (
	// ErrLengthMismatch indicates an in-place edit would change length.
	ErrLengthMismatch = errors.New("in-place replacement must preserve length")

	// ErrOverlap indicates two pending edits overlap.
	ErrOverlap = errors.New("pending edits overlap")
)

// Operation lifecycle errors
var (
	// ErrCancelled indicates a long-running operation was cooperatively stopped.
	ErrCancelled = errors.New("operation cancelled")

	// ErrScan indicates a read failure mid-operation.
	ErrScan = errors.New("scan failed")

	// ErrClosed indicates the Reader or Viewer has already been closed.
	ErrClosed = errors.New("reader closed")
)

// File system errors
var (
	// ErrIo wraps an underlying file system failure.
	ErrIo = errors.New("io error")
)

func sentinelFor(k Kind) error {
	switch k {
	case KindIoError:
		return ErrIo
	case KindUnsupportedEncoding:
		return ErrUnsupportedEncoding
	case KindOutOfRange:
		return ErrOutOfRange
	case KindBadPattern:
		return ErrBadPattern
	case KindLengthMismatch:
		return ErrLengthMismatch
	case KindOverlapError:
		return ErrOverlap
	case KindCancelled:
		return ErrCancelled
	case KindScanError:
		return ErrScan
	default:
		return ErrIo
	}
}

// EngineError carries a Kind plus the underlying cause, so a consumer can
// branch on Kind (via errors.Is against the matching sentinel) while still
// recovering the original OS or regexp error through Unwrap.
type EngineError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Kind.String() + ": " + e.Message
	case e.Err != nil:
		return e.Kind.String() + ": " + e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrOutOfRange) succeed for any EngineError of the
// matching Kind, without the caller needing to know about EngineError.
func (e *EngineError) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}

func newErr(kind Kind, message string, cause error) *EngineError {
	return &EngineError{Kind: kind, Message: message, Err: cause}
}
