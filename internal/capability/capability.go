package capability

import (
	"errors"
	"fmt"
)

// GroundingMode identifies a search-grounding tool the completion provider
// may attach to a call. The empty mode means no grounding.
type GroundingMode string

const (
	GroundingNone            GroundingMode = ""
	GroundingGoogleSearch    GroundingMode = "google_search"
	GroundingSearchRetrieval GroundingMode = "google_search_retrieval"
)

// ErrorKind classifies completion capability failures.
type ErrorKind string

const (
	// KindUnsupported means the requested grounding mode is not available for
	// the model. Deterministic, safe to fall back from.
	KindUnsupported ErrorKind = "unsupported"
	// KindTransient covers network, quota and service failures. Not retried
	// blindly; the owning component decides.
	KindTransient ErrorKind = "transient"
)

// Error is the tagged variant raised by completion providers.
type Error struct {
	Kind ErrorKind
	Mode GroundingMode
	Err  error
}

func (e *Error) Error() string {
	if e.Mode != GroundingNone {
		return fmt.Sprintf("completion %s (mode %s): %v", e.Kind, e.Mode, e.Err)
	}
	return fmt.Sprintf("completion %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Unsupported wraps err as a mode-unsupported capability error.
func Unsupported(mode GroundingMode, err error) *Error {
	return &Error{Kind: KindUnsupported, Mode: mode, Err: err}
}

// Transient wraps err as a transient capability error.
func Transient(mode GroundingMode, err error) *Error {
	return &Error{Kind: KindTransient, Mode: mode, Err: err}
}

// IsUnsupported reports whether err is a mode-unsupported capability error.
func IsUnsupported(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindUnsupported
}

// ParseModes converts configured mode names into grounding modes, dropping
// unknown entries.
func ParseModes(names []string) []GroundingMode {
	var modes []GroundingMode
	for _, n := range names {
		switch GroundingMode(n) {
		case GroundingGoogleSearch, GroundingSearchRetrieval:
			modes = append(modes, GroundingMode(n))
		}
	}
	return modes
}
