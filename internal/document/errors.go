package document

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Reason says why a document could not be opened.
type Reason string

const (
	ReasonNotFound    Reason = "not_found"
	ReasonUnsupported Reason = "unsupported"
	ReasonCorrupt     Reason = "corrupt"
	ReasonLocked      Reason = "locked"
	ReasonSource      Reason = "source"
)

// LoadError is returned by Session.Open when no document could be opened.
type LoadError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("open %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("open %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// classifyOpenError maps a decoder error onto a Reason.
func classifyOpenError(err error) Reason {
	if err == nil {
		return ""
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fitz.ErrNoSuchFile) {
		return ReasonNotFound
	}
	if errors.Is(err, fitz.ErrNeedsPassword) {
		return ReasonLocked
	}
	if looksLocked(err) {
		return ReasonLocked
	}
	return ReasonCorrupt
}

func looksLocked(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "password") ||
		strings.Contains(s, "encrypt") ||
		strings.Contains(s, "locked")
}
