// FILE: lixenwraith/layered/errors.go
package layered

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every problem detected by a Resolver is routed through its
// Reporter tagged with one of these, so callers can match with errors.Is.
var (
	// ErrType is the default kind for reports that carry no explicit kind.
	ErrType = errors.New("type error")

	ErrInvalidPosition  = errors.New("invalid pos value")
	ErrInvalidAnchor    = errors.New("invalid source")
	ErrInvalidStrict    = errors.New("invalid strict value")
	ErrInvalidSource    = errors.New("invalid source value")
	ErrPropertyNotFound = errors.New("property not found")
	ErrLazyEval         = errors.New("lazy value evaluation failed")

	// ErrNotFound is returned by read operations when no source provides the
	// key and no default applies. It is never reported.
	ErrNotFound = errors.New("value not found")

	// ErrConfigNotFound is returned by the file loaders when the file does not
	// exist. Builder treats it as non-fatal.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrCLIParse wraps malformed command-line arguments.
	ErrCLIParse = errors.New("failed to parse command-line arguments")
)

// Error is a reported problem. Kind identifies the category, Message the
// specific condition and Info carries debug values for the log record.
type Error struct {
	Kind    error
	Message string
	Info    map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("layered: ")
	b.WriteString(e.Message)
	if len(e.Info) > 0 {
		keys := make([]string, 0, len(e.Info))
		for k := range e.Info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Info[k])
		}
	}
	return b.String()
}

// Unwrap exposes the kind so errors.Is(err, ErrInvalidPosition) works.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}
