// FILE: lixenwraith/layered/report.go
package layered

import (
	"log/slog"
)

// Reporter decides what happens to a detected problem. In fatal mode every
// report is returned to the caller as an *Error. Otherwise it is logged and
// swallowed, and the operation that raised it carries on.
type Reporter struct {
	logger *slog.Logger
	fatal  bool
	strict bool
}

// NewReporter returns a non-fatal, non-strict reporter logging to logger.
// A nil logger falls back to slog.Default().
func NewReporter(logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{logger: logger}
}

// Report builds an *Error of the given kind. It returns the error when the
// reporter is fatal and nil after logging it otherwise. A nil kind is
// reported as ErrType.
func (r *Reporter) Report(kind error, message string, info map[string]any) error {
	if kind == nil {
		kind = ErrType
	}
	if message == "" {
		message = kind.Error()
	}
	err := &Error{Kind: kind, Message: message, Info: info}
	if r.fatal {
		return err
	}

	attrs := make([]any, 0, 2+len(info))
	attrs = append(attrs, slog.String("kind", kind.Error()))
	for k, v := range info {
		attrs = append(attrs, slog.Any(k, v))
	}
	r.logger.Warn(message, attrs...)
	return nil
}

// SetFatal switches between raising and logging reports.
func (r *Reporter) SetFatal(fatal bool) {
	r.fatal = fatal
}

// Fatal reports whether problems are returned as errors.
func (r *Reporter) Fatal() bool {
	return r.fatal
}

// SetStrict toggles reporting of missing nested properties during Add.
func (r *Reporter) SetStrict(strict bool) {
	r.strict = strict
}

// SetStrictValue is SetStrict for dynamically typed input, e.g. a value
// decoded from a file. Anything but a bool is reported as ErrInvalidStrict
// and leaves strict mode unchanged.
func (r *Reporter) SetStrictValue(v any) error {
	strict, ok := v.(bool)
	if !ok {
		return r.Report(ErrInvalidStrict, "invalid strict value", map[string]any{"value": v})
	}
	r.strict = strict
	return nil
}

// Strict reports whether missing nested properties are reported.
func (r *Reporter) Strict() bool {
	return r.strict
}

// Logger returns the logger used for non-fatal reports.
func (r *Reporter) Logger() *slog.Logger {
	return r.logger
}
