package core

import "errors"

// ErrorKind is the tagged-variant error taxonomy from spec §7. Every
// component surfaces only its own kinds (ParseError/TypeError are forwarded
// from the parser front-end unchanged; translators never catch parser
// errors; the Planner never catches translator errors).
type ErrorKind string

const (
	ErrorParseError              ErrorKind = "ParseError"
	ErrorTypeError               ErrorKind = "TypeError"
	ErrorUnsupportedConstruct    ErrorKind = "UnsupportedConstruct"
	ErrorClosureError            ErrorKind = "ClosureError"
	ErrorBlockShapeError         ErrorKind = "BlockShapeError"
	ErrorNameError               ErrorKind = "NameError"
	ErrorExecutableConflictError ErrorKind = "ExecutableConflictError"
	ErrorPlatformError            ErrorKind = "PlatformError"
	ErrorConfigurationError       ErrorKind = "ConfigurationError"
	ErrorInternal                 ErrorKind = "Internal"
)

// Error is the single tagged error type every core component returns.
// Kind selects the taxonomy entry; Message/Details carry human context;
// cause is the wrapped underlying error (e.g. a parser error forwarded
// unchanged, or a platform fault).
type Error struct {
	Message string         `json:"message,omitempty"`
	Kind    ErrorKind      `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// NewError builds an *Error of the given kind, wrapping err as its cause.
func NewError(err error, kind ErrorKind, details map[string]any) *Error {
	var message string
	if err != nil {
		message = err.Error()
	} else {
		message = "unknown error"
	}
	return &Error{
		Message: message,
		Kind:    kind,
		Details: details,
		cause:   err,
	}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func (e *Error) AsMap() map[string]any {
	if e == nil {
		return nil
	}
	if e.Message == "" && e.Kind == "" && e.Details == nil {
		return nil
	}
	return map[string]any{
		"message": e.Message,
		"code":    string(e.Kind),
		"details": e.Details,
	}
}

// KindOf extracts the ErrorKind from err, walking the unwrap chain. It
// returns ("", false) for errors that never passed through NewError (for
// example a raw error from an external library that a caller forgot to
// wrap).
func KindOf(err error) (ErrorKind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// ExitCode maps an error to the embedding CLI's process exit code per
// spec §6: 0 success, 1 user-input/configuration error, 2 platform/IO
// error, 3 internal invariant violation. A nil error is success; an error
// that never passed through NewError is treated as an internal failure
// since the core never intentionally returns unwrapped errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	kind, ok := KindOf(err)
	if !ok {
		return 3
	}
	switch kind {
	case ErrorParseError, ErrorTypeError, ErrorUnsupportedConstruct,
		ErrorClosureError, ErrorNameError, ErrorExecutableConflictError,
		ErrorConfigurationError:
		return 1
	case ErrorPlatformError:
		return 2
	case ErrorBlockShapeError, ErrorInternal:
		return 3
	default:
		return 3
	}
}
