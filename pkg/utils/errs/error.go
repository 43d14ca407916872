package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for the layer that has to show it to the user.
type Kind string

const (
	KindUnknown             Kind = ""
	KindTransport           Kind = "transport"
	KindNotFound            Kind = "not_found"
	KindSessionInvalid      Kind = "session_invalid"
	KindMalformedCredential Kind = "malformed_credential"
	KindInvalidTransition   Kind = "invalid_transition"
	KindValidation          Kind = "validation"
)

// CustomError represents an error with a kind, additional arguments and wrapping capability.
type CustomError struct {
	message string
	kind    Kind
	args    map[string]interface{}
	wrapped error
}

// New creates a new CustomError instance.
func New(message string) *CustomError {
	return &CustomError{
		message: message,
		args:    make(map[string]interface{}),
	}
}

// Newf is New with a formatted message.
func Newf(format string, a ...interface{}) *CustomError {
	return New(fmt.Sprintf(format, a...))
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	return e.fullErrorString()
}

// Message returns the bare message without args or wrapped errors.
func (e *CustomError) Message() string {
	return e.message
}

// Kind returns the kind set on e, or the first kind found in the wrapped chain.
func (e *CustomError) Kind() Kind {
	if e.kind != KindUnknown {
		return e.kind
	}
	var inner *CustomError
	if errors.As(e.wrapped, &inner) {
		return inner.Kind()
	}
	return KindUnknown
}

// WithKind tags the error.
func (e *CustomError) WithKind(k Kind) *CustomError {
	e.kind = k
	return e
}

// Arg adds an argument to the error.
func (e *CustomError) Arg(key string, value interface{}) *CustomError {
	e.args[key] = value
	return e
}

// Wrap wraps another error (can be of the same type or a standard error).
func (e *CustomError) Wrap(err error) *CustomError {
	if err != nil {
		e.wrapped = err
	}
	return e
}

// Unwrap returns the wrapped error if any.
func (e *CustomError) Unwrap() error {
	return e.wrapped
}

// KindOf reports the kind of the first CustomError in err's chain.
func KindOf(err error) Kind {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Kind()
	}
	return KindUnknown
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// fullErrorString builds the error string in the format:
// "{msg: <message>, kind: <kind>, args: <args>, wrappedError: {<wrapped error>}}".
func (e *CustomError) fullErrorString() string {
	var builder strings.Builder

	builder.WriteString("{msg: ")
	builder.WriteString(e.message)

	if e.kind != KindUnknown {
		builder.WriteString(", kind: ")
		builder.WriteString(string(e.kind))
	}

	if len(e.args) > 0 {
		keys := make([]string, 0, len(e.args))
		for k := range e.args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s:%v", k, e.args[k]))
		}
		builder.WriteString(fmt.Sprintf(", args: map[%s]", strings.Join(pairs, " ")))
	}

	if e.wrapped != nil {
		wrappedErr := &CustomError{}
		if errors.As(e.wrapped, &wrappedErr) {
			builder.WriteString(fmt.Sprintf(", wrappedError: %s", wrappedErr.fullErrorString()))
		} else {
			builder.WriteString(fmt.Sprintf(", wrappedError: {%v}", e.wrapped.Error()))
		}
	}

	builder.WriteString("}")

	return builder.String()
}
