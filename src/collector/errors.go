package collector

import (
	"errors"
	"fmt"
	"strings"

	"opslens/src/contracts"
)

var (
	ErrUnknownSource     = errors.New("invalid log source")
	ErrMissingConfig     = errors.New("missing required configuration")
	ErrSourceUnreachable = errors.New("source unreachable")
	ErrAuthFailed        = errors.New("authentication failed")
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// Unreachable marks err as a failure to reach source's upstream.
func Unreachable(source contracts.Source, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrSourceUnreachable, source, err)
}

// WrapError converts request errors to user-friendly messages.
// Errors that are not the caller's fault are returned unchanged.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if userErr, ok := AsUserError(err); ok {
		return userErr
	}

	if errors.Is(err, ErrUnknownSource) {
		return &UserError{
			Message: "Invalid log source",
			Hint:    "Supported sources: " + joinSources(contracts.Sources()),
			Err:     err,
		}
	}

	return err
}

// AsUserError returns the *UserError in err's chain, if any.
func AsUserError(err error) (*UserError, bool) {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr, true
	}
	return nil, false
}

func joinSources(sources []contracts.Source) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
