package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind tags why an outbound call or command failed.
type Kind string

const (
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	KindUpstreamMalformed   Kind = "UPSTREAM_MALFORMED"
	KindConfigMissing       Kind = "CONFIG_MISSING"
	KindNotFound            Kind = "NOT_FOUND"
	KindInvalidArgument     Kind = "INVALID_ARGUMENT"
)

func (k Kind) String() string {
	return string(k)
}

// DefaultDetail is shown when a failure is built without a detail of its own.
func (k Kind) DefaultDetail() string {
	switch k {
	case KindUpstreamUnavailable:
		return "The service is unavailable right now."
	case KindUpstreamMalformed:
		return "The service sent something I couldn't read."
	case KindConfigMissing:
		return "This service is not configured."
	case KindNotFound:
		return "Nothing was found."
	case KindInvalidArgument:
		return "Invalid argument."
	default:
		return "Something went wrong."
	}
}

// Failure is the user-facing failure value carried by a command result.
// Detail is safe to show to users; Cause is for logs only.
type Failure struct {
	Kind   Kind
	Detail string
	Status int
	Cause  error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Detail, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

func NewFailure(kind Kind, detail string) *Failure {
	if detail == "" {
		detail = kind.DefaultDetail()
	}
	return &Failure{
		Kind:   kind,
		Detail: detail,
	}
}

func (f *Failure) WithStatus(status int) *Failure {
	f.Status = status
	return f
}

func (f *Failure) WithCause(cause error) *Failure {
	f.Cause = cause
	return f
}

// NewConfigMissing reports a service whose credential was not provided.
func NewConfigMissing(detail string) *Failure {
	return NewFailure(KindConfigMissing, detail)
}

// NewNotFound reports a valid lookup that returned nothing.
func NewNotFound(detail string) *Failure {
	return NewFailure(KindNotFound, detail)
}

func NewInvalidArgument(detail string) *Failure {
	return NewFailure(KindInvalidArgument, detail)
}

// AsFailure returns the first *Failure in err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if stderrors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// PostTarget names a stats endpoint the bot reports to.
type PostTarget string

const (
	TargetDBL     PostTarget = "discordbots.org"
	TargetDBots   PostTarget = "bots.discord.pw"
	TargetDatadog PostTarget = "datadog"
)

// PostError is returned when posting bot stats to a target fails.
type PostError struct {
	Message    string
	Target     PostTarget
	StatusCode int
	Cause      error
}

func (e *PostError) Error() string {
	msg := fmt.Sprintf("post to %s failed: %s", e.Target, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PostError) Unwrap() error {
	return e.Cause
}

func NewPostError(message string, target PostTarget, statusCode int, cause error) *PostError {
	return &PostError{
		Message:    message,
		Target:     target,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// IsPostError reports whether err carries a PostError for target.
// An empty target matches any PostError.
func IsPostError(err error, target PostTarget) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*PostError); ok && (target == "" || pe.Target == target) {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if IsPostError(inner, target) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsPostError(x.Unwrap(), target)
	}
	return false
}
