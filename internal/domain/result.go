package domain

import "github.com/kapu/lolbot-go/pkg/errors"

// Attachment is an image shown with a message. Caption is optional.
type Attachment struct {
	URL     string
	Caption string
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

type Author struct {
	Name    string
	IconURL string
}

// Message is the payload of a successful command. A message with nothing but
// Text is delivered as plain chat text; anything richer becomes an embed.
type Message struct {
	Text        string
	Title       string
	Author      *Author
	Fields      []Field
	Attachments []Attachment
}

// IsPlain reports whether the message carries only text.
func (m *Message) IsPlain() bool {
	return m.Title == "" && m.Author == nil && len(m.Fields) == 0 && len(m.Attachments) == 0
}

// Result is the outcome of one command invocation: exactly one of a message
// or a failure. Build it with Success or Fail.
type Result struct {
	message *Message
	failure *errors.Failure
}

func Success(msg Message) Result {
	return Result{message: &msg}
}

// Fail wraps f as a failed result. A nil failure is replaced by a generic
// upstream failure so a Result is never empty.
func Fail(f *errors.Failure) Result {
	if f == nil {
		f = errors.NewFailure(errors.KindUpstreamUnavailable, "")
	}
	if f.Detail == "" {
		f.Detail = f.Kind.DefaultDetail()
	}
	return Result{failure: f}
}

func (r Result) IsFailure() bool {
	return r.failure != nil
}

// Message returns the success payload, or nil for a failure.
func (r Result) Message() *Message {
	return r.message
}

// Failure returns the failure, or nil for a success.
func (r Result) Failure() *errors.Failure {
	return r.failure
}
