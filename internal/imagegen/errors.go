package imagegen

import (
	"errors"
	"fmt"
)

// Kind classifies why an edit could not be produced.
type Kind string

const (
	KindUnsupportedMediaType Kind = "unsupported_media_type"
	KindMalformedForm        Kind = "malformed_form"
	KindMissingImage         Kind = "missing_image"
	KindMissingPrompt        Kind = "missing_prompt"
	KindInvalidImageEncoding Kind = "invalid_image_encoding"
	KindTooManyImages        Kind = "too_many_images"
	KindInvalidImageFormat   Kind = "invalid_image_format"
	KindConfiguration        Kind = "configuration_error"
	KindNoImageReturned      Kind = "no_image_returned"
)

// Error is the failure value returned by the normalizer and the invoker.
// Message is safe to show to clients; Err is kept for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

var (
	ErrUnsupportedMediaType = &Error{Kind: KindUnsupportedMediaType}
	ErrMalformedForm        = &Error{Kind: KindMalformedForm}
	ErrMissingImage         = &Error{Kind: KindMissingImage}
	ErrMissingPrompt        = &Error{Kind: KindMissingPrompt}
	ErrInvalidImageEncoding = &Error{Kind: KindInvalidImageEncoding}
	ErrTooManyImages        = &Error{Kind: KindTooManyImages}
	ErrInvalidImageFormat   = &Error{Kind: KindInvalidImageFormat}
	ErrConfiguration        = &Error{Kind: KindConfiguration}
	ErrNoImageReturned      = &Error{Kind: KindNoImageReturned}
)

// NewError builds an *Error of the given kind.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf reports the kind carried by err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Detail returns the client-facing message for err.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}
