package protocol

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidPayload is returned when outbound text is not well-formed JSON.
	ErrInvalidPayload = errors.New("invalid JSON payload")
	// ErrEmptyMessage is returned when outbound text is empty after normalization.
	ErrEmptyMessage = errors.New("empty message")
)

// Normalize prepares operator text for transmission by removing every
// embedded newline. No other trimming is done.
func Normalize(text string) string {
	return strings.ReplaceAll(text, "\n", "")
}

// Validate reports whether text parses as a single well-formed JSON value.
func Validate(text string) error {
	if !gjson.Valid(text) {
		return fmt.Errorf("%w: %q", ErrInvalidPayload, truncate(text, 32))
	}
	return nil
}

// Prepare normalizes text and, when validate is set, checks it is JSON.
// Empty text is rejected after validation so that an empty payload under
// the validation policy reports ErrInvalidPayload.
func Prepare(text string, validate bool) (string, error) {
	msg := Normalize(text)
	if validate {
		if err := Validate(msg); err != nil {
			return "", err
		}
	}
	if msg == "" {
		return "", ErrEmptyMessage
	}
	return msg, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
