package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrFormNotFound reports filling an unregistered form.
	ErrFormNotFound = errors.New("prompt: form not found")
)
