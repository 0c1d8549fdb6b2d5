package flashcard

import "errors"

var (
	// ErrBackend is returned when the backend could not be reached or rejected the call.
	ErrBackend = errors.New("backend request failed")

	// ErrInvalidResponse is returned when the backend reply is not JSON or has the wrong shape.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrEmptyContent is returned when generation is attempted on blank content.
	ErrEmptyContent = errors.New("content cannot be empty")
)
