package quotefind

import "errors"

var (
	// ErrInvalidInput is returned for empty text, text exceeding the
	// configured maximum length, or an unsupported detection mode.
	ErrInvalidInput = errors.New("quotefind: invalid input")

	// ErrServiceUnavailable is returned when the vector index or verse store
	// fails in a way that prevents retrieval. Callers may retry.
	ErrServiceUnavailable = errors.New("quotefind: retrieval service unavailable")

	// ErrInternal signals an invariant violation, such as a hydrated verse
	// missing required fields. Should never occur in a correct deployment.
	ErrInternal = errors.New("quotefind: internal error")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("quotefind: invalid configuration")
)
