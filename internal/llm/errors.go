package llm

import "errors"

var (
	// ErrProviderUnavailable indicates the completion endpoint is unreachable.
	ErrProviderUnavailable = errors.New("completion provider unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("completion request timed out")

	// ErrProviderStatus indicates the provider answered with a non-2xx status
	// (quota, auth, model errors).
	ErrProviderStatus = errors.New("completion provider returned an error status")

	// ErrInvalidOutput indicates the response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid completion output format")
)
