package async

import "errors"

var (
	// ErrTimeout is returned when AwaitWithTimeout gives up first.
	ErrTimeout = errors.New("async: timeout")

	// ErrRunnerStopped is returned by futures for tasks submitted after Shutdown.
	ErrRunnerStopped = errors.New("async: runner stopped")
)
