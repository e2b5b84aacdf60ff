package attempt

import "fmt"

// ProcessLaunchError is returned when an attempt could not be started at all.
// It is fatal for the shard running the attempt.
type ProcessLaunchError struct {
	Attempt int
	Err     error
}

func (e *ProcessLaunchError) Error() string {
	return fmt.Sprintf("attempt #%d could not be launched: %s", e.Attempt, e.Err)
}

func (e *ProcessLaunchError) Unwrap() error {
	return e.Err
}
