package xcodecommand

import (
	"context"
	"errors"
	"io"
	"os/exec"

	"github.com/hashicorp/go-version"
)

// Output is the result of one xcodebuild run.
type Output struct {
	RawOut   []byte
	ExitCode int
	// Interrupted is set when the process was stopped because its context ended.
	Interrupted bool
}

// Params describes one xcodebuild invocation.
type Params struct {
	WorkDir string
	Args    []string
	// Env is appended to the inherited environment.
	Env []string
	// LogWriter, if set, receives the raw output while it is produced.
	LogWriter io.Writer
}

type DependencyInstaller interface {
	CheckInstall() (*version.Version, error)
}

// Runner runs xcodebuild.
//
// A non-zero exit status is reported through Output.ExitCode, the returned
// error is reserved for cases when the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, params Params) (Output, error)
}

// StartError is returned when the command could not be started.
type StartError struct {
	Command string
	Err     error
}

func (e *StartError) Error() string {
	return "failed to start " + e.Command + ": " + e.Err.Error()
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// exitOutput converts the result of waiting on an xcodebuild process.
func exitOutput(ctx context.Context, rawOut []byte, waitErr error) (Output, error) {
	out := Output{
		RawOut:      rawOut,
		Interrupted: ctx.Err() != nil,
	}
	if waitErr == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if out.Interrupted {
		out.ExitCode = -1
		return out, nil
	}

	out.ExitCode = -1
	return out, waitErr
}
