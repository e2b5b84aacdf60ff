package xcodecommand

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/bitrise-io/go-utils/progress"
	"github.com/bitrise-io/go-utils/v2/log"
	version "github.com/hashicorp/go-version"
	"github.com/kballard/go-shellquote"
)

const xcodebuild = "xcodebuild"

var xcodeCommandEnvs = []string{"NSUnbufferedIO=YES"}

// xcodebuild gets this long to exit after SIGTERM before it is killed.
const terminateGracePeriod = 30 * time.Second

type rawXcodeCommand struct {
	logger log.Logger
}

func NewRawCommandRunner(logger log.Logger) Runner {
	return &rawXcodeCommand{
		logger: logger,
	}
}

func (c *rawXcodeCommand) Run(ctx context.Context, params Params) (Output, error) {
	var outBuffer bytes.Buffer
	outWriter := outputWriter(&outBuffer, params.LogWriter)

	cmd := newXcodebuildCommand(ctx, params, outWriter)
	c.logger.TPrintf("$ %s", printableCommand(xcodebuild, params.Args))

	if err := cmd.Start(); err != nil {
		return Output{ExitCode: -1}, &StartError{Command: xcodebuild, Err: err}
	}

	var err error
	progress.SimpleProgress(".", time.Minute, func() {
		err = cmd.Wait()
	})

	return exitOutput(ctx, outBuffer.Bytes(), err)
}

func (c *rawXcodeCommand) CheckInstall() (*version.Version, error) {
	return nil, nil
}

// newXcodebuildCommand builds an xcodebuild process that receives SIGTERM when ctx ends.
func newXcodebuildCommand(ctx context.Context, params Params, out io.Writer) *exec.Cmd {
	cmd := exec.CommandContext(ctx, xcodebuild, params.Args...)
	cmd.Dir = params.WorkDir
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Env = append(append(os.Environ(), xcodeCommandEnvs...), params.Env...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = terminateGracePeriod
	return cmd
}

func outputWriter(buffer *bytes.Buffer, logWriter io.Writer) io.Writer {
	if logWriter == nil {
		return buffer
	}
	return io.MultiWriter(buffer, logWriter)
}

func printableCommand(name string, args []string) string {
	return shellquote.Join(append([]string{name}, args...)...)
}
