package xcodecommand

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bitrise-io/go-utils/errorutil"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
	version "github.com/hashicorp/go-version"
)

const xcbeautify = "xcbeautify"

type xcbeautifyRunner struct {
	logger         log.Logger
	commandFactory command.Factory
	xcbeautifyArgs []string
}

func NewXcbeautifyRunner(logger log.Logger, commandFactory command.Factory, xcbeautifyArgs []string) Runner {
	return &xcbeautifyRunner{
		logger:         logger,
		commandFactory: commandFactory,
		xcbeautifyArgs: xcbeautifyArgs,
	}
}

func (c *xcbeautifyRunner) Run(ctx context.Context, params Params) (Output, error) {
	var (
		buildOutBuffer         bytes.Buffer
		pipeReader, pipeWriter = io.Pipe()
		buildOutWriter         = io.MultiWriter(outputWriter(&buildOutBuffer, params.LogWriter), pipeWriter)
	)

	// For parallel and concurrent destination testing, it helps to use unbuffered I/O for stdout and to redirect stderr to stdout.
	// NSUnbufferedIO=YES xcodebuild [args] 2>&1 | xcbeautify
	buildCmd := newXcodebuildCommand(ctx, params, buildOutWriter)

	beautifyCmd := c.commandFactory.Create(xcbeautify, c.xcbeautifyArgs, &command.Opts{
		Stdin:  pipeReader,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})

	c.logger.TPrintf("$ set -o pipefail && %s | %s", printableCommand(xcodebuild, params.Args), beautifyCmd.PrintableCommandArgs())

	if err := buildCmd.Start(); err != nil {
		return Output{ExitCode: -1}, &StartError{Command: xcodebuild, Err: err}
	}

	var beautifyDone <-chan error
	if err := beautifyCmd.Start(); err != nil {
		c.logger.Warnf("Failed to start xcbeautify, xcodebuild output is not formatted: %s", err)
		go func() {
			_, _ = io.Copy(io.Discard, pipeReader)
		}()
	} else {
		beautifyDone = waitAndDrain(beautifyCmd, pipeReader)
	}

	waitErr := buildCmd.Wait()

	if err := pipeWriter.Close(); err != nil {
		c.logger.Warnf("Failed to close xcodebuild-xcbeautify pipe: %s", err)
	}
	if beautifyDone != nil {
		if err := <-beautifyDone; err != nil {
			c.logger.Warnf("xcbeautify command failed: %s", err)
		}
	}

	return exitOutput(ctx, buildOutBuffer.Bytes(), waitErr)
}

// waitAndDrain waits for the formatter, then discards its remaining input
// so that xcodebuild is not blocked on the pipe when the formatter exits early.
func waitAndDrain(formatter command.Command, input io.Reader) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := formatter.Wait()
		_, _ = io.Copy(io.Discard, input)
		done <- err
	}()
	return done
}

func (c *xcbeautifyRunner) CheckInstall() (*version.Version, error) {
	c.logger.Println()
	c.logger.Infof("Checking log formatter (xcbeautify) version")

	versionCmd := c.commandFactory.Create(xcbeautify, []string{"--version"}, nil)

	out, err := versionCmd.RunAndReturnTrimmedOutput()
	if err != nil {
		if errorutil.IsExitStatusError(err) {
			return nil, fmt.Errorf("xcbeautify version command failed: %w", err)
		}

		return nil, fmt.Errorf("failed to run xcbeautify command: %w", err)
	}

	return version.NewVersion(out)
}
