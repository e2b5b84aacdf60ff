// Package attempt runs a single xcodebuild test attempt and collects its results.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/stringutil"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-xcode/v2/errorfinder"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testapp"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/xcodecommand"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/xcodelog"
)

const (
	// LogFileName is the raw xcodebuild output inside an attempt dir.
	LogFileName = "xcodebuild.log"
	// ResultBundleName is the result bundle inside an attempt dir.
	ResultBundleName = "Attempt.xcresult"

	lastLinesOnFailure = 20
)

// Request describes one attempt of a shard.
type Request struct {
	Attempt  int
	Shards   int
	Excluded testresult.TestSet
}

// Config is the fixed part of every attempt of a shard.
type Config struct {
	// App carries the shard's test set in IncludedTests.
	App               testapp.App
	Destination       string
	OutputDir         string
	XcodebuildOptions []string
	Timeout           time.Duration
}

// Executor runs attempts.
type Executor interface {
	Run(ctx context.Context, req Request) (testresult.ResultLog, error)
}

type executor struct {
	config      Config
	runner      xcodecommand.Runner
	parser      xcodelog.Parser
	fileManager fileutil.FileManager
	logger      log.Logger
}

// NewExecutor ...
func NewExecutor(config Config, runner xcodecommand.Runner, parser xcodelog.Parser, fileManager fileutil.FileManager, logger log.Logger) Executor {
	return &executor{
		config:      config,
		runner:      runner,
		parser:      parser,
		fileManager: fileManager,
		logger:      logger,
	}
}

// Dir returns the output dir of an attempt.
func Dir(outputDir string, attempt int) string {
	return filepath.Join(outputDir, fmt.Sprintf("attempt_%d", attempt))
}

func (e *executor) Run(ctx context.Context, req Request) (testresult.ResultLog, error) {
	dir := Dir(e.config.OutputDir, req.Attempt)

	// Otherwise xcodebuild fails with `error: Existing file at -resultBundlePath "..."`
	if err := e.fileManager.RemoveAll(dir); err != nil {
		return testresult.ResultLog{}, &ProcessLaunchError{Attempt: req.Attempt, Err: fmt.Errorf("failed to clean attempt dir (%s): %w", dir, err)}
	}

	xctestrunPath, err := e.config.App.WriteXCTestRun(e.fileManager, dir, req.Excluded.Sorted())
	if err != nil {
		return testresult.ResultLog{}, &ProcessLaunchError{Attempt: req.Attempt, Err: err}
	}

	args := testapp.TestCommandArgs(xctestrunPath, e.config.Destination, filepath.Join(dir, ResultBundleName), req.Shards)
	args = append(args, e.config.XcodebuildOptions...)

	logFile, err := os.Create(filepath.Join(dir, LogFileName))
	if err != nil {
		return testresult.ResultLog{}, &ProcessLaunchError{Attempt: req.Attempt, Err: fmt.Errorf("failed to create log file: %w", err)}
	}
	defer func() {
		if err := logFile.Close(); err != nil {
			e.logger.Warnf("Failed to close %s: %s", logFile.Name(), err)
		}
	}()

	attemptCtx := ctx
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	e.logger.Infof("Running attempt #%d (%d test(s) excluded, %d parallel worker(s))", req.Attempt, req.Excluded.Len(), req.Shards)

	out, err := e.runner.Run(attemptCtx, xcodecommand.Params{
		WorkDir:   dir,
		Args:      args,
		LogWriter: logFile,
	})
	var startErr *xcodecommand.StartError
	if errors.As(err, &startErr) {
		return testresult.ResultLog{}, &ProcessLaunchError{Attempt: req.Attempt, Err: err}
	}

	rawOutput := string(out.RawOut)
	result := e.parser.CollectResults(dir, rawOutput)

	switch {
	case err != nil:
		e.logger.Warnf("xcodebuild failed: %s", err)
		result.AddCancellation(testresult.StatusBuildInterrupted, fmt.Sprintf("xcodebuild failed: %s", err))
	case out.Interrupted:
		result.AddCancellation(testresult.StatusBuildInterrupted, interruptionReason(ctx, e.config.Timeout))
	}

	if err := e.parser.CopyArtifacts(dir); err != nil {
		e.logger.Warnf("Failed to copy attempt artifacts: %s", err)
	}

	if result.HasFailures() {
		e.logFailure(out, rawOutput)
	}

	return result, nil
}

func interruptionReason(parent context.Context, timeout time.Duration) string {
	if parent.Err() == nil && timeout > 0 {
		return fmt.Sprintf("attempt timed out after %s", timeout)
	}
	return "test run was cancelled"
}

func (e *executor) logFailure(out xcodecommand.Output, rawOutput string) {
	e.logger.Warnf("xcodebuild exited with %d", out.ExitCode)

	if errs := errorfinder.FindXcodebuildErrors(rawOutput); len(errs) > 0 {
		e.logger.Printf("Errors found in the xcodebuild output:")
		e.logger.Printf("%s", strings.Join(errs, "\n"))
	}

	e.logger.Debugf("Last %d lines of the xcodebuild output:", lastLinesOnFailure)
	e.logger.Debugf("%s", stringutil.LastNLines(rawOutput, lastLinesOnFailure))
}
