package xcodecommand

import (
	"context"

	"github.com/bitrise-io/go-utils/v2/log"
	version "github.com/hashicorp/go-version"
)

type xcodecommandRunner struct {
	installer DependencyInstaller
	runner    Runner
}

// FallbackRunner runs xcodebuild through the configured formatter, or
// through the raw runner if the formatter is not usable.
type FallbackRunner struct {
	runner         xcodecommandRunner
	fallbackRunner xcodecommandRunner
	logger         log.Logger
}

func NewFallbackRunner(runner Runner, installer DependencyInstaller, logger log.Logger) *FallbackRunner {
	return &FallbackRunner{
		runner: xcodecommandRunner{
			runner:    runner,
			installer: installer,
		},
		fallbackRunner: xcodecommandRunner{
			runner:    NewRawCommandRunner(logger),
			installer: nil,
		},
		logger: logger,
	}
}

// CheckInstall verifies the formatter and switches to the raw runner when it is missing.
// Call it before the runner is shared between goroutines.
func (sel *FallbackRunner) CheckInstall() (*version.Version, error) {
	if sel.runner.installer == nil {
		return nil, nil
	}

	ver, err := sel.runner.installer.CheckInstall()
	if err == nil {
		return ver, nil
	}

	sel.logger.Errorf("Checking log formatter failed: %s", err)
	sel.logger.Infof("Falling back to xcodebuild log formatter")
	sel.runner = sel.fallbackRunner

	if sel.runner.installer == nil {
		return nil, nil
	}
	return sel.runner.installer.CheckInstall()
}

func (sel *FallbackRunner) Run(ctx context.Context, params Params) (Output, error) {
	return sel.runner.runner.Run(ctx, params)
}
