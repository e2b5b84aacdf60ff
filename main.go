package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitrise-io/go-steputils/v2/export"
	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-steputils/v2/stepenv"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-io/go-xcode/v2/destination"
	xcodesimulator "github.com/bitrise-io/go-xcode/v2/simulator"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/output"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/simulator"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/step"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testaddon"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testapp"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/xcodelog"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/xcodeversion"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewLogger()
	envRepository := env.NewRepository()
	commandFactory := command.NewFactory(envRepository)
	fileManager := fileutil.NewFileManager()
	pathChecker := pathutil.NewPathChecker()

	xcodeVersion, err := xcodeversion.NewXcodeVersionReader().Version()
	if err != nil {
		logger.Errorf("%s", err)
		return 1
	}
	logger.Printf("- xcodebuildVersion: %s (%s)", xcodeVersion.Version, xcodeVersion.BuildVersion)
	logger.Println()

	configParser := step.NewXcodeTestConfigParser(
		stepconf.NewInputParser(envRepository),
		logger,
		xcodeVersion,
		destination.NewDeviceFinder(logger, commandFactory, xcodeVersion),
		pathutil.NewPathModifier(),
	)
	config, err := configParser.ProcessConfig()
	if err != nil {
		logger.Errorf("Process config: %s", err)
		return 1
	}

	simulatorManager := xcodesimulator.NewManager(logger, commandFactory)
	newDeviceController := func(testDevicesDir string) simulator.Controller {
		return simulator.NewController(logger, commandFactory, simulatorManager, pathChecker, testDevicesDir)
	}

	outputExporter := output.NewExporter(
		stepenv.NewRepository(envRepository),
		logger,
		fileManager,
		export.NewExporter(commandFactory, fileManager),
		testaddon.NewExporter(testaddon.NewTestAddon(logger, commandFactory, fileManager)),
	)

	runner := step.NewXcodeCommandRunner(config, logger, commandFactory)
	testRunner := step.NewXcodeTestRunner(
		logger,
		testapp.NewLister(logger, commandFactory),
		runner,
		runner,
		xcodelog.NewRawLogParser(logger, fileManager),
		fileManager,
		pathChecker,
		newDeviceController,
		outputExporter,
	)

	if err := testRunner.InstallDeps(); err != nil {
		logger.Warnf("Install dependencies: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := testRunner.Run(ctx, config)
	if err != nil {
		logger.Errorf("Run: %s", err)
		outputExporter.ExportTestRunResult(true)
		return 1
	}

	if err := testRunner.Export(step.ExportOpts{Result: result, DeployDir: config.DeployDir}); err != nil {
		logger.Errorf("Export outputs: %s", err)
		return 1
	}

	if !result.Report.Success() {
		return 1
	}
	return 0
}
