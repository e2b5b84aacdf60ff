package step

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-io/go-xcode/v2/destination"
	"github.com/bitrise-io/go-xcode/v2/xcodeversion"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/attempt"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/output"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/report"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/sharding"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/shardrun"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/simulator"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testapp"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/xcodecommand"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/xcodelog"
	xcodeversionreader "github.com/bitrise-steplib/steps-xcode-parallel-test/xcodeversion"
	shellquote "github.com/kballard/go-shellquote"
)

// Log formatters ...
const (
	XcodebuildTool = "xcodebuild"
	XcbeautifyTool = "xcbeautify"
)

const physicalDeviceDestinationPrefix = "id="

// Input ...
type Input struct {
	// Test app
	AppPath     string `env:"app_path,required"`
	HostAppPath string `env:"host_app_path"`

	// Devices
	Destinations string `env:"destinations,required"`

	// Retries
	Shards              int    `env:"shards,required"`
	Retries             int    `env:"retries,required"`
	RerunShardThreshold string `env:"rerun_shard_threshold"`

	// Test selection and run configs
	TestSuites        string `env:"test_suites"`
	TestEnvVars       string `env:"test_env_vars"`
	TestArgs          string `env:"test_args"`
	XcodebuildOptions string `env:"xcodebuild_options"`
	AttemptTimeout    int    `env:"attempt_timeout"`

	LogFormatter      string `env:"log_formatter,opt[xcodebuild,xcbeautify]"`
	XcbeautifyOptions string `env:"xcbeautify_options"`

	// Output export
	OutputDir string `env:"output_dir,required"`
	DeployDir string `env:"BITRISE_DEPLOY_DIR"`

	// Debug
	VerboseLog bool `env:"verbose_log,opt[yes,no]"`
}

// Config ...
type Config struct {
	App       testapp.App
	DeviceIDs []string

	Shards              int
	Retries             int
	RerunShardThreshold int

	TestSuites        []string
	XcodebuildOptions []string
	AttemptTimeout    time.Duration

	LogFormatter      string
	XcbeautifyOptions []string

	OutputDir string
	DeployDir string
}

// XcodeTestConfigParser ...
type XcodeTestConfigParser struct {
	inputParser  stepconf.InputParser
	logger       log.Logger
	xcodeVersion xcodeversion.Version
	deviceFinder destination.DeviceFinder
	pathModifier pathutil.PathModifier
}

// NewXcodeTestConfigParser ...
func NewXcodeTestConfigParser(inputParser stepconf.InputParser, logger log.Logger, xcodeVersion xcodeversion.Version, deviceFinder destination.DeviceFinder, pathModifier pathutil.PathModifier) XcodeTestConfigParser {
	return XcodeTestConfigParser{
		inputParser:  inputParser,
		logger:       logger,
		xcodeVersion: xcodeVersion,
		deviceFinder: deviceFinder,
		pathModifier: pathModifier,
	}
}

// ProcessConfig ...
func (s XcodeTestConfigParser) ProcessConfig() (Config, error) {
	var input Input
	if err := s.inputParser.Parse(&input); err != nil {
		return Config{}, err
	}

	stepconf.Print(input)
	s.logger.Println()

	s.logger.EnableDebugLog(input.VerboseLog)

	if input.Shards < 1 {
		return Config{}, fmt.Errorf("invalid number of shards (shards): %d, should be at least 1", input.Shards)
	}
	if input.Retries < 0 {
		return Config{}, fmt.Errorf("invalid number of retries (retries): %d, can not be negative", input.Retries)
	}
	rerunShardThreshold, err := parseRerunShardThreshold(input.RerunShardThreshold)
	if err != nil {
		return Config{}, err
	}
	if input.AttemptTimeout < 0 {
		return Config{}, fmt.Errorf("invalid attempt timeout (attempt_timeout): %d, can not be negative", input.AttemptTimeout)
	}

	shards := input.Shards
	if shards > 1 && !xcodeversionreader.SupportsParallelTesting(s.xcodeVersion) {
		s.logger.Warnf("Parallel testing is only available with Xcode %d or newer, current Xcode version: %d. Running tests on a single worker.", xcodeversionreader.MinParallelTestingMajorVersion, s.xcodeVersion.Major)
		shards = 1
	}

	app, err := s.parseApp(input)
	if err != nil {
		return Config{}, err
	}

	deviceIDs, err := s.parseDestinations(input.Destinations)
	if err != nil {
		return Config{}, err
	}

	xcodebuildOptions, err := shellquote.Split(input.XcodebuildOptions)
	if err != nil {
		return Config{}, fmt.Errorf("provided xcodebuild_options (%s) are not valid CLI parameters: %w", input.XcodebuildOptions, err)
	}

	var xcbeautifyOptions []string
	if input.LogFormatter == XcbeautifyTool {
		xcbeautifyOptions, err = shellquote.Split(input.XcbeautifyOptions)
		if err != nil {
			return Config{}, fmt.Errorf("provided xcbeautify_options (%s) are not valid CLI parameters: %w", input.XcbeautifyOptions, err)
		}
	} else if input.XcbeautifyOptions != "" {
		s.logger.Warnf("Ignoring xcbeautify_options, log formatter is %s", input.LogFormatter)
	}

	outputDir, err := s.pathModifier.AbsPath(input.OutputDir)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute output dir path: %w", err)
	}

	deployDir := input.DeployDir
	if deployDir == "" {
		s.logger.Warnf("BITRISE_DEPLOY_DIR is not set, exporting outputs into %s", outputDir)
		deployDir = outputDir
	}

	logFormatter := input.LogFormatter
	if logFormatter == "" {
		logFormatter = XcodebuildTool
	}

	return Config{
		App:       app,
		DeviceIDs: deviceIDs,

		Shards:              shards,
		Retries:             input.Retries,
		RerunShardThreshold: rerunShardThreshold,

		TestSuites:        splitLines(input.TestSuites),
		XcodebuildOptions: xcodebuildOptions,
		AttemptTimeout:    time.Duration(input.AttemptTimeout) * time.Second,

		LogFormatter:      logFormatter,
		XcbeautifyOptions: xcbeautifyOptions,

		OutputDir: outputDir,
		DeployDir: deployDir,
	}, nil
}

func (s XcodeTestConfigParser) parseApp(input Input) (testapp.App, error) {
	appPath, err := s.pathModifier.AbsPath(input.AppPath)
	if err != nil {
		return testapp.App{}, fmt.Errorf("failed to get absolute test app path: %w", err)
	}
	if filepath.Ext(appPath) != ".app" {
		return testapp.App{}, fmt.Errorf("invalid test app (%s), extension should be .app", appPath)
	}

	var hostAppPath string
	if input.HostAppPath != "" {
		hostAppPath, err = s.pathModifier.AbsPath(input.HostAppPath)
		if err != nil {
			return testapp.App{}, fmt.Errorf("failed to get absolute host app path: %w", err)
		}
	}

	envVars, err := parseEnvVars(input.TestEnvVars)
	if err != nil {
		return testapp.App{}, err
	}

	testArgs, err := shellquote.Split(input.TestArgs)
	if err != nil {
		return testapp.App{}, fmt.Errorf("provided test_args (%s) are not valid CLI parameters: %w", input.TestArgs, err)
	}

	app, err := testapp.New(appPath, hostAppPath, envVars, testArgs)
	if err != nil {
		return testapp.App{}, err
	}

	s.logger.Infof("Test app")
	s.logger.Printf("* module: %s, bundle ID: %s, test bundle: %s", app.ModuleName, app.BundleID, app.XCTestPath)
	s.logger.Println()

	return app, nil
}

func (s XcodeTestConfigParser) parseDestinations(destinations string) ([]string, error) {
	lines := splitLines(destinations)
	if len(lines) == 0 {
		return nil, errors.New("no destination provided (destinations)")
	}

	s.logger.Infof("Devices")

	var ids []string
	seen := map[string]bool{}
	for _, line := range lines {
		var id string
		if strings.HasPrefix(line, physicalDeviceDestinationPrefix) {
			id = strings.TrimPrefix(line, physicalDeviceDestinationPrefix)
			s.logger.Printf("* %s", id)
		} else {
			sim, err := destination.NewSimulator(line)
			if err != nil {
				return nil, fmt.Errorf("invalid destination specifier (%s): %w", line, err)
			}

			device, err := s.deviceFinder.FindDevice(*sim)
			if err != nil {
				return nil, fmt.Errorf("simulator UDID lookup failed: %w", err)
			}
			id = device.UDID
			s.logger.Printf("* simulator_name: %s, version: %s, UDID: %s, state: %s", device.Name, sim.OS, device.UDID, device.State)
		}

		if id == "" {
			return nil, fmt.Errorf("invalid destination (%s), missing device ID", line)
		}
		if seen[id] {
			return nil, fmt.Errorf("device (%s) is used by more than one destination", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	s.logger.Println()

	return ids, nil
}

// XcodeTestRunner ...
type XcodeTestRunner struct {
	logger              log.Logger
	lister              testapp.Lister
	runner              xcodecommand.Runner
	runnerInstaller     xcodecommand.DependencyInstaller
	parser              xcodelog.Parser
	fileManager         fileutil.FileManager
	pathChecker         pathutil.PathChecker
	newDeviceController func(testDevicesDir string) simulator.Controller
	outputExporter      output.Exporter
}

// NewXcodeTestRunner ...
func NewXcodeTestRunner(logger log.Logger, lister testapp.Lister, runner xcodecommand.Runner, runnerInstaller xcodecommand.DependencyInstaller, parser xcodelog.Parser, fileManager fileutil.FileManager, pathChecker pathutil.PathChecker, newDeviceController func(testDevicesDir string) simulator.Controller, outputExporter output.Exporter) XcodeTestRunner {
	return XcodeTestRunner{
		logger:              logger,
		lister:              lister,
		runner:              runner,
		runnerInstaller:     runnerInstaller,
		parser:              parser,
		fileManager:         fileManager,
		pathChecker:         pathChecker,
		newDeviceController: newDeviceController,
		outputExporter:      outputExporter,
	}
}

// InstallDeps checks the log formatter. A missing formatter is replaced by the raw xcodebuild output.
func (s XcodeTestRunner) InstallDeps() error {
	if s.runnerInstaller == nil {
		return nil
	}

	ver, err := s.runnerInstaller.CheckInstall()
	if err != nil {
		return fmt.Errorf("failed to check log formatter: %w", err)
	}
	if ver != nil {
		s.logger.Printf("- log formatter version: %s", ver.String())
		s.logger.Println()
	}
	return nil
}

// Result ...
type Result struct {
	Report     report.Report
	Shards     []shardrun.ShardResult
	ModuleName string
	OutputDir  string
}

// Run lists the selected tests, splits them between the devices and runs every shard until its retries are exhausted.
func (s XcodeTestRunner) Run(ctx context.Context, cfg Config) (Result, error) {
	tests, err := s.lister.ListTests(cfg.App, cfg.TestSuites)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list tests: %w", err)
	}
	if len(tests) == 0 {
		return Result{}, fmt.Errorf("no tests found in %s", cfg.App.Path)
	}
	universe := testresult.NewTestSet(tests...)

	s.logger.Infof("Running %d test(s) on %d device(s)", len(tests), len(cfg.DeviceIDs))

	// XCTestDevices holds the clones of every parallel run of the host, it is only safe to clean with a single device.
	var testDevicesDir string
	if len(cfg.DeviceIDs) == 1 {
		testDevicesDir = simulator.TestDevicesSetPath
	}
	deviceController := s.newDeviceController(testDevicesDir)

	var runners []shardrun.Runner
	for i, shard := range sharding.Split(tests, len(cfg.DeviceIDs)) {
		deviceID := cfg.DeviceIDs[i]
		runningSet := testresult.NewTestSet(shard.Included...)

		workers := cfg.Shards
		if isSimulator, err := deviceController.IsSimulator(deviceID); err != nil {
			s.logger.Warnf("Failed to check device (%s): %s", deviceID, err)
		} else if !isSimulator && workers > 1 {
			s.logger.Warnf("Device (%s) is a physical device, running its tests on a single worker", deviceID)
			workers = 1
		}

		executor := attempt.NewExecutor(attempt.Config{
			App:               cfg.App.WithIncludedTests(shard.Included),
			Destination:       physicalDeviceDestinationPrefix + deviceID,
			OutputDir:         shardDir(cfg.OutputDir, i),
			XcodebuildOptions: cfg.XcodebuildOptions,
			Timeout:           cfg.AttemptTimeout,
		}, s.runner, s.parser, s.fileManager, s.logger)

		controller, err := shardrun.NewController(shardrun.ControllerConfig{
			Index:               i,
			DeviceID:            deviceID,
			Shards:              workers,
			MaxRetries:          cfg.Retries,
			RunningSet:          runningSet,
			RerunShardThreshold: cfg.RerunShardThreshold,
		}, executor, deviceController, s.logger)
		if err != nil {
			s.logger.Errorf("%s", err)
			runners = append(runners, shardrun.Failed(i, deviceID, runningSet, err))
			continue
		}

		s.logger.Printf("- shard %d: %d test(s) on %s", i, runningSet.Len(), deviceID)
		runners = append(runners, controller)
	}
	s.logger.Println()

	shards := shardrun.NewCoordinator(s.logger).Run(ctx, runners)
	testReport := report.Aggregate(universe, shards)
	s.printReport(testReport)

	return Result{
		Report:     testReport,
		Shards:     shards,
		ModuleName: cfg.App.ModuleName,
		OutputDir:  cfg.OutputDir,
	}, nil
}

func (s XcodeTestRunner) printReport(testReport report.Report) {
	s.logger.Println()
	s.logger.Infof("Test results")

	for _, shardErr := range testReport.ShardErrors {
		s.logger.Errorf("Shard %d (%s) did not complete: %s", shardErr.Index, shardErr.DeviceID, shardErr.Err)
	}

	for _, name := range testReport.Failed.Names() {
		s.logger.Errorf("Failed: %s", name)
		for _, line := range testReport.FailureLogs[name] {
			s.logger.Printf("  %s", line)
		}
	}
	flaky := testReport.FlakyNames()
	for _, name := range flaky {
		s.logger.Warnf("Flaky: %s", name)
		for _, line := range testReport.FailureLogs[name] {
			s.logger.Printf("  %s", line)
		}
	}
	for _, id := range testReport.Aborted {
		s.logger.Warnf("Not run: %s", id)
	}

	counts := testReport.NumFailuresByType()
	summary := fmt.Sprintf("%d passed, %d failed, %d flaky, %d not run", testReport.Passed.Len(), testReport.Failed.Len(), len(flaky), len(testReport.Aborted))
	if testReport.Success() {
		s.logger.Donef("%s", summary)
	} else {
		s.logger.Errorf("%s", summary)
	}
	s.logger.Debugf("num_failures_by_type: %v", counts)
}

// ExportOpts ...
type ExportOpts struct {
	Result    Result
	DeployDir string
}

// Export ...
func (s XcodeTestRunner) Export(opts ExportOpts) error {
	testReport := opts.Result.Report

	s.outputExporter.ExportTestRunResult(!testReport.Success())

	reportPath, err := s.outputExporter.ExportReport(opts.DeployDir, testReport)
	if err != nil {
		return err
	}
	s.logger.Donef("Test report: %s", reportPath)

	if err := s.outputExporter.ExportFlakyTestCases(testReport.FlakyNames()); err != nil {
		s.logger.Warnf("%s", err)
	}

	bundles, logs := s.lastAttemptOutputs(opts.Result)
	s.outputExporter.ExportXCResultBundles(opts.DeployDir, bundles)

	if len(logs) > 0 {
		if err := s.outputExporter.ExportXcodebuildTestLog(opts.DeployDir, logs); err != nil {
			s.logger.Warnf("%s", err)
		}
	}

	if exists, err := s.pathChecker.IsDirExists(opts.Result.OutputDir); err != nil {
		s.logger.Warnf("Failed to check output dir: %s", err)
	} else if exists {
		if err := s.outputExporter.ExportAttempts(opts.DeployDir, opts.Result.OutputDir); err != nil {
			s.logger.Warnf("%s", err)
		}
	}

	printReportHint()

	return nil
}

func (s XcodeTestRunner) lastAttemptOutputs(result Result) ([]output.ResultBundle, []output.ShardLog) {
	var (
		bundles []output.ResultBundle
		logs    []output.ShardLog
	)

	for _, shard := range result.Shards {
		if len(shard.History) == 0 {
			continue
		}

		dir := attempt.Dir(shardDir(result.OutputDir, shard.Index), len(shard.History)-1)

		bundlePath := filepath.Join(dir, attempt.ResultBundleName)
		if exists, err := s.pathChecker.IsDirExists(bundlePath); err != nil {
			s.logger.Warnf("Failed to check result bundle: %s", err)
		} else if exists {
			bundles = append(bundles, output.ResultBundle{
				Path: bundlePath,
				Name: fmt.Sprintf("%s shard %d", result.ModuleName, shard.Index),
			})
		}

		logs = append(logs, output.ShardLog{
			Title: fmt.Sprintf("Shard %d (%s), attempt #%d", shard.Index, shard.DeviceID, len(shard.History)-1),
			Path:  filepath.Join(dir, attempt.LogFileName),
		})
	}

	return bundles, logs
}

func shardDir(outputDir string, index int) string {
	return filepath.Join(outputDir, fmt.Sprintf("shard_%d", index))
}
