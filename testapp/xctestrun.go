package testapp

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
	"howett.net/plist"
)

// XCTestRunTarget is the test target node of an .xctestrun file (format version 1).
type XCTestRunTarget struct {
	IsAppHostedTestBundle       bool              `plist:"IsAppHostedTestBundle"`
	IsUITestBundle              bool              `plist:"IsUITestBundle,omitempty"`
	IsXCTRunnerHostedTestBundle bool              `plist:"IsXCTRunnerHostedTestBundle,omitempty"`
	TestBundlePath              string            `plist:"TestBundlePath"`
	TestHostBundleIdentifier    string            `plist:"TestHostBundleIdentifier"`
	TestHostPath                string            `plist:"TestHostPath"`
	UITargetAppPath             string            `plist:"UITargetAppPath,omitempty"`
	DependentProductPaths       []string          `plist:"DependentProductPaths,omitempty"`
	TestingEnvironmentVariables map[string]string `plist:"TestingEnvironmentVariables"`
	EnvironmentVariables        map[string]string `plist:"EnvironmentVariables,omitempty"`
	CommandLineArguments        []string          `plist:"CommandLineArguments,omitempty"`
	SkipTestIdentifiers         []string          `plist:"SkipTestIdentifiers,omitempty"`
	OnlyTestIdentifiers         []string          `plist:"OnlyTestIdentifiers,omitempty"`
}

// TargetName is the key of the test target node.
func (a App) TargetName() string {
	return a.ModuleName + "_module"
}

// XCTestRun builds the .xctestrun content skipping the excluded tests.
func (a App) XCTestRun(excluded []testresult.TestID) map[string]interface{} {
	target := XCTestRunTarget{
		IsAppHostedTestBundle:    true,
		TestBundlePath:           "__TESTHOST__" + a.XCTestPath,
		TestHostBundleIdentifier: a.BundleID,
		TestHostPath:             a.Path,
		TestingEnvironmentVariables: map[string]string{
			"DYLD_INSERT_LIBRARIES": "__TESTHOST__/Frameworks/libXCTestBundleInject.dylib",
			"DYLD_LIBRARY_PATH":     "__PLATFORMS__/iPhoneSimulator.platform/Developer/Library",
			"DYLD_FRAMEWORK_PATH":   "__PLATFORMS__/iPhoneSimulator.platform/Developer/Library/Frameworks",
			"XCInjectBundleInto":    "__TESTHOST__/" + a.ModuleName,
		},
		EnvironmentVariables: a.EnvVars,
		CommandLineArguments: a.TestArgs,
		SkipTestIdentifiers:  names(excluded),
		OnlyTestIdentifiers:  names(a.IncludedTests),
	}

	if a.HostAppPath != "" {
		target.IsAppHostedTestBundle = false
		target.IsUITestBundle = true
		target.IsXCTRunnerHostedTestBundle = true
		target.UITargetAppPath = a.HostAppPath
		// Xcode 10.2+ refuses to start without the dependent products listed.
		target.DependentProductPaths = []string{target.UITargetAppPath, target.TestBundlePath, target.TestHostPath}
	}

	xctestrun := map[string]interface{}{}
	xctestrun[a.TargetName()] = target
	xctestrun["__xctestrun_metadata__"] = map[string]int{"FormatVersion": xctestrunFormat}

	return xctestrun
}

// WriteXCTestRun writes the .xctestrun file into dir and returns its path.
func (a App) WriteXCTestRun(fileManager fileutil.FileManager, dir string, excluded []testresult.TestID) (string, error) {
	content, err := plist.MarshalIndent(a.XCTestRun(excluded), plist.XMLFormat, "\t")
	if err != nil {
		return "", fmt.Errorf("failed to encode xctestrun: %w", err)
	}

	pth := filepath.Join(dir, a.ModuleName+".xctestrun")
	if err := fileManager.Write(pth, string(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write xctestrun: %w", err)
	}

	return pth, nil
}

// TestCommandArgs returns the xcodebuild arguments running the tests of an .xctestrun file.
func TestCommandArgs(xctestrunPath, destination, resultBundlePath string, shards int) []string {
	args := []string{
		"test-without-building",
		"-xctestrun", xctestrunPath,
		"-destination", destination,
		"-resultBundlePath", resultBundlePath,
	}
	if shards > 1 {
		args = append(args, "-parallel-testing-enabled", "YES", "-parallel-testing-worker-count", strconv.Itoa(shards))
	}
	return args
}

func names(ids []testresult.TestID) []string {
	var n []string
	for _, id := range ids {
		n = append(n, id.String())
	}
	return n
}
