// Package xcodelog turns the output of an xcodebuild test run into a testresult.ResultLog.
package xcodelog

import "github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"

// Parser reads the results of one attempt.
type Parser interface {
	// CollectResults builds the attempt's ResultLog from the attempt output directory and the raw tool output.
	CollectResults(outputDir, rawOutput string) testresult.ResultLog
	// CopyArtifacts collects the attempt's screenshots into <outputDir>/screenshots.
	CopyArtifacts(outputDir string) error
}

// On performance limited hosts the test runner sometimes never gets to run a single test.
// These messages mean the whole run failed, not the tests in it.
const (
	timeOutMessageIPhoneSimulator            = "iPhoneSimulator: Timed out waiting"
	earlyUnexpectedExit                      = "Early unexpected exit, operation never finished bootstrapping - no restart will be attempted"
	failureAttemptingToLaunch                = "Assertion Failure: <unknown>:0: UI Testing Failure - Failure attempting to launch <XCUIApplicationImpl:"
	failedToBackgroundTestRunner             = `Error Domain=IDETestOperationsObserverErrorDomain Code=12 "Failed to background test runner.`
	appStateIsStillNotRunning                = `App state is still not running active, state = XCApplicationStateNotRunning`
	appAccessibilityIsNotLoaded              = `UI Testing Failure - App accessibility isn't loaded`
	testRunnerFailedToInitializeForUITesting = `Test runner failed to initialize for UI testing`
	timedOutRegisteringForTestingEvent       = `Timed out registering for testing event accessibility notifications`
	testRunnerNeverBeganExecuting            = `Test runner never began executing tests after launching.`
	failedToOpenTestRunner                   = `Error Domain=FBSOpenApplicationServiceErrorDomain Code=1 "The request to open.*NSLocalizedFailureReason=The request was denied by service delegate \(SBMainWorkspace\)\.`
)

var testRunnerErrorPatterns = []string{
	timeOutMessageIPhoneSimulator,
	earlyUnexpectedExit,
	failureAttemptingToLaunch,
	failedToBackgroundTestRunner,
	appStateIsStillNotRunning,
	appAccessibilityIsNotLoaded,
	testRunnerFailedToInitializeForUITesting,
	timedOutRegisteringForTestingEvent,
	testRunnerNeverBeganExecuting,
	failedToOpenTestRunner,
}
