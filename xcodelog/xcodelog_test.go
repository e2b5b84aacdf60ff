package xcodelog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serialOutput = `Test Suite 'All tests' started at 2023-05-10 10:00:00.000
Test Suite 'LoginTests' started at 2023-05-10 10:00:00.001
Test Case '-[AppUITests.LoginTests testLogin]' started.
/Users/vagrant/git/AppUITests/LoginTests.swift:23: error: -[AppUITests.LoginTests testLogin] : XCTAssertTrue failed - button missing
Test Case '-[AppUITests.LoginTests testLogin]' failed (3.214 seconds).
Test Case '-[AppUITests.LoginTests testLogout]' started.
Test Case '-[AppUITests.LoginTests testLogout]' passed (1.002 seconds).
Test Case '-[AppUITests.LoginTests testSkipped]' started.
Test Case '-[AppUITests.LoginTests testSkipped]' skipped (0.001 seconds).
Test Suite 'LoginTests' failed at 2023-05-10 10:00:04.300.

** TEST EXECUTE FAILED **
`

func Test_GivenSerialOutput_WhenCollectResults_ThenSplitsPassedAndFailed(t *testing.T) {
	// Given
	parser := NewRawLogParser(log.NewLogger(), fileutil.NewFileManager())

	// When
	result := parser.CollectResults(t.TempDir(), serialOutput)

	// Then
	assert.Equal(t, []string{"LoginTests/testLogout"}, result.Passed.Names())
	require.Len(t, result.Failed, 1)
	reasons := result.Failed[testresult.NewTestID("LoginTests", "testLogin")]
	assert.Equal(t, []string{"XCTAssertTrue failed - button missing (/Users/vagrant/git/AppUITests/LoginTests.swift:23)"}, reasons)
	assert.Empty(t, result.Cancellations())
}

func Test_GivenParallelOutput_WhenCollectResults_ThenParsesSwiftNames(t *testing.T) {
	// Given
	output := `Test case 'LoginTests.testLogin()' passed on 'Clone 1 of iPhone 14 - AppUITests-Runner (4242)' (3.1 seconds)
Test case 'LoginTests.testLogout()' failed on 'Clone 2 of iPhone 14 - AppUITests-Runner (4243)' (1.2 seconds)
** TEST EXECUTE FAILED **
`
	parser := NewRawLogParser(log.NewLogger(), fileutil.NewFileManager())

	// When
	result := parser.CollectResults(t.TempDir(), output)

	// Then
	assert.Equal(t, []string{"LoginTests/testLogin"}, result.Passed.Names())
	assert.Equal(t, []string{"LoginTests/testLogout"}, result.FailedIDs().Names())
}

func Test_GivenRunnerNeverStarted_WhenCollectResults_ThenTestsDidNotStart(t *testing.T) {
	// Given
	output := `2023-05-10 10:00:00.000 xcodebuild[123:456] Test runner never began executing tests after launching.
** TEST EXECUTE FAILED **
`
	parser := NewRawLogParser(log.NewLogger(), fileutil.NewFileManager())

	// When
	result := parser.CollectResults(t.TempDir(), output)

	// Then
	assert.Equal(t, []testresult.Status{testresult.StatusTestsDidNotStart}, result.Cancellations())
	reasons := result.Failed[testresult.MarkerID(testresult.StatusTestsDidNotStart)]
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "Test runner never began executing tests")
	assert.Equal(t, 0, result.Passed.Len())
}

func Test_GivenTruncatedOutput_WhenCollectResults_ThenBuildInterruptedAndRunningTestFails(t *testing.T) {
	// Given
	output := `Test Case '-[AppUITests.LoginTests testLogout]' started.
Test Case '-[AppUITests.LoginTests testLogout]' passed (1.002 seconds).
Test Case '-[AppUITests.LoginTests testLogin]' started.
`
	parser := NewRawLogParser(log.NewLogger(), fileutil.NewFileManager())

	// When
	result := parser.CollectResults(t.TempDir(), output)

	// Then
	assert.Equal(t, []testresult.Status{testresult.StatusBuildInterrupted}, result.Cancellations())
	assert.True(t, result.Passed.Has(testresult.NewTestID("LoginTests", "testLogout")))
	_, ok := result.Failed[testresult.NewTestID("LoginTests", "testLogin")]
	assert.True(t, ok)
}

func Test_GivenInterruptedMarker_WhenCollectResults_ThenBuildInterrupted(t *testing.T) {
	// Given
	parser := NewRawLogParser(log.NewLogger(), fileutil.NewFileManager())

	// When
	result := parser.CollectResults(t.TempDir(), "** TEST EXECUTE INTERRUPTED **\n")

	// Then
	assert.Equal(t, []testresult.Status{testresult.StatusBuildInterrupted}, result.Cancellations())
}

func Test_GivenScreenshots_WhenCopyArtifacts_ThenCollectsThem(t *testing.T) {
	// Given
	outputDir := t.TempDir()
	attachments := filepath.Join(outputDir, "Attempt.xcresult", "Attachments")
	require.NoError(t, os.MkdirAll(attachments, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(attachments, "Screenshot_1.png"), []byte("png"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(attachments, "info.plist"), []byte("plist"), 0644))
	parser := NewRawLogParser(log.NewLogger(), fileutil.NewFileManager())

	// When
	err := parser.CopyArtifacts(outputDir)

	// Then
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(outputDir, ScreenshotsDirName))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Attempt.xcresult-Attachments-Screenshot_1.png", entries[0].Name())

	// Running it again does not copy the copies.
	require.NoError(t, parser.CopyArtifacts(outputDir))
	entries, err = os.ReadDir(filepath.Join(outputDir, ScreenshotsDirName))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
