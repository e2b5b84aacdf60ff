package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bitrise-io/go-steputils/v2/export"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/mocks"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/report"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/shardrun"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testaddon"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testingMocks struct {
	envRepository *mocks.Repository
}

func Test_GivenSuccessfulTest_WhenExportingTestRunResults_ThenSetsEnvVariableToSuccess(t *testing.T) {
	// Given
	exporter, mocks := createSutAndMocks()

	// When
	exporter.ExportTestRunResult(false)

	// Then
	mocks.envRepository.AssertCalled(t, "Set", testResultEnvVarKey, "succeeded")
}

func Test_GivenFailedTest_WhenExportingTestRunResults_ThenSetsEnvVariableToFailure(t *testing.T) {
	// Given
	exporter, mocks := createSutAndMocks()

	// When
	exporter.ExportTestRunResult(true)

	// Then
	mocks.envRepository.AssertCalled(t, "Set", testResultEnvVarKey, "failed")
}

func Test_GivenReport_WhenExporting_ThenWritesJSONAndSetsEnvVariable(t *testing.T) {
	// Given
	deployDir := t.TempDir()
	login := testresult.NewTestID("LoginTests", "testLogin")
	attempt := testresult.NewResultLog()
	attempt.AddPassed(login)
	testReport := report.Aggregate(testresult.NewTestSet(login), []shardrun.ShardResult{
		{Index: 0, DeviceID: "device-1", RunningSet: testresult.NewTestSet(login), History: testresult.History{attempt}},
	})

	exporter, mocks := createSutAndMocks()

	// When
	pth, err := exporter.ExportReport(deployDir, testReport)

	// Then
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(deployDir, ReportFileName), pth)
	mocks.envRepository.AssertCalled(t, "Set", testResultsJSONPathEnvVarKey, pth)

	content, err := os.ReadFile(pth)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, false, decoded["interrupted"])
	assert.Equal(t, "/", decoded["path_delimiter"])
	assert.Contains(t, decoded["tests"], "LoginTests/testLogin")
}

func Test_GivenNoFlakyTests_WhenExporting_ThenDoesNotSetEnvVariable(t *testing.T) {
	// Given
	exporter, mocks := createSutAndMocks()

	// When
	err := exporter.ExportFlakyTestCases(nil)

	// Then
	require.NoError(t, err)
	mocks.envRepository.AssertNotCalled(t, "Set", flakyTestCasesEnvVarKey, mock.Anything)
}

func Test_GivenFlakyTests_WhenExporting_ThenSetsEnvVariable(t *testing.T) {
	// Given
	exporter, mocks := createSutAndMocks()

	// When
	err := exporter.ExportFlakyTestCases([]string{"LoginTests/testLogin", "CartTests/testCheckout"})

	// Then
	require.NoError(t, err)
	mocks.envRepository.AssertCalled(t, "Set", flakyTestCasesEnvVarKey, "- LoginTests/testLogin\n- CartTests/testCheckout\n")
}

func Test_GivenTooManyFlakyTests_WhenExporting_ThenTruncatesToSizeLimit(t *testing.T) {
	// Given
	var flakyTests []string
	for i := 0; i < 100; i++ {
		flakyTests = append(flakyTests, "LongRunningSuite/testSomethingThatTakesAWhile")
	}

	var exported string
	envRepository := new(mocks.Repository)
	envRepository.On("Set", flakyTestCasesEnvVarKey, mock.Anything).Run(func(args mock.Arguments) {
		exported = args.String(1)
	}).Return(nil)
	exporter := NewExporter(envRepository, log.NewLogger(), fileutil.NewFileManager(), export.Exporter{}, nil)

	// When
	err := exporter.ExportFlakyTestCases(flakyTests)

	// Then
	require.NoError(t, err)
	assert.LessOrEqual(t, len(exported), flakyTestCasesEnvVarSizeLimitInBytes)
	assert.True(t, strings.HasSuffix(exported, "\n"))
}

func Test_GivenShardLogs_WhenExportingTestLog_ThenMergesThemAndSetsEnvVariable(t *testing.T) {
	// Given
	deployDir := t.TempDir()
	logDir := t.TempDir()
	firstLog := filepath.Join(logDir, "shard_0.log")
	secondLog := filepath.Join(logDir, "shard_1.log")
	require.NoError(t, os.WriteFile(firstLog, []byte("first shard output\n"), 0600))
	require.NoError(t, os.WriteFile(secondLog, []byte("second shard output"), 0600))

	exporter, mocks := createSutAndMocks()

	// When
	err := exporter.ExportXcodebuildTestLog(deployDir, []ShardLog{
		{Title: "Shard 0", Path: firstLog},
		{Title: "Shard 1", Path: secondLog},
		{Title: "Shard 2", Path: filepath.Join(logDir, "missing.log")},
	})

	// Then
	require.NoError(t, err)
	logPath := filepath.Join(deployDir, testLogName)
	mocks.envRepository.AssertCalled(t, "Set", testLogPathEnvVarKey, logPath)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "=== Shard 0 ===\nfirst shard output\n=== Shard 1 ===\nsecond shard output\n", string(content))
}

func Test_GivenNoResultBundles_WhenExporting_ThenNothingIsExported(t *testing.T) {
	// Given
	addonExporter := new(mockAddonExporter)
	envRepository := new(mocks.Repository)
	exporter := NewExporter(envRepository, log.NewLogger(), fileutil.NewFileManager(), export.Exporter{}, addonExporter)

	// When
	exporter.ExportXCResultBundles(t.TempDir(), nil)

	// Then
	envRepository.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
	envRepository.AssertNotCalled(t, "Get", mock.Anything)
	assert.Empty(t, addonExporter.copies)
}

// Helpers

type mockAddonExporter struct {
	copies []testaddon.AddonCopy
}

func (m *mockAddonExporter) CopyAndSaveMetadata(info testaddon.AddonCopy) error {
	m.copies = append(m.copies, info)
	return nil
}

func createSutAndMocks() (Exporter, testingMocks) {
	envRepository := new(mocks.Repository)
	envRepository.On("Set", mock.Anything, mock.Anything).Return(nil)

	exporter := NewExporter(envRepository, log.NewLogger(), fileutil.NewFileManager(), export.Exporter{}, nil)

	return exporter, testingMocks{
		envRepository: envRepository,
	}
}
