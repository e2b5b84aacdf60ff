package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/bitrise/configs"
	"github.com/bitrise-io/go-steputils/v2/export"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/report"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testaddon"
)

const (
	testResultEnvVarKey                  = "BITRISE_XCODE_TEST_RESULT"
	testResultsJSONPathEnvVarKey         = "BITRISE_XCODE_TEST_RESULTS_JSON_PATH"
	attemptsZipPathEnvVarKey             = "BITRISE_XCODE_TEST_ATTEMPTS_ZIP_PATH"
	xcresultPathEnvVarKey                = "BITRISE_XCRESULT_PATH"
	xcresultZipPathEnvVarKey             = "BITRISE_XCRESULT_ZIP_PATH"
	testLogPathEnvVarKey                 = "BITRISE_XCODEBUILD_TEST_LOG_PATH"
	flakyTestCasesEnvVarKey              = "BITRISE_FLAKY_TEST_CASES"
	flakyTestCasesEnvVarSizeLimitInBytes = 1024

	// ReportFileName is the JSON report inside the deploy dir.
	ReportFileName   = "test_results.json"
	attemptsZipName  = "test_attempts.zip"
	xcresultsZipName = "xcresults.zip"
	testLogName      = "xcodebuild_test.log"
)

// ResultBundle is the last result bundle of a shard.
type ResultBundle struct {
	Path string
	Name string
}

// ShardLog is the last xcodebuild log of a shard.
type ShardLog struct {
	Title string
	Path  string
}

// Exporter ...
type Exporter interface {
	ExportTestRunResult(failed bool)
	ExportReport(deployDir string, testReport report.Report) (string, error)
	ExportFlakyTestCases(flakyTestCases []string) error
	ExportXCResultBundles(deployDir string, bundles []ResultBundle)
	ExportXcodebuildTestLog(deployDir string, logs []ShardLog) error
	ExportAttempts(deployDir, outputDir string) error
}

type exporter struct {
	envRepository     env.Repository
	logger            log.Logger
	fileManager       fileutil.FileManager
	outputExporter    export.Exporter
	testAddonExporter testaddon.Exporter
}

// NewExporter ...
func NewExporter(envRepository env.Repository, logger log.Logger, fileManager fileutil.FileManager, outputExporter export.Exporter, testAddonExporter testaddon.Exporter) Exporter {
	return &exporter{
		envRepository:     envRepository,
		logger:            logger,
		fileManager:       fileManager,
		outputExporter:    outputExporter,
		testAddonExporter: testAddonExporter,
	}
}

func (e *exporter) ExportTestRunResult(failed bool) {
	status := "succeeded"
	if failed {
		status = "failed"
	}
	if err := e.envRepository.Set(testResultEnvVarKey, status); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", testResultEnvVarKey, err)
	}
}

// ExportReport writes the JSON report into the deploy dir and returns its path.
func (e *exporter) ExportReport(deployDir string, testReport report.Report) (string, error) {
	content, err := json.MarshalIndent(testReport, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode test report: %w", err)
	}

	pth := filepath.Join(deployDir, ReportFileName)
	if err := e.fileManager.Write(pth, string(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write test report: %w", err)
	}

	if err := e.envRepository.Set(testResultsJSONPathEnvVarKey, pth); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", testResultsJSONPathEnvVarKey, err)
	}
	return pth, nil
}

func (e *exporter) ExportFlakyTestCases(flakyTestCases []string) error {
	if len(flakyTestCases) == 0 {
		return nil
	}

	var flakyTestCasesMessage string
	for i, flakyTestCase := range flakyTestCases {
		flakyTestCasesMessageLine := fmt.Sprintf("- %s\n", flakyTestCase)

		if len(flakyTestCasesMessage)+len(flakyTestCasesMessageLine) > flakyTestCasesEnvVarSizeLimitInBytes {
			e.logger.Warnf("%s env var size limit (%d characters) exceeded. Skipping %d test cases.", flakyTestCasesEnvVarKey, flakyTestCasesEnvVarSizeLimitInBytes, len(flakyTestCases)-i)
			break
		}

		flakyTestCasesMessage += flakyTestCasesMessageLine
	}

	if err := e.envRepository.Set(flakyTestCasesEnvVarKey, flakyTestCasesMessage); err != nil {
		return fmt.Errorf("failed to export %s: %w", flakyTestCasesEnvVarKey, err)
	}

	return nil
}

func (e *exporter) ExportXCResultBundles(deployDir string, bundles []ResultBundle) {
	if len(bundles) == 0 {
		return
	}

	var paths []string
	for _, bundle := range bundles {
		paths = append(paths, bundle.Path)
	}

	if len(bundles) == 1 {
		if err := e.envRepository.Set(xcresultPathEnvVarKey, bundles[0].Path); err != nil {
			e.logger.Warnf("Failed to export: %s: %s", xcresultPathEnvVarKey, err)
		}
	}

	xcresultZipPath := filepath.Join(deployDir, xcresultsZipName)
	if err := e.outputExporter.ExportOutputFilesZip(xcresultZipPathEnvVarKey, paths, xcresultZipPath); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", xcresultZipPathEnvVarKey, err)
	}

	// export xcresults for the testing addon
	addonResultPath := e.envRepository.Get(configs.BitrisePerStepTestResultDirEnvKey)
	if len(addonResultPath) == 0 {
		return
	}

	e.logger.Println()
	e.logger.Infof("Exporting test results")

	for _, bundle := range bundles {
		if err := e.testAddonExporter.CopyAndSaveMetadata(testaddon.AddonCopy{
			SourceTestOutputDir:   bundle.Path,
			TargetAddonPath:       addonResultPath,
			TargetAddonBundleName: bundle.Name,
		}); err != nil {
			e.logger.Warnf("Failed to export test results of %s: %s", bundle.Name, err)
		}
	}
}

// ExportXcodebuildTestLog merges the shard logs into one deployable log file.
func (e *exporter) ExportXcodebuildTestLog(deployDir string, logs []ShardLog) error {
	var merged strings.Builder
	for _, shardLog := range logs {
		b, err := os.ReadFile(shardLog.Path)
		if err != nil {
			e.logger.Warnf("Failed to read %s: %s", shardLog.Path, err)
			continue
		}
		content := string(b)

		fmt.Fprintf(&merged, "=== %s ===\n", shardLog.Title)
		merged.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			merged.WriteString("\n")
		}
	}

	deployPth := filepath.Join(deployDir, testLogName)
	if err := e.fileManager.Write(deployPth, merged.String(), 0644); err != nil {
		return fmt.Errorf("failed to write xcodebuild test log (%s): %w", deployPth, err)
	}

	if err := e.envRepository.Set(testLogPathEnvVarKey, deployPth); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", testLogPathEnvVarKey, err)
	}

	return nil
}

// ExportAttempts zips every attempt output dir into the deploy dir.
func (e *exporter) ExportAttempts(deployDir, outputDir string) error {
	zipPath := filepath.Join(deployDir, attemptsZipName)
	if err := e.outputExporter.ExportOutputFilesZip(attemptsZipPathEnvVarKey, []string{outputDir}, zipPath); err != nil {
		return fmt.Errorf("failed to export test attempts: %w", err)
	}
	return nil
}
