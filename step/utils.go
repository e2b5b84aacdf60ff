package step

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bitrise-io/go-utils/colorstring"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/shardrun"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/xcodecommand"
)

// NewXcodeCommandRunner returns the xcodebuild runner of the configured log formatter.
func NewXcodeCommandRunner(cfg Config, logger log.Logger, commandFactory command.Factory) *xcodecommand.FallbackRunner {
	if cfg.LogFormatter == XcbeautifyTool {
		runner := xcodecommand.NewXcbeautifyRunner(logger, commandFactory, cfg.XcbeautifyOptions)
		installer, _ := runner.(xcodecommand.DependencyInstaller)
		return xcodecommand.NewFallbackRunner(runner, installer, logger)
	}
	return xcodecommand.NewFallbackRunner(xcodecommand.NewRawCommandRunner(logger), nil, logger)
}

func parseRerunShardThreshold(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return shardrun.DefaultRerunShardThreshold, nil
	}

	threshold, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid rerun shard threshold (rerun_shard_threshold): %s: %w", s, err)
	}
	if threshold < 0 {
		return 0, fmt.Errorf("invalid rerun shard threshold (rerun_shard_threshold): %d, can not be negative", threshold)
	}
	return threshold, nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func parseEnvVars(s string) (map[string]string, error) {
	envVars := map[string]string{}
	for _, line := range splitLines(s) {
		key, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid test environment variable (%s), expected KEY=VALUE", line)
		}
		envVars[strings.TrimSpace(key)] = value
	}
	return envVars, nil
}

func printReportHint() {
	fmt.Println(colorstring.Magenta(`
The test report is stored in $BITRISE_DEPLOY_DIR, and its full path
is available in the $BITRISE_XCODE_TEST_RESULTS_JSON_PATH environment variable.
The xcodebuild output of the last attempts is available in $BITRISE_XCODEBUILD_TEST_LOG_PATH.

If you have the Deploy to Bitrise.io step (after this step),
that will attach the files to your build as artifacts!`))
}
