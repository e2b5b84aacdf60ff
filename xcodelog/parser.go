package xcodelog

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
)

// Both the serial (`-[Module.Suite method]`) and the parallel (`Module.Suite.method()`) test case formats are matched,
// the module prefix is dropped.
var (
	testCasePattern         = regexp.MustCompile(`^Test [Cc]ase '-\[(?:\w+\.)*(\w+) (\w+)\]' (started|passed|failed|skipped)`)
	parallelTestCasePattern = regexp.MustCompile(`^Test [Cc]ase '(?:\w+\.)*(\w+)\.(\w+)\(\)' (started|passed|failed|skipped)`)
	testFailurePattern      = regexp.MustCompile(`^(.*?): error: -\[(?:\w+\.)*(\w+) (\w+)\] : (.*)$`)
	runnerErrorPatterns     = compileRunnerErrorPatterns()
)

const (
	testExecuteSucceeded   = "** TEST EXECUTE SUCCEEDED **"
	testExecuteFailed      = "** TEST EXECUTE FAILED **"
	testExecuteInterrupted = "** TEST EXECUTE INTERRUPTED **"
	buildInterrupted       = "** BUILD INTERRUPTED **"
)

type rawLogParser struct {
	logger      log.Logger
	fileManager fileutil.FileManager
}

// NewRawLogParser returns a Parser for the unformatted xcodebuild output.
func NewRawLogParser(logger log.Logger, fileManager fileutil.FileManager) Parser {
	return &rawLogParser{
		logger:      logger,
		fileManager: fileManager,
	}
}

type caseEvent struct {
	id     testresult.TestID
	status string
}

func (p *rawLogParser) CollectResults(_ string, rawOutput string) testresult.ResultLog {
	result := testresult.NewResultLog()

	var (
		running        = map[testresult.TestID]bool{}
		reasons        = map[testresult.TestID][]string{}
		startedAny     bool
		finished       bool
		interrupted    bool
		runnerFailures []string
	)

	scanner := bufio.NewScanner(strings.NewReader(rawOutput))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if event, ok := parseTestCase(line); ok {
			startedAny = true
			switch event.status {
			case "started":
				running[event.id] = true
			case "passed":
				delete(running, event.id)
				result.AddPassed(event.id)
			case "failed":
				delete(running, event.id)
				result.AddFailure(event.id, reasons[event.id]...)
				delete(reasons, event.id)
			case "skipped":
				delete(running, event.id)
			}
			continue
		}

		if match := testFailurePattern.FindStringSubmatch(line); match != nil {
			id := testresult.NewTestID(match[2], match[3])
			reasons[id] = append(reasons[id], match[4]+" ("+match[1]+")")
			continue
		}

		switch line {
		case testExecuteSucceeded, testExecuteFailed:
			finished = true
			continue
		case testExecuteInterrupted, buildInterrupted:
			interrupted = true
			continue
		}

		for _, pattern := range runnerErrorPatterns {
			if pattern.MatchString(line) {
				runnerFailures = append(runnerFailures, line)
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		p.logger.Warnf("Failed to read the whole xcodebuild output: %s", err)
		interrupted = true
	}

	// Tests still running when the output ended crashed or were stopped.
	for id := range running {
		result.AddFailure(id, "Test did not finish, the test runner crashed or was stopped.")
	}

	switch {
	case !startedAny && !interrupted:
		if len(runnerFailures) == 0 {
			runnerFailures = []string{"No test case was started."}
		}
		result.AddCancellation(testresult.StatusTestsDidNotStart, runnerFailures...)
	case interrupted || !finished:
		reasons := runnerFailures
		if len(reasons) == 0 {
			reasons = []string{"xcodebuild did not finish the test run."}
		}
		result.AddCancellation(testresult.StatusBuildInterrupted, reasons...)
	}

	return result
}

func parseTestCase(line string) (caseEvent, bool) {
	match := testCasePattern.FindStringSubmatch(line)
	if match == nil {
		match = parallelTestCasePattern.FindStringSubmatch(line)
	}
	if match == nil {
		return caseEvent{}, false
	}
	return caseEvent{id: testresult.NewTestID(match[1], match[2]), status: match[3]}, true
}

func compileRunnerErrorPatterns() []*regexp.Regexp {
	var patterns []*regexp.Regexp
	for _, pattern := range testRunnerErrorPatterns {
		patterns = append(patterns, regexp.MustCompile("(?i)"+pattern))
	}
	return patterns
}
