package testapp

import (
	"fmt"
	"regexp"

	"github.com/bitrise-io/go-utils/errorutil"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
)

// Methods starting with `test` in *TestCase classes that are not test methods.
var notTests = map[string]bool{
	"ChromeTestCase/testServer":  true,
	"FindInPageTestCase/testURL": true,
}

var testMethodPattern = regexp.MustCompile(`imp (?:0[xX][0-9a-fA-F]+ )?-\[(?P<suite>[A-Za-z_][A-Za-z0-9_]*Test(?:Case)?)\s(?P<method>test[A-Za-z0-9_]*)\]`)

// Lister enumerates the runnable tests of an app.
type Lister interface {
	ListTests(app App, suites []string) ([]testresult.TestID, error)
}

type otoolLister struct {
	logger         log.Logger
	commandFactory command.Factory
}

// NewLister returns a Lister reading the Objective-C metadata of the app binary with otool.
func NewLister(logger log.Logger, commandFactory command.Factory) Lister {
	return otoolLister{
		logger:         logger,
		commandFactory: commandFactory,
	}
}

func (l otoolLister) ListTests(app App, suites []string) ([]testresult.TestID, error) {
	cmd := l.commandFactory.Create("otool", []string{"-ov", app.BinaryPath()}, nil)
	l.logger.TDebugf("$ %s", cmd.PrintableCommandArgs())

	out, err := cmd.RunAndReturnTrimmedOutput()
	if err != nil {
		if errorutil.IsExitStatusError(err) {
			return nil, fmt.Errorf("otool failed to read %s: %w", app.BinaryPath(), err)
		}
		return nil, fmt.Errorf("failed to run otool: %w", err)
	}

	tests := FilterTests(ParseTestNames(out), suites)
	l.logger.Debugf("Found %d tests in %s", len(tests), app.BinaryPath())

	return tests, nil
}

// ParseTestNames extracts the test methods from `otool -ov` output, in order of appearance and without duplicates.
func ParseTestNames(otoolOutput string) []testresult.TestID {
	seen := testresult.TestSet{}
	var tests []testresult.TestID
	for _, match := range testMethodPattern.FindAllStringSubmatch(otoolOutput, -1) {
		id := testresult.NewTestID(match[1], match[2])
		if seen.Has(id) {
			continue
		}
		seen.Add(id)
		tests = append(tests, id)
	}
	return tests
}

// FilterTests drops the deny-listed names and keeps only the given suites, if any.
func FilterTests(tests []testresult.TestID, suites []string) []testresult.TestID {
	wanted := map[string]bool{}
	for _, suite := range suites {
		wanted[suite] = true
	}

	var filtered []testresult.TestID
	for _, test := range tests {
		if notTests[test.String()] {
			continue
		}
		if len(wanted) > 0 && !wanted[test.Suite] {
			continue
		}
		filtered = append(filtered, test)
	}
	return filtered
}
