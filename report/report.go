// Package report reduces the attempt histories of all shards into the final test report.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bitrise-steplib/steps-xcode-parallel-test/shardrun"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
)

const expectedVerdict = "PASS"

// TestVerdict is the per test entry of the JSON report.
type TestVerdict struct {
	Expected string `json:"expected"`
	// Actual lists the PASS/FAIL outcome of every attempt, separated by spaces.
	Actual  string `json:"actual"`
	IsFlaky bool   `json:"is_flaky,omitempty"`
}

// ShardError is a shard that ended without completing its attempts.
type ShardError struct {
	Index    int
	DeviceID string
	Err      error
}

// Report is the merged outcome of a test run.
type Report struct {
	Passed  testresult.TestSet
	Failed  testresult.TestSet
	Flaked  testresult.TestSet
	Aborted []testresult.TestID

	Tests map[string]TestVerdict
	// FailureLogs holds, per failed or flaky test, an "<test>: attempt # <n>" line followed by the reasons of that attempt.
	FailureLogs map[string][]string
	ShardErrors []ShardError
}

// Aggregate merges the shard results. The order of shards does not change the outcome.
func Aggregate(universe testresult.TestSet, shards []shardrun.ShardResult) Report {
	shards = sortedShards(shards)

	var (
		passed      = testresult.TestSet{}
		failed      = testresult.TestSet{}
		allFailures = testresult.TestSet{}
		tokens      = map[testresult.TestID][]string{}
		failureLogs = map[string][]string{}
		shardErrors []ShardError
	)

	for _, shard := range shards {
		if shard.Err != nil {
			shardErrors = append(shardErrors, ShardError{Index: shard.Index, DeviceID: shard.DeviceID, Err: shard.Err})
		}

		for attemptIndex, attempt := range shard.History {
			passed.Union(attempt.Passed)
			allFailures.Union(attempt.FailedIDs())

			for _, id := range attempt.Passed.Sorted() {
				tokens[id] = append(tokens[id], testresult.StatusPassed.String())
			}
			for _, id := range attempt.FailedIDs().Sorted() {
				tokens[id] = append(tokens[id], testresult.StatusFailed.String())

				name := id.String()
				failureLogs[name] = append(failureLogs[name], fmt.Sprintf("%s: attempt # %d", name, attemptIndex))
				failureLogs[name] = append(failureLogs[name], attempt.Failed[id]...)
			}
		}

		if last, ok := shard.History.Last(); ok {
			failed.Union(last.FailedIDs())
		}
	}

	passed = passed.Difference(failed)

	flaked := allFailures.Difference(failed)
	for id := range flaked {
		if _, isMarker := id.Marker(); isMarker {
			delete(flaked, id)
		}
	}

	aborted := universe.Difference(failed).Difference(passed).Sorted()

	tests := map[string]TestVerdict{}
	for id, idTokens := range tokens {
		tests[id.String()] = TestVerdict{
			Expected: expectedVerdict,
			Actual:   strings.Join(idTokens, " "),
			IsFlaky:  flaked.Has(id) && hasBoth(idTokens),
		}
	}
	for _, id := range aborted {
		if _, ok := tests[id.String()]; !ok {
			tests[id.String()] = TestVerdict{Expected: expectedVerdict, Actual: testresult.StatusFailed.String()}
		}
	}

	for name := range failureLogs {
		id, err := testresult.ParseTestID(name)
		if err != nil {
			// cancellation markers keep their logs
			continue
		}
		if !failed.Has(id) && !flaked.Has(id) {
			delete(failureLogs, name)
		}
	}

	return Report{
		Passed:      passed,
		Failed:      failed,
		Flaked:      flaked,
		Aborted:     aborted,
		Tests:       tests,
		FailureLogs: failureLogs,
		ShardErrors: shardErrors,
	}
}

// Interrupted is true when some selected tests never reported a result.
func (r Report) Interrupted() bool {
	return len(r.Aborted) > 0
}

// FlakyNames lists the flaked tests that eventually passed. Tests which failed and then
// never reported a result stay in Flaked but are aborted, not flaky.
func (r Report) FlakyNames() []string {
	flaky := r.Flaked.Difference(testresult.NewTestSet(r.Aborted...))
	return flaky.Names()
}

// Success is true when no test failed in its last attempt and none was aborted.
func (r Report) Success() bool {
	return r.Failed.Len() == 0 && len(r.Aborted) == 0
}

// NumFailuresByType counts passed tests and failed or aborted ones.
func (r Report) NumFailuresByType() map[string]int {
	return map[string]int{
		testresult.StatusPassed.String(): r.Passed.Len(),
		testresult.StatusFailed.String(): r.Failed.Len() + len(r.Aborted),
	}
}

type jsonReport struct {
	Tests             map[string]TestVerdict `json:"tests"`
	NumFailuresByType map[string]int         `json:"num_failures_by_type"`
	Interrupted       bool                   `json:"interrupted"`
	PathDelimiter     string                 `json:"path_delimiter"`
}

// MarshalJSON writes the summary consumed by test result dashboards.
func (r Report) MarshalJSON() ([]byte, error) {
	tests := r.Tests
	if tests == nil {
		tests = map[string]TestVerdict{}
	}
	return json.Marshal(jsonReport{
		Tests:             tests,
		NumFailuresByType: r.NumFailuresByType(),
		Interrupted:       r.Interrupted(),
		PathDelimiter:     testresult.PathDelimiter,
	})
}

func hasBoth(tokens []string) bool {
	var pass, fail bool
	for _, token := range tokens {
		switch token {
		case testresult.StatusPassed.String():
			pass = true
		case testresult.StatusFailed.String():
			fail = true
		}
	}
	return pass && fail
}

func sortedShards(shards []shardrun.ShardResult) []shardrun.ShardResult {
	sorted := append([]shardrun.ShardResult(nil), shards...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Index != sorted[j].Index {
			return sorted[i].Index < sorted[j].Index
		}
		return sorted[i].DeviceID < sorted[j].DeviceID
	})
	return sorted
}
