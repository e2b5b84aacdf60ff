package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/bitrise-steplib/steps-xcode-parallel-test/shardrun"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	m1 = testresult.NewTestID("A", "m1")
	m2 = testresult.NewTestID("A", "m2")
	m3 = testresult.NewTestID("A", "m3")
	x  = testresult.NewTestID("B", "x")
	y  = testresult.NewTestID("B", "y")
)

func Test_GivenFlakyTest_WhenAggregate_ThenPassesAndReportsFlake(t *testing.T) {
	// Given
	shard := shardResult(0,
		attemptLog([]testresult.TestID{m2}, m1),
		attemptLog([]testresult.TestID{m1}),
	)

	// When
	report := Aggregate(testresult.NewTestSet(m1, m2), []shardrun.ShardResult{shard})

	// Then
	assert.Equal(t, testresult.NewTestSet(m1, m2), report.Passed)
	assert.Equal(t, 0, report.Failed.Len())
	assert.Equal(t, testresult.NewTestSet(m1), report.Flaked)
	assert.Empty(t, report.Aborted)
	assert.True(t, report.Success())
	assert.Equal(t, TestVerdict{Expected: "PASS", Actual: "FAIL PASS", IsFlaky: true}, report.Tests["A/m1"])
	assert.Equal(t, TestVerdict{Expected: "PASS", Actual: "PASS"}, report.Tests["A/m2"])
	assert.Equal(t, []string{"A/m1: attempt # 0", "A/m1 failed"}, report.FailureLogs["A/m1"])
}

func Test_GivenInterruptedRun_WhenAggregate_ThenEveryTestIsAborted(t *testing.T) {
	// Given
	interrupted := testresult.NewResultLog()
	interrupted.AddCancellation(testresult.StatusBuildInterrupted, "xcodebuild did not finish the test run.")
	shard := shardResult(0, interrupted)

	// When
	report := Aggregate(testresult.NewTestSet(m1, m2, m3), []shardrun.ShardResult{shard})

	// Then
	assert.Equal(t, []testresult.TestID{m1, m2, m3}, report.Aborted)
	assert.True(t, report.Interrupted())
	assert.False(t, report.Success())
	assert.Equal(t, map[string]int{"PASS": 0, "FAIL": 4}, report.NumFailuresByType())
	assert.Equal(t, TestVerdict{Expected: "PASS", Actual: "FAIL"}, report.Tests["A/m3"])
	assert.Equal(t, 0, report.Flaked.Len())
}

func Test_GivenShardsInAnyOrder_WhenAggregate_ThenSameReport(t *testing.T) {
	// Given
	shardA := shardResult(0,
		attemptLog([]testresult.TestID{m1}, x),
		attemptLog(nil, x),
	)
	shardB := shardResult(1,
		attemptLog([]testresult.TestID{m2, y}),
	)
	universe := testresult.NewTestSet(m1, m2, x, y)

	// When
	forward := Aggregate(universe, []shardrun.ShardResult{shardA, shardB})
	backward := Aggregate(universe, []shardrun.ShardResult{shardB, shardA})

	// Then
	assert.Equal(t, forward, backward)
	assert.Equal(t, testresult.NewTestSet(x), forward.Failed)
	assert.False(t, forward.Success())
	assert.Equal(t, TestVerdict{Expected: "PASS", Actual: "FAIL FAIL"}, forward.Tests["B/x"])
}

func Test_GivenLastAttemptFailure_WhenAggregate_ThenFailureWinsOverEarlierPass(t *testing.T) {
	// Given
	shard := shardResult(0,
		attemptLog([]testresult.TestID{m1}, m2),
		attemptLog([]testresult.TestID{m2}, m1),
	)

	// When
	report := Aggregate(testresult.NewTestSet(m1, m2), []shardrun.ShardResult{shard})

	// Then
	assert.Equal(t, testresult.NewTestSet(m2), report.Passed)
	assert.Equal(t, testresult.NewTestSet(m1), report.Failed)
	assert.False(t, report.Tests["A/m1"].IsFlaky)
}

func Test_GivenFailureThenInterruptedRetry_WhenAggregate_ThenTestIsAbortedNotFlaky(t *testing.T) {
	// Given
	interrupted := testresult.NewResultLog()
	interrupted.AddCancellation(testresult.StatusBuildInterrupted, "xcodebuild did not finish the test run.")
	shard := shardResult(0,
		attemptLog([]testresult.TestID{m1}, m2),
		interrupted,
	)

	// When
	report := Aggregate(testresult.NewTestSet(m1, m2), []shardrun.ShardResult{shard})

	// Then
	assert.Equal(t, []testresult.TestID{m2}, report.Aborted)
	assert.True(t, report.Flaked.Has(m2))
	assert.Empty(t, report.FlakyNames())
	assert.False(t, report.Tests["A/m2"].IsFlaky)
	assert.False(t, report.Success())
}

func Test_GivenFlakyAndAbortedTests_WhenFlakyNames_ThenOnlyEventuallyPassedOnesAreListed(t *testing.T) {
	// Given
	interrupted := testresult.NewResultLog()
	interrupted.AddCancellation(testresult.StatusBuildInterrupted, "xcodebuild did not finish the test run.")
	passedAfterRetry := shardResult(0,
		attemptLog(nil, m1),
		attemptLog([]testresult.TestID{m1}),
	)
	abortedAfterFailure := shardResult(1,
		attemptLog(nil, x),
		interrupted,
	)

	// When
	report := Aggregate(testresult.NewTestSet(m1, x), []shardrun.ShardResult{passedAfterRetry, abortedAfterFailure})

	// Then
	assert.Equal(t, []string{"A/m1"}, report.FlakyNames())
	assert.True(t, report.Tests["A/m1"].IsFlaky)
	assert.False(t, report.Tests["B/x"].IsFlaky)
}

func Test_GivenShardError_WhenAggregate_ThenKeptApartFromTestFailures(t *testing.T) {
	// Given
	launchErr := errors.New("attempt #0 could not be launched")
	failedShard := shardrun.ShardResult{Index: 1, DeviceID: "device-2", RunningSet: testresult.NewTestSet(m2), Err: launchErr}

	// When
	report := Aggregate(testresult.NewTestSet(m1, m2), []shardrun.ShardResult{shardResult(0, attemptLog([]testresult.TestID{m1})), failedShard})

	// Then
	require.Len(t, report.ShardErrors, 1)
	assert.Equal(t, ShardError{Index: 1, DeviceID: "device-2", Err: launchErr}, report.ShardErrors[0])
	assert.Equal(t, 0, report.Failed.Len())
	assert.Equal(t, []testresult.TestID{m2}, report.Aborted)
	assert.False(t, report.Success())
}

func Test_GivenRandomHistories_WhenAggregate_ThenSetsPartitionTheTests(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	var tests []testresult.TestID
	for i := 0; i < 12; i++ {
		tests = append(tests, testresult.NewTestID("Suite", fmt.Sprintf("test%02d", i)))
	}

	for run := 0; run < 50; run++ {
		// Given
		universe := testresult.TestSet{}
		var shards []shardrun.ShardResult
		for index := 0; index < 3; index++ {
			var history testresult.History
			for a := 0; a < 1+random.Intn(3); a++ {
				log := testresult.NewResultLog()
				for _, id := range tests {
					switch random.Intn(4) {
					case 0:
						log.AddPassed(id)
					case 1:
						log.AddFailure(id, "failed")
					}
				}
				history = append(history, log)
			}
			shards = append(shards, shardResult(index, history...))
		}
		for _, id := range tests[:8] {
			universe.Add(id)
		}

		// When
		report := Aggregate(universe, shards)

		// Then
		aborted := testresult.NewTestSet(report.Aborted...)
		assert.Equal(t, 0, len(intersection(report.Passed, report.Failed)))
		assert.Equal(t, 0, len(intersection(report.Passed, aborted)))
		assert.Equal(t, 0, len(intersection(report.Failed, aborted)))
		assert.Equal(t, 0, len(intersection(report.Flaked, report.Failed)))

		covered := testresult.TestSet{}
		covered.Union(report.Passed)
		covered.Union(report.Failed)
		covered.Union(aborted)
		covered.Union(report.Flaked)
		seen := universe.Clone()
		for _, shard := range shards {
			for _, log := range shard.History {
				seen.Union(log.Passed)
				seen.Union(log.FailedIDs())
			}
		}
		assert.True(t, covered.ContainsAll(seen))
	}
}

func Test_GivenReport_WhenMarshalJSON_ThenUsesResultSummaryFormat(t *testing.T) {
	// Given
	shard := shardResult(0,
		attemptLog([]testresult.TestID{m2}, m1),
		attemptLog([]testresult.TestID{m1}),
	)
	report := Aggregate(testresult.NewTestSet(m1, m2, m3), []shardrun.ShardResult{shard})

	// When
	content, err := json.Marshal(report)

	// Then
	require.NoError(t, err)
	expected := `{
		"tests": {
			"A/m1": {"expected": "PASS", "actual": "FAIL PASS", "is_flaky": true},
			"A/m2": {"expected": "PASS", "actual": "PASS"},
			"A/m3": {"expected": "PASS", "actual": "FAIL"}
		},
		"num_failures_by_type": {"PASS": 2, "FAIL": 1},
		"interrupted": true,
		"path_delimiter": "/"
	}`
	assert.JSONEq(t, expected, string(content))
}

// Helpers

func attemptLog(passed []testresult.TestID, failed ...testresult.TestID) testresult.ResultLog {
	result := testresult.NewResultLog()
	for _, id := range passed {
		result.AddPassed(id)
	}
	for _, id := range failed {
		result.AddFailure(id, id.String()+" failed")
	}
	return result
}

func shardResult(index int, history ...testresult.ResultLog) shardrun.ShardResult {
	runningSet := testresult.TestSet{}
	for _, log := range history {
		runningSet.Union(log.Passed)
		runningSet.Union(log.FailedIDs())
	}
	return shardrun.ShardResult{
		Index:      index,
		DeviceID:   fmt.Sprintf("device-%d", index+1),
		RunningSet: runningSet,
		History:    history,
		Summary:    testresult.History(history).Summarize(),
	}
}

func intersection(a, b testresult.TestSet) testresult.TestSet {
	result := testresult.TestSet{}
	for id := range a {
		if b.Has(id) {
			result.Add(id)
		}
	}
	return result
}
