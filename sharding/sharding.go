// Package sharding splits the selected tests between the devices of a run.
package sharding

import (
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
)

// Shard is the part of the test universe a single device is responsible for.
type Shard struct {
	// Included is the tests the device runs.
	Included []testresult.TestID
	// Excluded is every other selected test.
	Excluded []testresult.TestID
}

// ComputeAlpha computes the tests to include/exclude in the given shard, by lexicographic order.
func ComputeAlpha(tests []testresult.TestID, shardIndex, totalShards int) Shard {
	sorted := append([]testresult.TestID(nil), tests...)
	testresult.SortIDs(sorted)

	shardSpan := len(sorted) / totalShards
	remaining := len(sorted) % totalShards

	// The first `remaining` shards get one extra test, so 9 tests on 4 shards
	// are split 3+2+2+2 rather than 3+3+3+0.
	startIdx := shardIndex*shardSpan + min(shardIndex, remaining)
	endIdx := startIdx + shardSpan
	if shardIndex < remaining {
		endIdx++
	}

	var included, excluded []testresult.TestID
	included = append(included, sorted[startIdx:endIdx]...)
	excluded = append(append(excluded, sorted[:startIdx]...), sorted[endIdx:]...)

	return Shard{Included: included, Excluded: excluded}
}

// Split returns one shard per device, skipping devices that would get no tests.
func Split(tests []testresult.TestID, devices int) []Shard {
	if devices > len(tests) {
		devices = len(tests)
	}

	var shards []Shard
	for i := 0; i < devices; i++ {
		shards = append(shards, ComputeAlpha(tests, i, devices))
	}
	return shards
}
