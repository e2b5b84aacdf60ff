package shardrun

import (
	"context"
	"sort"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
	"golang.org/x/sync/errgroup"
)

// Coordinator runs shards in parallel, one goroutine per shard.
type Coordinator struct {
	logger log.Logger
}

// NewCoordinator ...
func NewCoordinator(logger log.Logger) *Coordinator {
	return &Coordinator{logger: logger}
}

// Run blocks until every shard terminated and returns their results ordered by shard index.
// A failing shard does not stop the others.
func (c *Coordinator) Run(ctx context.Context, shards []Runner) []ShardResult {
	if len(shards) == 0 {
		return nil
	}

	resultCh := make(chan ShardResult, len(shards))

	var g errgroup.Group
	g.SetLimit(len(shards))
	for _, shard := range shards {
		shard := shard
		g.Go(func() error {
			result := shard.Run(ctx)
			if result.Err != nil {
				c.logger.Errorf("Shard %d on %s failed: %s", result.Index, result.DeviceID, result.Err)
			} else {
				c.logger.Donef("Shard %d on %s completed", result.Index, result.DeviceID)
			}
			resultCh <- result
			return nil
		})
	}
	_ = g.Wait()
	close(resultCh)

	results := make([]ShardResult, 0, len(shards))
	for result := range resultCh {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
	return results
}

type failedShard struct {
	result ShardResult
}

// Failed returns a Runner for a shard that could not be set up. It reports err without running anything.
func Failed(index int, deviceID string, runningSet testresult.TestSet, err error) Runner {
	return failedShard{result: ShardResult{
		Index:      index,
		DeviceID:   deviceID,
		RunningSet: runningSet,
		Err:        err,
	}}
}

func (f failedShard) Run(context.Context) ShardResult {
	return f.result
}
