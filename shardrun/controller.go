// Package shardrun runs the attempts of the shards and decides about their retries.
package shardrun

import (
	"context"
	"errors"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/attempt"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/simulator"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
)

// DefaultRerunShardThreshold is the number of remaining tests above which an aborted run is retried with the same parallelism.
const DefaultRerunShardThreshold = 20

// ControllerConfig ...
type ControllerConfig struct {
	Index      int
	DeviceID   string
	Shards     int
	MaxRetries int
	RunningSet testresult.TestSet
	// RerunShardThreshold of 0 keeps the parallelism for every aborted run.
	RerunShardThreshold int
}

// ShardResult is what a shard hands over once it terminated.
type ShardResult struct {
	Index      int
	DeviceID   string
	RunningSet testresult.TestSet
	History    testresult.History
	Summary    testresult.Summary
	// Err is a configuration or launch error that ended the shard early.
	Err error
}

// Runner is a shard the Coordinator can run.
type Runner interface {
	Run(ctx context.Context) ShardResult
}

// Controller runs the attempts of one shard on one device.
// A Controller is used by a single goroutine.
type Controller struct {
	config   ControllerConfig
	executor attempt.Executor
	device   simulator.Controller
	logger   log.Logger

	state     State
	exclusion testresult.TestSet
	history   testresult.History
}

// NewController validates the configuration and returns a Controller in StateIdle.
func NewController(config ControllerConfig, executor attempt.Executor, device simulator.Controller, logger log.Logger) (*Controller, error) {
	var problems []string
	if config.DeviceID == "" {
		problems = append(problems, "missing device")
	}
	if config.Shards < 1 {
		problems = append(problems, "shard count must be at least 1")
	}
	if config.MaxRetries < 0 {
		problems = append(problems, "retry count can not be negative")
	}
	if config.RunningSet.Len() == 0 {
		problems = append(problems, "no tests to run")
	}
	if config.RerunShardThreshold < 0 {
		problems = append(problems, "rerun shard threshold can not be negative")
	}
	if executor == nil || device == nil {
		problems = append(problems, "missing attempt executor or device controller")
	}
	if len(problems) > 0 {
		return nil, &ConfigurationError{Shard: config.Index, Reason: strings.Join(problems, ", ")}
	}

	return &Controller{
		config:    config,
		executor:  executor,
		device:    device,
		logger:    logger,
		state:     StateIdle,
		exclusion: testresult.TestSet{},
	}, nil
}

// State ...
func (c *Controller) State() State {
	return c.state
}

// Run runs attempts until the tests pass, the retries are exhausted or an attempt can not be launched.
func (c *Controller) Run(ctx context.Context) ShardResult {
	shards := c.config.Shards

	for i := 0; i <= c.config.MaxRetries; i++ {
		c.setState(StateAttemptRunning)
		c.prepareDevice()

		result, err := c.executor.Run(ctx, attempt.Request{
			Attempt:  i,
			Shards:   shards,
			Excluded: c.exclusion.Clone(),
		})
		if err != nil {
			c.logger.Errorf("Shard %d: %s", c.config.Index, err)
			return c.finish(err)
		}
		c.history = append(c.history, result)

		c.setState(StateDeciding)
		if i == c.config.MaxRetries || !result.HasFailures() {
			break
		}

		c.exclusion.Union(result.Passed)

		if c.exclusion.ContainsAll(c.config.RunningSet) {
			pruned := c.history[len(c.history)-1].PruneCancellations()
			for status, reasons := range pruned {
				c.logger.Warnf("Shard %d: every test passed, ignoring %s: %s", c.config.Index, status, strings.Join(reasons, "; "))
			}
			break
		}

		shards = c.nextShardCount(result, shards)

		if ctx.Err() != nil {
			c.logger.Warnf("Shard %d: test run cancelled, no more retries", c.config.Index)
			break
		}

		c.logger.Printf("Shard %d: retrying %d test(s) with %d parallel worker(s)", c.config.Index, c.remaining(), shards)
	}

	return c.finish(nil)
}

// A run aborted as a whole is retried broadly while many tests are left, since the failing test is unknown.
// Known failures are retried on a single worker.
func (c *Controller) nextShardCount(last testresult.ResultLog, current int) int {
	if len(last.Cancellations()) > 0 && c.remaining() > c.config.RerunShardThreshold {
		return current
	}
	return 1
}

func (c *Controller) remaining() int {
	return c.config.RunningSet.Difference(c.exclusion).Len()
}

func (c *Controller) prepareDevice() {
	isSimulator, err := c.device.IsSimulator(c.config.DeviceID)
	if err != nil {
		c.logger.Warnf("Shard %d: failed to check device (%s): %s", c.config.Index, c.config.DeviceID, err)
		return
	}
	if !isSimulator {
		return
	}
	if err := c.device.ResetEnvironment(c.config.DeviceID); err != nil {
		c.logger.Warnf("Shard %d: %s", c.config.Index, err)
	}
}

func (c *Controller) finish(err error) ShardResult {
	c.setState(StateTerminated)

	summary := c.history.Summarize()
	c.logger.Infof("Shard %d finished after %d attempt(s): %d passed, %d failed", c.config.Index, len(c.history), summary.Passed, summary.Failed)

	var launchErr *attempt.ProcessLaunchError
	if err != nil && !errors.As(err, &launchErr) {
		c.logger.Warnf("Shard %d: unexpected attempt error: %s", c.config.Index, err)
	}

	return ShardResult{
		Index:      c.config.Index,
		DeviceID:   c.config.DeviceID,
		RunningSet: c.config.RunningSet,
		History:    c.history,
		Summary:    summary,
		Err:        err,
	}
}

func (c *Controller) setState(state State) {
	c.logger.Debugf("Shard %d: %s -> %s", c.config.Index, c.state, state)
	c.state = state
}
