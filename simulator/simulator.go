package simulator

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bitrise-io/go-utils/errorutil"
	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
)

// TestDevicesSetPath is the device set holding the clones xcodebuild creates for parallel testing.
const TestDevicesSetPath = "~/Library/Developer/XCTestDevices"

// Controller prepares the devices the tests run on.
type Controller interface {
	ResetEnvironment(udid string) error
	IsSimulator(udid string) (bool, error)
}

// Manager is the subset of the simctl wrapper used by the Controller.
type Manager interface {
	Shutdown(id string) error
	Erase(id string) error
}

type controller struct {
	logger         log.Logger
	commandFactory command.Factory
	manager        Manager
	pathChecker    pathutil.PathChecker
	testDevicesDir string

	mu         sync.Mutex
	simulators map[string]bool
}

// NewController returns a Controller. If testDevicesDir is not empty, resetting a simulator
// also shuts down and erases every device in that set.
func NewController(logger log.Logger, commandFactory command.Factory, manager Manager, pathChecker pathutil.PathChecker, testDevicesDir string) Controller {
	return &controller{
		logger:         logger,
		commandFactory: commandFactory,
		manager:        manager,
		pathChecker:    pathChecker,
		testDevicesDir: testDevicesDir,
	}
}

// ResetEnvironment shuts down and erases the simulator, so that an attempt does not inherit the state of the previous one.
func (c *controller) ResetEnvironment(udid string) error {
	c.logger.Printf("Resetting simulator (%s)", udid)

	if err := c.manager.Shutdown(udid); err != nil {
		return fmt.Errorf("failed to shut down simulator (%s): %w", udid, err)
	}
	if err := c.manager.Erase(udid); err != nil {
		return fmt.Errorf("failed to erase simulator (%s): %w", udid, err)
	}

	if c.testDevicesDir == "" {
		return nil
	}
	if exists, err := c.pathChecker.IsDirExists(c.testDevicesDir); err != nil {
		return fmt.Errorf("failed to check test devices dir (%s): %w", c.testDevicesDir, err)
	} else if !exists {
		return nil
	}

	for _, action := range []string{"shutdown", "erase"} {
		if err := c.runOnTestDevices(action); err != nil {
			c.logger.Warnf("%s", err)
		}
	}
	return nil
}

func (c *controller) runOnTestDevices(action string) error {
	cmd := c.commandFactory.Create("xcrun", []string{"simctl", "--set", c.testDevicesDir, action, "all"}, nil)
	c.logger.TPrintf("$ %s", cmd.PrintableCommandArgs())

	if out, err := cmd.RunAndReturnTrimmedCombinedOutput(); err != nil {
		if errorutil.IsExitStatusError(err) {
			return fmt.Errorf("test devices %s command failed: %s", action, out)
		}
		return fmt.Errorf("failed to run test devices %s command: %w", action, err)
	}
	return nil
}

// IsSimulator reports whether udid belongs to a simulator known by simctl.
// Anything else is treated as a physical device.
func (c *controller) IsSimulator(udid string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.simulators == nil {
		simulators, err := c.listSimulators()
		if err != nil {
			return false, err
		}
		c.simulators = simulators
	}

	return c.simulators[udid], nil
}

type deviceList struct {
	Devices map[string][]struct {
		UDID  string `json:"udid"`
		Name  string `json:"name"`
		State string `json:"state"`
	} `json:"devices"`
}

func (c *controller) listSimulators() (map[string]bool, error) {
	var list deviceList

	// xcrun simctl list can fail to show the complete device list
	if err := retry.Times(3).Wait(10 * time.Second).Try(func(attempt uint) error {
		cmd := c.commandFactory.Create("xcrun", []string{"simctl", "list", "devices", "--json"}, &command.Opts{
			Stderr: os.Stderr,
		})
		c.logger.TDebugf("$ %s", cmd.PrintableCommandArgs())

		out, err := cmd.RunAndReturnTrimmedOutput()
		if err != nil {
			if errorutil.IsExitStatusError(err) {
				return fmt.Errorf("device list command failed: %w", err)
			}
			return fmt.Errorf("failed to run device list command: %w", err)
		}

		if err := json.Unmarshal([]byte(out), &list); err != nil {
			return fmt.Errorf("failed to parse device list: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	simulators := map[string]bool{}
	for _, devices := range list.Devices {
		for _, device := range devices {
			simulators[device.UDID] = true
		}
	}
	return simulators, nil
}
