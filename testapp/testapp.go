// Package testapp describes the UI test runner app and turns it into
// xcodebuild test-without-building invocations.
package testapp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitrise-steplib/steps-xcode-parallel-test/testresult"
	"howett.net/plist"
)

const (
	xctestExt       = ".xctest"
	xctestrunFormat = 1
)

// App is a UI test runner app together with the app it drives.
type App struct {
	Path        string
	HostAppPath string
	ModuleName  string
	BundleID    string
	// XCTestPath is the test bundle path relative to Path, e.g. /PlugIns/Foo.xctest.
	XCTestPath string

	EnvVars       map[string]string
	TestArgs      []string
	IncludedTests []testresult.TestID
}

// New inspects the app bundle at path.
func New(path, hostAppPath string, envVars map[string]string, testArgs []string) (App, error) {
	if info, err := os.Stat(path); err != nil {
		return App{}, fmt.Errorf("test app not found at %s: %w", path, err)
	} else if !info.IsDir() {
		return App{}, fmt.Errorf("test app (%s) is not an app bundle", path)
	}

	if hostAppPath != "" {
		if _, err := os.Stat(hostAppPath); err != nil {
			return App{}, fmt.Errorf("host app not found at %s: %w", hostAppPath, err)
		}
	}

	xctestPath, err := findXCTest(path)
	if err != nil {
		return App{}, err
	}

	bundleID, err := readBundleID(filepath.Join(path, "Info.plist"))
	if err != nil {
		return App{}, err
	}

	return App{
		Path:        path,
		HostAppPath: hostAppPath,
		ModuleName:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		BundleID:    bundleID,
		XCTestPath:  xctestPath,
		EnvVars:     envVars,
		TestArgs:    testArgs,
	}, nil
}

// BinaryPath is the executable of the app bundle, the one holding the test classes.
func (a App) BinaryPath() string {
	return filepath.Join(a.Path, a.ModuleName)
}

// WithIncludedTests returns a copy of the app restricted to the given tests.
func (a App) WithIncludedTests(tests []testresult.TestID) App {
	a.IncludedTests = append([]testresult.TestID(nil), tests...)
	return a
}

func findXCTest(appPath string) (string, error) {
	pluginsDir := filepath.Join(appPath, "PlugIns")
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		return "", fmt.Errorf("PlugIns directory not found in %s: %w", appPath, err)
	}

	var xctest string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), xctestExt) {
			xctest = entry.Name()
		}
	}
	if xctest == "" {
		return "", fmt.Errorf("no %s plugin found in %s", xctestExt, pluginsDir)
	}

	return "/" + filepath.Join("PlugIns", xctest), nil
}

func readBundleID(infoPlistPath string) (string, error) {
	content, err := os.ReadFile(infoPlistPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", infoPlistPath, err)
	}

	var info struct {
		BundleID string `plist:"CFBundleIdentifier"`
	}
	if _, err := plist.Unmarshal(content, &info); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", infoPlistPath, err)
	}
	if info.BundleID == "" {
		return "", fmt.Errorf("CFBundleIdentifier missing from %s", infoPlistPath)
	}

	return info.BundleID, nil
}
