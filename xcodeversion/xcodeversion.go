// Package xcodeversion reads the active Xcode version.
package xcodeversion

import (
	"fmt"

	"github.com/bitrise-io/go-xcode/utility"
	"github.com/bitrise-io/go-xcode/v2/xcodeversion"
)

// MinParallelTestingMajorVersion is the first Xcode supporting -parallel-testing-worker-count.
const MinParallelTestingMajorVersion = 10

// Reader ...
type Reader interface {
	Version() (xcodeversion.Version, error)
}

type reader struct{}

// NewXcodeVersionReader ...
func NewXcodeVersionReader() Reader {
	return &reader{}
}

func (b *reader) Version() (xcodeversion.Version, error) {
	version, err := utility.GetXcodeVersion()
	if err != nil {
		return xcodeversion.Version{}, fmt.Errorf("failed to read Xcode version: %w", err)
	}
	return xcodeversion.Version{
		Version:      version.Version,
		BuildVersion: version.BuildVersion,
		Major:        version.MajorVersion,
	}, nil
}

// SupportsParallelTesting ...
func SupportsParallelTesting(version xcodeversion.Version) bool {
	return version.Major >= MinParallelTestingMajorVersion
}
