package xcodecommand_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/xcodecommand"
	"github.com/bitrise-steplib/steps-xcode-parallel-test/xcodecommand/mocks"
	version "github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_GivenFormatterInstalled_WhenCheckInstall_ThenKeepsFormatter(t *testing.T) {
	// Given
	runner, installer := new(mocks.Runner), new(mocks.DependencyInstaller)
	installedVersion := version.Must(version.NewVersion("1.6.0"))
	installer.On("CheckInstall").Return(installedVersion, nil)
	params := xcodecommand.Params{Args: []string{"test-without-building"}}
	runner.On("Run", mock.Anything, params).Return(xcodecommand.Output{RawOut: []byte("out")}, nil)

	fallbackRunner := xcodecommand.NewFallbackRunner(runner, installer, log.NewLogger())

	// When
	ver, err := fallbackRunner.CheckInstall()
	require.NoError(t, err)
	out, err := fallbackRunner.Run(context.Background(), params)

	// Then
	require.NoError(t, err)
	assert.Equal(t, installedVersion, ver)
	assert.Equal(t, "out", string(out.RawOut))
	runner.AssertExpectations(t)
}

func Test_GivenFormatterMissing_WhenCheckInstall_ThenFallsBackWithoutError(t *testing.T) {
	// Given
	runner, installer := new(mocks.Runner), new(mocks.DependencyInstaller)
	installer.On("CheckInstall").Return(nil, errors.New("xcbeautify: command not found"))

	fallbackRunner := xcodecommand.NewFallbackRunner(runner, installer, log.NewLogger())

	// When
	ver, err := fallbackRunner.CheckInstall()

	// Then
	assert.NoError(t, err)
	assert.Nil(t, ver)
	installer.AssertNumberOfCalls(t, "CheckInstall", 1)
}

func Test_GivenNoInstaller_WhenCheckInstall_ThenDoesNothing(t *testing.T) {
	// Given
	runner := new(mocks.Runner)
	fallbackRunner := xcodecommand.NewFallbackRunner(runner, nil, log.NewLogger())

	// When
	ver, err := fallbackRunner.CheckInstall()

	// Then
	assert.NoError(t, err)
	assert.Nil(t, ver)
}
