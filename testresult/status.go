package testresult

// Status is the outcome recorded for a key of a ResultLog.
type Status int

// Statuses ...
const (
	StatusPassed Status = iota
	StatusFailed
	// StatusTestsDidNotStart is reported when the test runner never got to execute tests.
	StatusTestsDidNotStart
	// StatusBuildInterrupted is reported when the run was cut short (crash, kill, timeout).
	StatusBuildInterrupted
)

var cancellationStatuses = []Status{StatusTestsDidNotStart, StatusBuildInterrupted}

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "PASS"
	case StatusFailed:
		return "FAIL"
	case StatusTestsDidNotStart:
		return "TESTS_DID_NOT_START"
	case StatusBuildInterrupted:
		return "BUILD_INTERRUPTED"
	default:
		return "UNKNOWN"
	}
}

// IsCancellation reports whether the status describes the whole run rather than a single test.
func (s Status) IsCancellation() bool {
	return s == StatusTestsDidNotStart || s == StatusBuildInterrupted
}

// CancellationStatuses returns the statuses stored as marker keys in ResultLog.Failed.
func CancellationStatuses() []Status {
	return append([]Status(nil), cancellationStatuses...)
}

// MarkerID returns the key under which a cancellation status is stored in ResultLog.Failed.
func MarkerID(status Status) TestID {
	return TestID{Suite: status.String()}
}
