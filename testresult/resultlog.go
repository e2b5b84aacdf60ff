// Package testresult holds the outcome of test attempts: which tests passed,
// which failed and why, and the run-level cancellation markers.
package testresult

// ResultLog is the outcome of one attempt.
//
// Besides real tests, Failed may hold the cancellation markers
// (see MarkerID) when the harness reported the run itself as aborted.
type ResultLog struct {
	Passed TestSet
	Failed map[TestID][]string
}

// NewResultLog ...
func NewResultLog() ResultLog {
	return ResultLog{
		Passed: TestSet{},
		Failed: map[TestID][]string{},
	}
}

// AddPassed ...
func (r *ResultLog) AddPassed(id TestID) {
	if r.Passed == nil {
		r.Passed = TestSet{}
	}
	r.Passed.Add(id)
}

// AddFailure appends reasons to the failure entry of id, creating it if needed.
func (r *ResultLog) AddFailure(id TestID, reasons ...string) {
	if r.Failed == nil {
		r.Failed = map[TestID][]string{}
	}
	r.Failed[id] = append(r.Failed[id], reasons...)
}

// AddCancellation records a run-level cancellation marker.
func (r *ResultLog) AddCancellation(status Status, reasons ...string) {
	r.AddFailure(MarkerID(status), reasons...)
}

// HasFailures ...
func (r ResultLog) HasFailures() bool {
	return len(r.Failed) > 0
}

// FailedIDs returns the failed keys, markers included.
func (r ResultLog) FailedIDs() TestSet {
	s := make(TestSet, len(r.Failed))
	for id := range r.Failed {
		s.Add(id)
	}
	return s
}

// Cancellations returns the cancellation statuses present among the failed keys.
func (r ResultLog) Cancellations() []Status {
	var statuses []Status
	for _, status := range cancellationStatuses {
		if _, ok := r.Failed[MarkerID(status)]; ok {
			statuses = append(statuses, status)
		}
	}
	return statuses
}

// PruneCancellations removes the cancellation markers from Failed and returns
// what was removed. Calling it on a log without markers is a no-op.
func (r *ResultLog) PruneCancellations() map[Status][]string {
	pruned := map[Status][]string{}
	for _, status := range cancellationStatuses {
		key := MarkerID(status)
		if reasons, ok := r.Failed[key]; ok {
			pruned[status] = reasons
			delete(r.Failed, key)
		}
	}
	return pruned
}

// Clone returns a deep copy.
func (r ResultLog) Clone() ResultLog {
	c := NewResultLog()
	c.Passed = r.Passed.Clone()
	for id, reasons := range r.Failed {
		c.Failed[id] = append([]string{}, reasons...)
	}
	return c
}
