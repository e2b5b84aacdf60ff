package testresult

// History is the chronological list of attempts made by one shard.
type History []ResultLog

// Summary counts the tests of a history.
type Summary struct {
	// Passed counts every distinct test that passed in any attempt.
	Passed int
	// Failed counts the failures of the last attempt only, earlier ones may have been retried.
	Failed int
}

// Last returns the most recent attempt.
func (h History) Last() (ResultLog, bool) {
	if len(h) == 0 {
		return ResultLog{}, false
	}
	return h[len(h)-1], true
}

// PassedTests returns every test that passed in any attempt.
func (h History) PassedTests() TestSet {
	passed := TestSet{}
	for _, log := range h {
		passed.Union(log.Passed)
	}
	return passed
}

// Summarize ...
func (h History) Summarize() Summary {
	last, ok := h.Last()
	if !ok {
		return Summary{}
	}
	return Summary{
		Passed: h.PassedTests().Len(),
		Failed: len(last.Failed),
	}
}
