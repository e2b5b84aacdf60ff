package testresult

import (
	"fmt"
	"sort"
	"strings"
)

// PathDelimiter separates the suite and the method in a rendered test name.
const PathDelimiter = "/"

// TestID identifies a test method within one test bundle.
type TestID struct {
	Suite  string
	Method string
}

// NewTestID ...
func NewTestID(suite, method string) TestID {
	return TestID{Suite: suite, Method: method}
}

// ParseTestID parses the `Suite/method` form.
func ParseTestID(s string) (TestID, error) {
	suite, method, found := strings.Cut(s, PathDelimiter)
	if !found || suite == "" || method == "" {
		return TestID{}, fmt.Errorf("invalid test name (%s), expected Suite%smethod", s, PathDelimiter)
	}
	return TestID{Suite: suite, Method: method}, nil
}

// String renders the test as `Suite/method`. Marker keys render as the bare marker.
func (t TestID) String() string {
	if t.Method == "" {
		return t.Suite
	}
	return t.Suite + PathDelimiter + t.Method
}

// Marker reports whether the id is a cancellation marker and which status it stands for.
func (t TestID) Marker() (Status, bool) {
	if t.Method != "" {
		return 0, false
	}
	for _, status := range cancellationStatuses {
		if status.String() == t.Suite {
			return status, true
		}
	}
	return 0, false
}

// TestSet is an unordered set of tests.
type TestSet map[TestID]struct{}

// NewTestSet ...
func NewTestSet(ids ...TestID) TestSet {
	s := TestSet{}
	s.AddAll(ids...)
	return s
}

// Add ...
func (s TestSet) Add(id TestID) {
	s[id] = struct{}{}
}

// AddAll ...
func (s TestSet) AddAll(ids ...TestID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has ...
func (s TestSet) Has(id TestID) bool {
	_, ok := s[id]
	return ok
}

// Len ...
func (s TestSet) Len() int {
	return len(s)
}

// Clone ...
func (s TestSet) Clone() TestSet {
	c := make(TestSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Union adds every element of other to s in place.
func (s TestSet) Union(other TestSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Difference returns the elements of s that are not in other.
func (s TestSet) Difference(other TestSet) TestSet {
	d := TestSet{}
	for id := range s {
		if !other.Has(id) {
			d[id] = struct{}{}
		}
	}
	return d
}

// ContainsAll reports whether every element of other is in s.
func (s TestSet) ContainsAll(other TestSet) bool {
	for id := range other {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Equal ...
func (s TestSet) Equal(other TestSet) bool {
	return len(s) == len(other) && s.ContainsAll(other)
}

// Sorted returns the elements ordered by their rendered name.
func (s TestSet) Sorted() []TestID {
	ids := make([]TestID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// Names returns the rendered, sorted names.
func (s TestSet) Names() []string {
	var names []string
	for _, id := range s.Sorted() {
		names = append(names, id.String())
	}
	return names
}

// SortIDs sorts ids by their rendered name.
func SortIDs(ids []TestID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
}
