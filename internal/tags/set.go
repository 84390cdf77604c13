package tags

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Set is a case-folded set of tags.
type Set map[string]struct{}

// NewSet builds a Set from raw tag names.
func NewSet(tags ...string) Set {
	s := make(Set, len(tags))
	s.Add(tags...)
	return s
}

// Add inserts the folded form of each non-empty tag.
func (s Set) Add(tags ...string) {
	for _, t := range tags {
		if n := normalize(t); n != "" {
			s[n] = struct{}{}
		}
	}
}

// Has reports whether tag is in the set, ignoring case.
func (s Set) Has(tag string) bool {
	_, ok := s[normalize(tag)]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

var folder = cases.Fold()

// normalize applies Unicode case folding.
func normalize(tag string) string {
	return folder.String(strings.TrimSpace(tag))
}
