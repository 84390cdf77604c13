package discovery

import (
	"path/filepath"
	"strings"

	"tcm/internal/domain"
)

// Filter filters test cases by id pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByIDs keeps the test cases whose id matches any of the patterns.
// No patterns keeps everything.
func (f *Filter) FilterByIDs(cases []*domain.TestCase, patterns []string) []*domain.TestCase {
	if len(patterns) == 0 {
		return cases
	}

	var filtered []*domain.TestCase
	for _, tc := range cases {
		for _, pattern := range patterns {
			if MatchID(tc.ID, pattern) {
				filtered = append(filtered, tc)
				break
			}
		}
	}
	return filtered
}

// MatchID matches an id against a pattern. Patterns with wildcards use
// filepath.Match semantics; plain patterns must equal the id.
func MatchID(id, pattern string) bool {
	if pattern == "" {
		return false
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return id == pattern
	}
	matched, err := filepath.Match(pattern, id)
	return err == nil && matched
}
