package tags

import (
	"fmt"

	"tcm/internal/domain"
)

// Filter selects test cases by expression and include/exclude lists.
// A zero-value criterion is ignored; an empty Filter matches everything.
type Filter struct {
	expr     Expr
	include  Set
	exclude  Set
	computed *DynamicEvaluator
}

// NewFilter builds a Filter. An empty expression means no expression check.
func NewFilter(expression string, include, exclude []string) (*Filter, error) {
	f := &Filter{
		include:  NewSet(include...),
		exclude:  NewSet(exclude...),
		computed: NewDynamicEvaluator(),
	}
	if expression != "" {
		expr, err := Parse(expression)
		if err != nil {
			return nil, fmt.Errorf("parse tag expression %q: %w", expression, err)
		}
		f.expr = expr
	}
	return f, nil
}

// IsEmpty reports whether the filter selects everything.
func (f *Filter) IsEmpty() bool {
	return f.expr == nil && len(f.include) == 0 && len(f.exclude) == 0
}

// Matches reports whether tc is selected. Excludes win over includes; the
// expression must hold as well.
func (f *Filter) Matches(tc *domain.TestCase) bool {
	if f.IsEmpty() {
		return true
	}
	return f.MatchesSet(f.computed.Effective(tc))
}

// MatchesSet applies the filter to an already computed tag set.
func (f *Filter) MatchesSet(effective Set) bool {
	for t := range f.exclude {
		if effective.Has(t) {
			return false
		}
	}
	if len(f.include) > 0 {
		found := false
		for t := range f.include {
			if effective.Has(t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return f.expr == nil || f.expr.Eval(effective)
}

// Apply returns the selected test cases, preserving order.
func (f *Filter) Apply(cases []*domain.TestCase) []*domain.TestCase {
	var selected []*domain.TestCase
	for _, tc := range cases {
		if f.Matches(tc) {
			selected = append(selected, tc)
		}
	}
	return selected
}

// Matches evaluates a single expression against tc's effective tags.
func Matches(tc *domain.TestCase, expression string) (bool, error) {
	expr, err := Parse(expression)
	if err != nil {
		return false, err
	}
	return expr.Eval(NewDynamicEvaluator().Effective(tc)), nil
}
