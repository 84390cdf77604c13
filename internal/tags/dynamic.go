package tags

import "tcm/internal/domain"

// Computed tag names.
const (
	MultiSequence        = "multi-sequence"
	SingleSequence       = "single-sequence"
	HasManualSteps       = "has-manual-steps"
	AutomatedOnly        = "automated-only"
	HasInitialConditions = "has-initial-conditions"
)

// Rule derives one computed tag from loaded content.
type Rule struct {
	Tag   string
	Match func(tc *domain.TestCase) bool
}

// DynamicEvaluator computes tags from the content of a test case.
type DynamicEvaluator struct {
	rules []Rule
}

// NewDynamicEvaluator returns an evaluator with the built-in rules.
func NewDynamicEvaluator() *DynamicEvaluator {
	return &DynamicEvaluator{rules: []Rule{
		{Tag: MultiSequence, Match: func(tc *domain.TestCase) bool { return len(tc.TestSequences) > 1 }},
		{Tag: SingleSequence, Match: func(tc *domain.TestCase) bool { return len(tc.TestSequences) == 1 }},
		{Tag: HasManualSteps, Match: (*domain.TestCase).HasManualSteps},
		{Tag: AutomatedOnly, Match: func(tc *domain.TestCase) bool { return !tc.HasManualSteps() }},
		{Tag: HasInitialConditions, Match: (*domain.TestCase).HasInitialConditions},
	}}
}

// AddRule registers an extra computed tag.
func (d *DynamicEvaluator) AddRule(tag string, match func(tc *domain.TestCase) bool) {
	d.rules = append(d.rules, Rule{Tag: tag, Match: match})
}

// Evaluate returns the computed tags that apply to tc.
func (d *DynamicEvaluator) Evaluate(tc *domain.TestCase) Set {
	s := make(Set)
	for _, r := range d.rules {
		if r.Match(tc) {
			s.Add(r.Tag)
		}
	}
	return s
}

// Declared returns the tags written in the document or inherited from
// its suite: own, suite and sequence tags.
func Declared(tc *domain.TestCase) Set {
	s := NewSet(tc.Tags...)
	s.Add(tc.InheritedTags...)
	for _, seq := range tc.TestSequences {
		s.Add(seq.Tags...)
	}
	return s
}

// Effective returns the declared tags plus the computed ones.
func (d *DynamicEvaluator) Effective(tc *domain.TestCase) Set {
	s := Declared(tc)
	for t := range d.Evaluate(tc) {
		s[t] = struct{}{}
	}
	return s
}
