package schema

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"tcm/internal/domain"
)

// walk checks value against s and returns the violations found beneath path,
// depth-first in document order. It never mutates its inputs.
func (sc *Schema) walk(value *yaml.Node, s *node, path string) []domain.ValidationErrorDetail {
	s = sc.deref(s)
	if s == nil {
		return nil
	}
	value = unalias(value)

	if s.Type != "" && !hasType(value, s.Type) {
		return []domain.ValidationErrorDetail{{
			Path:               path,
			Constraint:         domain.ConstraintTypeMismatch,
			ExpectedConstraint: "type " + s.Type,
			FoundValue:         render(value),
		}}
	}

	var errs []domain.ValidationErrorDetail
	errs = append(errs, checkEnum(value, s, path)...)
	errs = append(errs, checkConst(value, s, path)...)

	switch value.Kind {
	case yaml.ScalarNode:
		errs = append(errs, checkScalar(value, s, path)...)
	case yaml.MappingNode:
		errs = append(errs, sc.walkObject(value, s, path)...)
	case yaml.SequenceNode:
		errs = append(errs, sc.walkArray(value, s, path)...)
	}

	errs = append(errs, sc.checkOneOf(value, s, path)...)
	errs = append(errs, sc.checkAnyOf(value, s, path)...)
	return errs
}

func (sc *Schema) deref(s *node) *node {
	for depth := 0; s != nil && s.Ref != ""; depth++ {
		if depth > 32 {
			return nil
		}
		target, err := resolveRef(sc.root, s.Ref)
		if err != nil {
			return nil
		}
		s = target
	}
	return s
}

func (sc *Schema) walkObject(value *yaml.Node, s *node, path string) []domain.ValidationErrorDetail {
	var errs []domain.ValidationErrorDetail

	present := make(map[string]bool, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		present[value.Content[i].Value] = true
	}
	for _, name := range s.Required {
		if !present[name] {
			errs = append(errs, domain.ValidationErrorDetail{
				Path:               path + "/" + escapePointer(name),
				Constraint:         domain.ConstraintMissingProperty,
				ExpectedConstraint: fmt.Sprintf("required property %q", name),
				FoundValue:         domain.MissingValue,
			})
		}
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, child := value.Content[i].Value, value.Content[i+1]
		childPath := path + "/" + escapePointer(key)
		if sub, ok := s.Properties[key]; ok {
			errs = append(errs, sc.walk(child, sub, childPath)...)
			continue
		}
		if s.AdditionalProperties != nil && !*s.AdditionalProperties {
			errs = append(errs, domain.ValidationErrorDetail{
				Path:               childPath,
				Constraint:         domain.ConstraintAdditionalProperty,
				ExpectedConstraint: "no additional properties (allowed: " + strings.Join(sortedKeys(s.Properties), ", ") + ")",
				FoundValue:         strconv.Quote(key),
			})
		}
	}
	return errs
}

func (sc *Schema) walkArray(value *yaml.Node, s *node, path string) []domain.ValidationErrorDetail {
	var errs []domain.ValidationErrorDetail
	n := len(value.Content)
	if s.MinItems != nil && n < *s.MinItems {
		errs = append(errs, domain.ValidationErrorDetail{
			Path:               path,
			Constraint:         domain.ConstraintMinItems,
			ExpectedConstraint: fmt.Sprintf("at least %d items", *s.MinItems),
			FoundValue:         fmt.Sprintf("%d items", n),
		})
	}
	if s.MaxItems != nil && n > *s.MaxItems {
		errs = append(errs, domain.ValidationErrorDetail{
			Path:               path,
			Constraint:         domain.ConstraintMaxItems,
			ExpectedConstraint: fmt.Sprintf("at most %d items", *s.MaxItems),
			FoundValue:         fmt.Sprintf("%d items", n),
		})
	}
	if s.Items != nil {
		for i, item := range value.Content {
			errs = append(errs, sc.walk(item, s.Items, path+"/"+strconv.Itoa(i))...)
		}
	}
	return errs
}

func checkScalar(value *yaml.Node, s *node, path string) []domain.ValidationErrorDetail {
	var errs []domain.ValidationErrorDetail
	switch value.ShortTag() {
	case "!!str":
		length := utf8.RuneCountInString(value.Value)
		if s.MinLength != nil && length < *s.MinLength {
			errs = append(errs, domain.ValidationErrorDetail{
				Path:               path,
				Constraint:         domain.ConstraintMinLength,
				ExpectedConstraint: fmt.Sprintf("at least %d characters", *s.MinLength),
				FoundValue:         render(value),
			})
		}
		if s.MaxLength != nil && length > *s.MaxLength {
			errs = append(errs, domain.ValidationErrorDetail{
				Path:               path,
				Constraint:         domain.ConstraintMaxLength,
				ExpectedConstraint: fmt.Sprintf("at most %d characters", *s.MaxLength),
				FoundValue:         render(value),
			})
		}
		if s.pattern != nil && !s.pattern.MatchString(value.Value) {
			errs = append(errs, domain.ValidationErrorDetail{
				Path:               path,
				Constraint:         domain.ConstraintPatternMismatch,
				ExpectedConstraint: "string matching " + s.Pattern,
				FoundValue:         render(value),
			})
		}
	case "!!int", "!!float":
		num, ok := number(value)
		if !ok {
			break
		}
		if s.Minimum != nil && num < *s.Minimum {
			errs = append(errs, domain.ValidationErrorDetail{
				Path:               path,
				Constraint:         domain.ConstraintMinimumValue,
				ExpectedConstraint: ">= " + formatNumber(*s.Minimum),
				FoundValue:         render(value),
			})
		}
		if s.Maximum != nil && num > *s.Maximum {
			errs = append(errs, domain.ValidationErrorDetail{
				Path:               path,
				Constraint:         domain.ConstraintMaximumValue,
				ExpectedConstraint: "<= " + formatNumber(*s.Maximum),
				FoundValue:         render(value),
			})
		}
	}
	return errs
}

func checkEnum(value *yaml.Node, s *node, path string) []domain.ValidationErrorDetail {
	if len(s.Enum) == 0 {
		return nil
	}
	v := jsonValue(value)
	for _, allowed := range s.Enum {
		if reflect.DeepEqual(v, allowed) {
			return nil
		}
	}
	options := make([]string, len(s.Enum))
	for i, allowed := range s.Enum {
		options[i] = fmt.Sprintf("%v", allowed)
	}
	return []domain.ValidationErrorDetail{{
		Path:               path,
		Constraint:         domain.ConstraintEnumMismatch,
		ExpectedConstraint: "one of [" + strings.Join(options, ", ") + "]",
		FoundValue:         render(value),
	}}
}

func checkConst(value *yaml.Node, s *node, path string) []domain.ValidationErrorDetail {
	if len(s.Const) == 0 {
		return nil
	}
	if reflect.DeepEqual(jsonValue(value), s.constVal) {
		return nil
	}
	return []domain.ValidationErrorDetail{{
		Path:               path,
		Constraint:         domain.ConstraintConstMismatch,
		ExpectedConstraint: "constant " + string(s.Const),
		FoundValue:         render(value),
	}}
}

// checkOneOf reports a oneOf failure followed by the violations of every
// failing branch when no branch matches.
func (sc *Schema) checkOneOf(value *yaml.Node, s *node, path string) []domain.ValidationErrorDetail {
	if len(s.OneOf) == 0 {
		return nil
	}
	var branchErrs []domain.ValidationErrorDetail
	matched := 0
	for _, branch := range s.OneOf {
		errs := sc.walk(value, branch, path)
		if len(errs) == 0 {
			matched++
			continue
		}
		branchErrs = append(branchErrs, errs...)
	}
	if matched == 1 {
		return nil
	}
	head := domain.ValidationErrorDetail{
		Path:               path,
		Constraint:         domain.ConstraintOneOf,
		ExpectedConstraint: fmt.Sprintf("exactly one of %d alternatives", len(s.OneOf)),
		FoundValue:         fmt.Sprintf("%d matched", matched),
	}
	if matched > 1 {
		return []domain.ValidationErrorDetail{head}
	}
	return append([]domain.ValidationErrorDetail{head}, branchErrs...)
}

func (sc *Schema) checkAnyOf(value *yaml.Node, s *node, path string) []domain.ValidationErrorDetail {
	if len(s.AnyOf) == 0 {
		return nil
	}
	var branchErrs []domain.ValidationErrorDetail
	for _, branch := range s.AnyOf {
		errs := sc.walk(value, branch, path)
		if len(errs) == 0 {
			return nil
		}
		branchErrs = append(branchErrs, errs...)
	}
	head := domain.ValidationErrorDetail{
		Path:               path,
		Constraint:         domain.ConstraintAnyOf,
		ExpectedConstraint: fmt.Sprintf("at least one of %d alternatives", len(s.AnyOf)),
		FoundValue:         render(value),
	}
	return append([]domain.ValidationErrorDetail{head}, branchErrs...)
}

func unalias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}
	}
	return n
}

func hasType(n *yaml.Node, want string) bool {
	switch want {
	case "object":
		return n.Kind == yaml.MappingNode
	case "array":
		return n.Kind == yaml.SequenceNode
	}
	if n.Kind != yaml.ScalarNode {
		return false
	}
	tag := n.ShortTag()
	switch want {
	case "string":
		return tag == "!!str"
	case "boolean":
		return tag == "!!bool"
	case "null":
		return tag == "!!null"
	case "number":
		return tag == "!!int" || tag == "!!float"
	case "integer":
		if tag == "!!int" {
			return true
		}
		if tag == "!!float" {
			f, ok := number(n)
			return ok && f == math.Trunc(f) && !math.IsInf(f, 0)
		}
	}
	return false
}

func number(n *yaml.Node) (float64, bool) {
	var f float64
	if err := n.Decode(&f); err != nil {
		return 0, false
	}
	return f, true
}

// jsonValue converts a node to the value encoding/json would produce, so
// enum and const comparisons match the schema's own decoding.
func jsonValue(n *yaml.Node) any {
	n = unalias(n)
	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = jsonValue(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			items[i] = jsonValue(c)
		}
		return items
	}
	switch n.ShortTag() {
	case "!!int", "!!float":
		if f, ok := number(n); ok {
			return f
		}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!null":
		return nil
	}
	return n.Value
}

// render formats a found value: quoted literals for strings, bare literals
// for other scalars and a shape summary for collections.
func render(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "object"
	case yaml.SequenceNode:
		return fmt.Sprintf("array of %d items", len(n.Content))
	}
	switch n.ShortTag() {
	case "!!str":
		return strconv.Quote(n.Value)
	case "!!null":
		return "null"
	}
	return n.Value
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func escapePointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
