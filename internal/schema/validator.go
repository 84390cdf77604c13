package schema

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"tcm/internal/domain"
)

// Validator classifies test-case documents as valid, unparsable or invalid.
type Validator struct {
	schema *Schema
}

// NewValidator returns a Validator backed by the embedded schema.
func NewValidator() (*Validator, error) {
	s, err := Embedded()
	if err != nil {
		return nil, err
	}
	return NewValidatorWithSchema(s), nil
}

// NewValidatorWithSchema returns a Validator backed by s.
func NewValidatorWithSchema(s *Schema) *Validator {
	return &Validator{schema: s}
}

// Validate parses data and checks it against the schema, then runs the
// semantic checks when the structure is sound.
func (v *Validator) Validate(data []byte) domain.FileValidationStatus {
	status, _ := v.Check(data)
	return status
}

// IsValid reports whether data is a valid test-case document.
func (v *Validator) IsValid(data []byte) bool {
	return v.Validate(data).Kind() == domain.StatusValid
}

// Check validates data and, when valid, returns the decoded test case.
func (v *Validator) Check(data []byte) (domain.FileValidationStatus, *domain.TestCase) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.ParseError{Message: err.Error()}, nil
	}

	root := documentRoot(&doc)
	errs := v.schema.walk(root, v.schema.root, "")
	if len(errs) > 0 {
		return domain.ValidationError{Errors: errs}, nil
	}

	var tc domain.TestCase
	if err := root.Decode(&tc); err != nil {
		return domain.ParseError{Message: err.Error()}, nil
	}
	if errs := semanticErrors(&tc); len(errs) > 0 {
		return domain.ValidationError{Errors: errs}, nil
	}
	return domain.Valid{}, &tc
}

// ValidateFile reads and validates the document at path.
func (v *Validator) ValidateFile(path string) domain.FileValidation {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.FileValidation{
			Path:   path,
			Status: domain.ParseError{Message: fmt.Sprintf("read %s: %v", path, err)},
		}
	}
	status, tc := v.Check(data)
	if tc != nil {
		tc.Path = path
	}
	return domain.FileValidation{Path: path, Status: status, TestCase: tc}
}

// documentRoot returns the top-level value of a parsed document. An empty
// document is treated as null.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	if doc.Kind == yaml.DocumentNode || doc.Kind == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}
	}
	return doc
}

// semanticErrors checks rules the schema cannot express: step numbers
// contiguous from 1 and unique sequence ids.
func semanticErrors(tc *domain.TestCase) []domain.ValidationErrorDetail {
	var errs []domain.ValidationErrorDetail
	seen := make(map[int]int, len(tc.TestSequences))
	for i, seq := range tc.TestSequences {
		seqPath := "/test_sequences/" + strconv.Itoa(i)
		if first, dup := seen[seq.ID]; dup {
			errs = append(errs, domain.ValidationErrorDetail{
				Path:               seqPath + "/id",
				Constraint:         domain.ConstraintDuplicateID,
				ExpectedConstraint: "sequence id unique within the test case",
				FoundValue:         fmt.Sprintf("%d (also at /test_sequences/%d)", seq.ID, first),
			})
		} else {
			seen[seq.ID] = i
		}
		for j, st := range seq.Steps {
			if st.Step != j+1 {
				errs = append(errs, domain.ValidationErrorDetail{
					Path:               seqPath + "/steps/" + strconv.Itoa(j) + "/step",
					Constraint:         domain.ConstraintStepSequence,
					ExpectedConstraint: fmt.Sprintf("step number %d (contiguous from 1)", j+1),
					FoundValue:         strconv.Itoa(st.Step),
				})
			}
		}
	}
	return errs
}

func sortedKeys(m map[string]*node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
