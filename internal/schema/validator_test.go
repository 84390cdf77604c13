package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"tcm/internal/domain"
)

const validDoc = `requirement: XFoo
item: 1
tc: 4
id: '4.2.2.2.1'
description: Profile download over ES9+
tags: [smoke, es9]
general_initial_conditions:
  - eUICC:
      - "The profile PROFILE_OPERATIONAL1 is loaded"
initial_conditions:
  eUICC:
    - "The eUICC is in state idle"
test_sequences:
  - id: 1
    name: Nominal download
    description: Download and install
    steps:
      - step: 1
        description: Open session
        command: ssh
        expected:
          success: true
          result: SW=0x9000
          output: Success
      - step: 2
        manual: true
        description: Check the device screen
        command: observe
`

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func validationErrors(t *testing.T, status domain.FileValidationStatus) []domain.ValidationErrorDetail {
	t.Helper()
	ve, ok := status.(domain.ValidationError)
	require.Truef(t, ok, "expected ValidationError, got %s", status.Kind())
	return ve.Errors
}

func TestValidator_ValidDocument(t *testing.T) {
	v := newValidator(t)

	status, tc := v.Check([]byte(validDoc))
	require.Equal(t, domain.StatusValid, status.Kind())
	require.NotNil(t, tc)
	assert.Equal(t, "4.2.2.2.1", tc.ID)
	assert.Equal(t, "1", tc.Item)
	require.Len(t, tc.TestSequences, 1)
	require.Len(t, tc.TestSequences[0].Steps, 2)
	assert.Equal(t, "SW=0x9000", tc.TestSequences[0].Steps[0].Expected.Result)
	assert.True(t, tc.TestSequences[0].Steps[1].Manual)
	assert.True(t, v.IsValid([]byte(validDoc)))
}

func TestValidator_ParseError(t *testing.T) {
	v := newValidator(t)

	status := v.Validate([]byte("id: [unterminated\n  description: x"))
	require.Equal(t, domain.StatusParseError, status.Kind())
	pe := status.(domain.ParseError)
	assert.NotEmpty(t, pe.Message)
	assert.False(t, v.IsValid([]byte("id: [unterminated")))
}

func TestValidator_MissingTestSequences(t *testing.T) {
	v := newValidator(t)

	doc := "id: TC_001\ndescription: no sequences\n"
	errs := validationErrors(t, v.Validate([]byte(doc)))
	require.Len(t, errs, 1)
	assert.Equal(t, "/test_sequences", errs[0].Path)
	assert.Equal(t, domain.ConstraintMissingProperty, errs[0].Constraint)
	assert.Equal(t, domain.MissingValue, errs[0].FoundValue)
}

func TestValidator_SingleMissingProperty(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name     string
		old, new string
		path     string
	}{
		{name: "top-level description", old: "description: Profile download over ES9+\n", path: "/description"},
		{name: "sequence name", old: "    name: Nominal download\n", path: "/test_sequences/0/name"},
		{name: "expected output", old: "          output: Success\n", path: "/test_sequences/0/steps/0/expected/output"},
		{name: "step command", old: "        command: observe\n", path: "/test_sequences/0/steps/1/command"},
		{
			name: "initial conditions list",
			old:  "\ninitial_conditions:\n  eUICC:\n    - \"The eUICC is in state idle\"\n",
			new:  "\ninitial_conditions: {}\n",
			path: "/initial_conditions/eUICC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(validDoc, tt.old, tt.new, 1)
			require.NotEqual(t, validDoc, doc)

			errs := validationErrors(t, v.Validate([]byte(doc)))
			require.Len(t, errs, 1, "%+v", errs)
			assert.Equal(t, domain.ConstraintMissingProperty, errs[0].Constraint)
			assert.Equal(t, tt.path, errs[0].Path)
		})
	}
}

func TestValidator_BadIdentifier(t *testing.T) {
	v := newValidator(t)

	for _, id := range []string{"'has space'", "'semi;colon'", "'slash/inside'", "'ümlaut'"} {
		t.Run(id, func(t *testing.T) {
			doc := strings.Replace(validDoc, "id: '4.2.2.2.1'", "id: "+id, 1)
			errs := validationErrors(t, v.Validate([]byte(doc)))
			require.Len(t, errs, 1)
			assert.Equal(t, domain.ConstraintPatternMismatch, errs[0].Constraint)
			assert.Equal(t, "/id", errs[0].Path)
		})
	}
}

func TestValidator_Constraints(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name       string
		old, new   string
		path       string
		constraint domain.Constraint
		found      string
	}{
		{
			name: "type mismatch", old: "tc: 4", new: "tc: four",
			path: "/tc", constraint: domain.ConstraintTypeMismatch, found: `"four"`,
		},
		{
			name: "minimum", old: "  - id: 1\n", new: "  - id: 0\n",
			path: "/test_sequences/0/id", constraint: domain.ConstraintMinimumValue, found: "0",
		},
		{
			name: "maximum", old: "      - step: 2\n", new: "      - step: 10000\n",
			path: "/test_sequences/0/steps/1/step", constraint: domain.ConstraintMaximumValue, found: "10000",
		},
		{
			name: "min length", old: "    name: Nominal download", new: "    name: ''",
			path: "/test_sequences/0/name", constraint: domain.ConstraintMinLength, found: `""`,
		},
		{
			name: "additional property", old: "tc: 4\n", new: "tc: 4\nowner: me\n",
			path: "/owner", constraint: domain.ConstraintAdditionalProperty, found: `"owner"`,
		},
		{
			name: "tag pattern", old: "tags: [smoke, es9]", new: "tags: [smoke, 'es 9']",
			path: "/tags/1", constraint: domain.ConstraintPatternMismatch, found: `"es 9"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(validDoc, tt.old, tt.new, 1)
			require.NotEqual(t, validDoc, doc)
			errs := validationErrors(t, v.Validate([]byte(doc)))
			require.Len(t, errs, 1, "%+v", errs)
			assert.Equal(t, tt.path, errs[0].Path)
			assert.Equal(t, tt.constraint, errs[0].Constraint)
			assert.Equal(t, tt.found, errs[0].FoundValue)
			assert.NotEmpty(t, errs[0].ExpectedConstraint)
		})
	}
}

func TestValidator_EmptySequenceList(t *testing.T) {
	v := newValidator(t)

	doc := "id: TC_1\ndescription: d\ntest_sequences: []\n"
	errs := validationErrors(t, v.Validate([]byte(doc)))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.ConstraintMinItems, errs[0].Constraint)
	assert.Equal(t, "/test_sequences", errs[0].Path)
	assert.Equal(t, "0 items", errs[0].FoundValue)
}

func TestValidator_OneOfReportsEveryBranch(t *testing.T) {
	v := newValidator(t)

	doc := `id: TC_1
description: d
test_sequences:
  - id: 1
    name: s
    steps:
      - step: 1
        description: no expectation
        command: ssh
`
	errs := validationErrors(t, v.Validate([]byte(doc)))
	require.Len(t, errs, 3, "%+v", errs)
	assert.Equal(t, domain.ConstraintOneOf, errs[0].Constraint)
	assert.Equal(t, "/test_sequences/0/steps/0", errs[0].Path)
	assert.Equal(t, "0 matched", errs[0].FoundValue)
	assert.Equal(t, "/test_sequences/0/steps/0/manual", errs[1].Path)
	assert.Equal(t, domain.ConstraintMissingProperty, errs[1].Constraint)
	assert.Equal(t, "/test_sequences/0/steps/0/expected", errs[2].Path)
	assert.Equal(t, domain.ConstraintMissingProperty, errs[2].Constraint)
}

func TestValidator_AnyOf(t *testing.T) {
	v := newValidator(t)

	doc := strings.Replace(validDoc, "item: 1", "item: 'four'", 1)
	errs := validationErrors(t, v.Validate([]byte(doc)))
	require.Len(t, errs, 3, "%+v", errs)
	assert.Equal(t, domain.ConstraintAnyOf, errs[0].Constraint)
	assert.Equal(t, "/item", errs[0].Path)
	assert.Equal(t, domain.ConstraintTypeMismatch, errs[1].Constraint)
	assert.Equal(t, domain.ConstraintPatternMismatch, errs[2].Constraint)

	dotted := strings.Replace(validDoc, "item: 1", "item: '4.2.1'", 1)
	assert.True(t, v.IsValid([]byte(dotted)))
}

func TestValidator_ConstMismatchInsideBranch(t *testing.T) {
	v := newValidator(t)

	doc := strings.Replace(validDoc, "        manual: true\n", "        manual: false\n", 1)
	errs := validationErrors(t, v.Validate([]byte(doc)))
	require.Len(t, errs, 3, "%+v", errs)
	assert.Equal(t, domain.ConstraintOneOf, errs[0].Constraint)
	assert.Equal(t, domain.ConstraintConstMismatch, errs[1].Constraint)
	assert.Equal(t, "/test_sequences/0/steps/1/manual", errs[1].Path)
	assert.Equal(t, "false", errs[1].FoundValue)
	assert.Equal(t, domain.ConstraintMissingProperty, errs[2].Constraint)
	assert.Equal(t, "/test_sequences/0/steps/1/expected", errs[2].Path)
}

func TestValidator_CollectsAllErrorsInDocumentOrder(t *testing.T) {
	v := newValidator(t)

	doc := `id: 'bad id'
description: ''
tc: 0
test_sequences:
  - id: 1
    name: s
    steps:
      - step: 1
        description: d
        command: ssh
        expected: {result: r}
`
	errs := validationErrors(t, v.Validate([]byte(doc)))
	paths := make([]string, len(errs))
	for i, e := range errs {
		paths[i] = e.Path
	}
	assert.Equal(t, []string{
		"/id",
		"/description",
		"/tc",
		"/test_sequences/0/steps/0/expected/output",
	}, paths)
}

func TestValidator_Idempotent(t *testing.T) {
	v := newValidator(t)

	doc := []byte("id: 'x y'\ndescription: 3\nextra: true\ntest_sequences: {}\n")
	first := v.Validate(doc)
	second := v.Validate(doc)
	assert.Equal(t, first, second)
	assert.Len(t, validationErrors(t, first), 4)
}

func TestValidator_StepSequence(t *testing.T) {
	v := newValidator(t)

	doc := strings.Replace(validDoc, "      - step: 2\n", "      - step: 3\n", 1)
	errs := validationErrors(t, v.Validate([]byte(doc)))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.ConstraintStepSequence, errs[0].Constraint)
	assert.Equal(t, "/test_sequences/0/steps/1/step", errs[0].Path)
	assert.Equal(t, "3", errs[0].FoundValue)
}

func TestValidator_DuplicateSequenceID(t *testing.T) {
	v := newValidator(t)

	doc := validDoc + `  - id: 1
    name: again
    steps:
      - step: 1
        description: d
        command: ssh
        expected: {result: a, output: b}
`
	errs := validationErrors(t, v.Validate([]byte(doc)))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.ConstraintDuplicateID, errs[0].Constraint)
	assert.Equal(t, "/test_sequences/1/id", errs[0].Path)
}

func TestValidator_EmptyDocument(t *testing.T) {
	v := newValidator(t)

	errs := validationErrors(t, v.Validate(nil))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.ConstraintTypeMismatch, errs[0].Constraint)
	assert.Equal(t, "", errs[0].Path)
	assert.Equal(t, "null", errs[0].FoundValue)
}

func TestValidator_ValidateFile(t *testing.T) {
	v := newValidator(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "tc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0644))

	fv := v.ValidateFile(path)
	assert.Equal(t, domain.StatusValid, fv.Status.Kind())
	require.NotNil(t, fv.TestCase)
	assert.Equal(t, path, fv.TestCase.Path)

	missing := v.ValidateFile(filepath.Join(dir, "absent.yaml"))
	assert.Equal(t, domain.StatusParseError, missing.Status.Kind())
	assert.Nil(t, missing.TestCase)
}

// The walker and the reference validator must agree on validity.
func TestValidator_AgreesWithReferenceImplementation(t *testing.T) {
	v := newValidator(t)

	docs := map[string]string{
		"valid":            validDoc,
		"missing seqs":     "id: TC_001\ndescription: d\n",
		"bad id":           strings.Replace(validDoc, "id: '4.2.2.2.1'", "id: 'a b'", 1),
		"extra":            validDoc + "owner: me\n",
		"no expectation":   strings.Replace(validDoc, "        manual: true\n", "", 1),
		"dotted item":      strings.Replace(validDoc, "item: 1", "item: '4.2'", 1),
		"bad dotted item":  strings.Replace(validDoc, "item: 1", "item: '4..2'", 1),
		"float step":       strings.Replace(validDoc, "      - step: 1\n", "      - step: 1.5\n", 1),
		"zero tc":          strings.Replace(validDoc, "tc: 4", "tc: 0", 1),
		"string as object": "id: x\ndescription: d\ntest_sequences: [1]\n",
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			var generic any
			require.NoError(t, yaml.Unmarshal([]byte(doc), &generic))
			raw, err := json.Marshal(generic)
			require.NoError(t, err)
			var value any
			require.NoError(t, json.Unmarshal(raw, &value))

			refErr := v.schema.Conforms(value)
			var walkErrs []domain.ValidationErrorDetail
			var node yaml.Node
			require.NoError(t, yaml.Unmarshal([]byte(doc), &node))
			walkErrs = v.schema.walk(documentRoot(&node), v.schema.root, "")

			assert.Equal(t, refErr == nil, len(walkErrs) == 0, "reference: %v, walker: %+v", refErr, walkErrs)
		})
	}
}

func TestCompile_RejectsBrokenSchema(t *testing.T) {
	_, err := Compile("broken.schema.json", []byte(`{"type": 12}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = Compile("bad-ref.schema.json", []byte(`{"properties": {"a": {"$ref": "#/$defs/nope"}}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = Compile("not-json.schema.json", []byte(`{`))
	assert.ErrorIs(t, err, ErrSchema)
}
