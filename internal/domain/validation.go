package domain

// Constraint names the schema rule a document violated.
type Constraint string

const (
	ConstraintTypeMismatch       Constraint = "type_mismatch"
	ConstraintMissingProperty    Constraint = "missing_property"
	ConstraintPatternMismatch    Constraint = "pattern_mismatch"
	ConstraintMinimumValue       Constraint = "minimum_value"
	ConstraintMaximumValue       Constraint = "maximum_value"
	ConstraintOneOf              Constraint = "oneOf_validation"
	ConstraintAnyOf              Constraint = "anyOf_validation"
	ConstraintEnumMismatch       Constraint = "enum_mismatch"
	ConstraintConstMismatch      Constraint = "const_mismatch"
	ConstraintMinLength          Constraint = "min_length"
	ConstraintMaxLength          Constraint = "max_length"
	ConstraintMinItems           Constraint = "min_items"
	ConstraintMaxItems           Constraint = "max_items"
	ConstraintAdditionalProperty Constraint = "additional_property"
	ConstraintStepSequence       Constraint = "step_sequence"
	ConstraintDuplicateID        Constraint = "duplicate_id"
)

// MissingValue is the found value reported for absent properties.
const MissingValue = "<missing>"

// ValidationErrorDetail describes one schema violation.
type ValidationErrorDetail struct {
	Path               string     `json:"path"`
	Constraint         Constraint `json:"constraint"`
	ExpectedConstraint string     `json:"expected_constraint"`
	FoundValue         string     `json:"found_value"`
}

// StatusKind enumerates the FileValidationStatus variants.
type StatusKind int

const (
	StatusValid StatusKind = iota
	StatusParseError
	StatusValidationError
)

func (k StatusKind) String() string {
	switch k {
	case StatusValid:
		return "valid"
	case StatusParseError:
		return "parse_error"
	case StatusValidationError:
		return "validation_error"
	default:
		return "unknown"
	}
}

// FileValidationStatus is one of Valid, ParseError or ValidationError.
// The set is closed: only this package can add variants.
type FileValidationStatus interface {
	Kind() StatusKind
	sealed()
}

// Valid marks a document that passed every check.
type Valid struct{}

// ParseError marks a document whose syntax could not be parsed.
type ParseError struct {
	Message string `json:"message"`
}

// ValidationError carries every violation found in a parsed document.
type ValidationError struct {
	Errors []ValidationErrorDetail `json:"errors"`
}

func (Valid) Kind() StatusKind           { return StatusValid }
func (ParseError) Kind() StatusKind      { return StatusParseError }
func (ValidationError) Kind() StatusKind { return StatusValidationError }

func (Valid) sealed()           {}
func (ParseError) sealed()      {}
func (ValidationError) sealed() {}

// FileValidation pairs a document path with its status. TestCase is set only
// when the status is Valid.
type FileValidation struct {
	Path     string
	Status   FileValidationStatus
	TestCase *TestCase
}
