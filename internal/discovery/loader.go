package discovery

import (
	"fmt"
	"strconv"

	"tcm/internal/domain"
)

// DocumentValidator validates a single document file.
type DocumentValidator interface {
	ValidateFile(path string) domain.FileValidation
}

// Loader turns a directory into a Catalog of validated documents.
type Loader struct {
	scanner   *Scanner
	validator DocumentValidator
}

// NewLoader creates a new Loader
func NewLoader(scanner *Scanner, validator DocumentValidator) *Loader {
	return &Loader{scanner: scanner, validator: validator}
}

// Catalog is the validation outcome of every document in a directory.
type Catalog struct {
	Root  string
	Files []domain.FileValidation
}

// Load scans root, validates every document, attaches inherited suite tags
// and rejects test-case ids already used by an earlier file.
func (l *Loader) Load(root string) (*Catalog, error) {
	paths, err := l.scanner.Scan(root)
	if err != nil {
		return nil, err
	}

	suites := NewSuiteTags(root)
	owners := make(map[string]string)
	catalog := &Catalog{Root: root, Files: make([]domain.FileValidation, 0, len(paths))}

	for _, path := range paths {
		fv := l.validator.ValidateFile(path)
		if fv.TestCase != nil {
			inherited, err := suites.For(path)
			if err != nil {
				return nil, err
			}
			fv.TestCase.InheritedTags = inherited

			if first, dup := owners[fv.TestCase.ID]; dup {
				fv = domain.FileValidation{
					Path: path,
					Status: domain.ValidationError{Errors: []domain.ValidationErrorDetail{{
						Path:               "/id",
						Constraint:         domain.ConstraintDuplicateID,
						ExpectedConstraint: "test case id unique across the directory",
						FoundValue:         fmt.Sprintf("%s (also in %s)", strconv.Quote(fv.TestCase.ID), first),
					}}},
				}
			} else {
				owners[fv.TestCase.ID] = path
			}
		}
		catalog.Files = append(catalog.Files, fv)
	}
	return catalog, nil
}

// LoadFile validates a single document outside any directory scan.
func (l *Loader) LoadFile(path string) domain.FileValidation {
	return l.validator.ValidateFile(path)
}

// Valid returns the test cases of every valid document, in path order.
func (c *Catalog) Valid() []*domain.TestCase {
	var out []*domain.TestCase
	for _, fv := range c.Files {
		if fv.TestCase != nil && fv.Status.Kind() == domain.StatusValid {
			out = append(out, fv.TestCase)
		}
	}
	return out
}

// Invalid returns every document that failed to parse or validate.
func (c *Catalog) Invalid() []domain.FileValidation {
	var out []domain.FileValidation
	for _, fv := range c.Files {
		if fv.Status.Kind() != domain.StatusValid {
			out = append(out, fv)
		}
	}
	return out
}

// Find returns the valid test case with the given id.
func (c *Catalog) Find(id string) (*domain.TestCase, bool) {
	for _, tc := range c.Valid() {
		if tc.ID == id {
			return tc, true
		}
	}
	return nil, false
}

// Counts returns the number of documents per status.
func (c *Catalog) Counts() map[domain.StatusKind]int {
	counts := make(map[domain.StatusKind]int, 3)
	for _, fv := range c.Files {
		counts[fv.Status.Kind()]++
	}
	return counts
}
