// Package schema validates test-case documents against the embedded JSON
// schema and reports every violation as a structured detail record.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "tcm/schema"
)

// ErrSchema marks an embedded or supplied schema that cannot be used.
var ErrSchema = errors.New("invalid schema")

// node is the subset of JSON schema keywords the walker understands.
type node struct {
	Ref                  string           `json:"$ref"`
	Type                 string           `json:"type"`
	Required             []string         `json:"required"`
	Properties           map[string]*node `json:"properties"`
	AdditionalProperties *bool            `json:"additionalProperties"`
	Items                *node            `json:"items"`
	Pattern              string           `json:"pattern"`
	Minimum              *float64         `json:"minimum"`
	Maximum              *float64         `json:"maximum"`
	MinLength            *int             `json:"minLength"`
	MaxLength            *int             `json:"maxLength"`
	MinItems             *int             `json:"minItems"`
	MaxItems             *int             `json:"maxItems"`
	Enum                 []any            `json:"enum"`
	Const                json.RawMessage  `json:"const"`
	OneOf                []*node          `json:"oneOf"`
	AnyOf                []*node          `json:"anyOf"`
	Defs                 map[string]*node `json:"$defs"`

	pattern  *regexp.Regexp
	constVal any
}

// Schema is a compiled test-case schema. It is immutable and safe for
// concurrent use.
type Schema struct {
	root     *node
	compiled *jsonschema.Schema
}

var (
	embedded     *Schema
	embeddedOnce sync.Once
	embeddedErr  error
)

// Embedded returns the schema shipped with the binary, compiling it once.
func Embedded() (*Schema, error) {
	embeddedOnce.Do(func() {
		data, err := schemafs.FS.ReadFile(schemafs.TestCase)
		if err != nil {
			embeddedErr = fmt.Errorf("read test case schema: %w", err)
			return
		}
		embedded, embeddedErr = Compile(schemafs.TestCase, data)
	})
	return embedded, embeddedErr
}

// Compile checks data as a JSON schema document and prepares it for walking.
// Any problem is reported wrapped in ErrSchema.
func Compile(name string, data []byte) (*Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unmarshal %s: %v", ErrSchema, name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("%w: add resource %s: %v", ErrSchema, name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s: %v", ErrSchema, name, err)
	}

	var root node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrSchema, name, err)
	}
	if err := prepare(&root, &root, map[*node]bool{}); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchema, name, err)
	}

	return &Schema{root: &root, compiled: compiled}, nil
}

// Conforms validates an already decoded JSON value with the reference
// implementation. The walker and this check must agree on validity.
func (s *Schema) Conforms(v any) error {
	return s.compiled.Validate(v)
}

// prepare resolves patterns and constants ahead of time so walking never
// fails on schema problems.
func prepare(root, n *node, seen map[*node]bool) error {
	if n == nil || seen[n] {
		return nil
	}
	seen[n] = true

	if n.Ref != "" {
		if _, err := resolveRef(root, n.Ref); err != nil {
			return err
		}
	}
	if n.Pattern != "" {
		re, err := regexp.Compile(n.Pattern)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", n.Pattern, err)
		}
		n.pattern = re
	}
	if len(n.Const) > 0 {
		if err := json.Unmarshal(n.Const, &n.constVal); err != nil {
			return fmt.Errorf("const: %w", err)
		}
	}

	children := make([]*node, 0, len(n.Properties)+len(n.Defs)+len(n.OneOf)+len(n.AnyOf)+1)
	for _, c := range n.Properties {
		children = append(children, c)
	}
	for _, c := range n.Defs {
		children = append(children, c)
	}
	children = append(children, n.OneOf...)
	children = append(children, n.AnyOf...)
	children = append(children, n.Items)
	for _, c := range children {
		if err := prepare(root, c, seen); err != nil {
			return err
		}
	}
	return nil
}

// resolveRef follows a local "#/$defs/name" reference.
func resolveRef(root *node, ref string) (*node, error) {
	const prefix = "#/$defs/"
	if !strings.HasPrefix(ref, prefix) {
		return nil, fmt.Errorf("unsupported $ref %q", ref)
	}
	target, ok := root.Defs[strings.TrimPrefix(ref, prefix)]
	if !ok {
		return nil, fmt.Errorf("unresolved $ref %q", ref)
	}
	return target, nil
}
