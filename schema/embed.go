// Package schema provides the embedded JSON schema for test-case documents.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS

// TestCase is the name of the test-case schema inside FS.
const TestCase = "testcase.schema.json"
