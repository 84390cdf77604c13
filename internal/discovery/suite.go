package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SuiteFileNames are the per-directory files whose tags every test case in
// that directory and below inherits.
var SuiteFileNames = []string{"suite.yaml", "suite.yml", "_suite.yaml", "_suite.yml"}

// Suite is the content of a suite file.
type Suite struct {
	Name string   `yaml:"name"`
	Tags []string `yaml:"tags"`
}

// IsSuiteFile reports whether name is a suite file.
func IsSuiteFile(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range SuiteFileNames {
		if lower == s {
			return true
		}
	}
	return false
}

// SuiteTags resolves inherited tags per directory, reading each suite file
// at most once.
type SuiteTags struct {
	root  string
	cache map[string][]string
}

// NewSuiteTags creates a resolver for documents under root.
func NewSuiteTags(root string) *SuiteTags {
	return &SuiteTags{root: filepath.Clean(root), cache: make(map[string][]string)}
}

// For returns the tags inherited by the document at path: the suite tags of
// every directory from root down to the document's own directory.
func (st *SuiteTags) For(path string) ([]string, error) {
	return st.dir(filepath.Dir(filepath.Clean(path)))
}

func (st *SuiteTags) dir(dir string) ([]string, error) {
	if tags, ok := st.cache[dir]; ok {
		return tags, nil
	}

	var inherited []string
	rel, err := filepath.Rel(st.root, dir)
	if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		parent, err := st.dir(filepath.Dir(dir))
		if err != nil {
			return nil, err
		}
		inherited = append(inherited, parent...)
	}

	own, err := readSuite(dir)
	if err != nil {
		return nil, err
	}
	if own != nil {
		inherited = append(inherited, own.Tags...)
	}

	st.cache[dir] = inherited
	return inherited, nil
}

func readSuite(dir string) (*Suite, error) {
	for _, name := range SuiteFileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read suite file %s: %w", path, err)
		}
		var s Suite
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse suite file %s: %w", path, err)
		}
		return &s, nil
	}
	return nil, nil
}
