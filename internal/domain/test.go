package domain

// TestCase is one conformance test document: an identified, described set of
// command sequences with expected responses.
type TestCase struct {
	Requirement              string             `yaml:"requirement,omitempty" json:"requirement,omitempty"`
	Item                     string             `yaml:"item,omitempty" json:"item,omitempty"`
	TC                       int                `yaml:"tc,omitempty" json:"tc,omitempty"`
	ID                       string             `yaml:"id" json:"id"`
	Description              string             `yaml:"description" json:"description"`
	Tags                     []string           `yaml:"tags,omitempty" json:"tags,omitempty"`
	GeneralInitialConditions []InitialCondition `yaml:"general_initial_conditions,omitempty" json:"general_initial_conditions,omitempty"`
	InitialConditions        *InitialCondition  `yaml:"initial_conditions,omitempty" json:"initial_conditions,omitempty"`
	TestSequences            []TestSequence     `yaml:"test_sequences" json:"test_sequences"`

	// Path is the file the test case was loaded from.
	Path string `yaml:"-" json:"-"`
	// InheritedTags are declared by an enclosing suite file.
	InheritedTags []string `yaml:"-" json:"-"`
}

// InitialCondition lists the preconditions of the card under test.
type InitialCondition struct {
	EUICC []string `yaml:"eUICC" json:"eUICC"`
}

// TestSequence is an ordered group of steps
type TestSequence struct {
	ID                int                `yaml:"id" json:"id"`
	Name              string             `yaml:"name" json:"name"`
	Description       string             `yaml:"description,omitempty" json:"description,omitempty"`
	Tags              []string           `yaml:"tags,omitempty" json:"tags,omitempty"`
	InitialConditions []InitialCondition `yaml:"initial_conditions,omitempty" json:"initial_conditions,omitempty"`
	Steps             []Step             `yaml:"steps" json:"steps"`
}

// Step is one command execution with its expected response
type Step struct {
	Step        int       `yaml:"step" json:"step"`
	Manual      bool      `yaml:"manual,omitempty" json:"manual,omitempty"`
	Description string    `yaml:"description" json:"description"`
	Command     string    `yaml:"command" json:"command"`
	Expected    *Expected `yaml:"expected,omitempty" json:"expected,omitempty"`
}

// Expected is the response a step must produce.
type Expected struct {
	Success *bool  `yaml:"success,omitempty" json:"success,omitempty"`
	Result  string `yaml:"result" json:"result"`
	Output  string `yaml:"output" json:"output"`
}

// StepCount returns the number of steps across all sequences.
func (tc *TestCase) StepCount() int {
	n := 0
	for _, seq := range tc.TestSequences {
		n += len(seq.Steps)
	}
	return n
}

// HasManualSteps reports whether any step must be performed by hand.
func (tc *TestCase) HasManualSteps() bool {
	for _, seq := range tc.TestSequences {
		for _, st := range seq.Steps {
			if st.Manual {
				return true
			}
		}
	}
	return false
}

// HasInitialConditions reports whether the test case declares any precondition.
func (tc *TestCase) HasInitialConditions() bool {
	if len(tc.GeneralInitialConditions) > 0 {
		return true
	}
	return tc.InitialConditions != nil && len(tc.InitialConditions.EUICC) > 0
}
