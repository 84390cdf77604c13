package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcm/internal/domain"
)

func boolPtr(b bool) *bool { return &b }

func sampleCase() *domain.TestCase {
	return &domain.TestCase{
		ID: "4.2.1",
		TestSequences: []domain.TestSequence{
			{
				ID:   1,
				Name: "profile download",
				Steps: []domain.Step{
					{Step: 1, Description: "send", Command: "ssh", Expected: &domain.Expected{Result: "SW=0x9000", Output: "Success"}},
					{Step: 2, Description: "insert card", Command: "manual", Manual: true},
					{Step: 3, Description: "check", Command: "ssh", Expected: &domain.Expected{Success: boolPtr(true), Result: "SW=0x9000", Output: "done"}},
				},
			},
		},
	}
}

func TestVerifier_OutputMismatchOnFirstStep(t *testing.T) {
	logs := []domain.StepLog{
		{SequenceID: 1, Step: 1, Success: true, Result: "SW=0x9000", Output: "Failure"},
		{SequenceID: 1, Step: 3, Success: true, Result: "SW=0x9000", Output: "done"},
	}

	d := NewVerifier(Exact).Verify(sampleCase(), logs)
	require.NotNil(t, d)
	assert.Equal(t, 1, d.SequenceID)
	assert.Equal(t, 1, d.Step)
	assert.Equal(t, FieldOutput, d.Field)
	assert.Equal(t, "Success", d.Expected)
	assert.Equal(t, "Failure", d.Actual)
	assert.Equal(t, "output mismatch", d.Reason)
}

func TestVerifier_AllMatch(t *testing.T) {
	logs := []domain.StepLog{
		{SequenceID: 1, Step: 1, Success: true, Result: "SW=0x9000", Output: "Success\n"},
		{SequenceID: 1, Step: 3, Success: true, Result: "SW=0x9000", Output: "done"},
	}
	assert.Nil(t, NewVerifier(Exact).Verify(sampleCase(), logs))
	assert.Nil(t, Missing(sampleCase(), logs))
}

func TestVerifier_SuccessCheckedFirst(t *testing.T) {
	logs := []domain.StepLog{
		{SequenceID: 1, Step: 3, ExitCode: 2, Success: false, Result: "wrong", Output: "wrong"},
	}
	d := NewVerifier(Exact).Verify(sampleCase(), logs)
	require.NotNil(t, d)
	assert.Equal(t, 3, d.Step)
	assert.Equal(t, FieldSuccess, d.Field)
	assert.Equal(t, "true", d.Expected)
	assert.Equal(t, "false", d.Actual)
}

func TestVerifier_Strategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		expected string
		actual   string
		match    bool
	}{
		{"exact equal", Exact, "SW=0x9000", "SW=0x9000", true},
		{"exact differs", Exact, "SW=0x9000", "SW=0x9000 extra", false},
		{"contains", Contains, "0x9000", "SW=0x9000", true},
		{"contains missing", Contains, "0x6A88", "SW=0x9000", false},
		{"regex", Regex, `^SW=0x9[0-9]{3}$`, "SW=0x9000", true},
		{"regex no match", Regex, `^SW=0x6`, "SW=0x9000", false},
		{"invalid regex", Regex, `(`, "(", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(tt.strategy)
			st := domain.Step{Step: 1, Expected: &domain.Expected{Result: tt.expected, Output: ""}}
			d := v.CheckStep(st, domain.StepLog{SequenceID: 1, Step: 1, Success: true, Result: tt.actual})
			if tt.match {
				assert.Nil(t, d)
			} else {
				require.NotNil(t, d)
				assert.Equal(t, FieldResult, d.Field)
			}
		})
	}
}

func TestMissing(t *testing.T) {
	logs := []domain.StepLog{{SequenceID: 1, Step: 1}}
	d := Missing(sampleCase(), logs)
	require.NotNil(t, d)
	assert.Equal(t, 3, d.Step)
	assert.Equal(t, "step not executed", d.Reason)
}

func TestParseStrategy(t *testing.T) {
	for name, want := range map[string]Strategy{"": Exact, "exact": Exact, "Contains": Contains, "regex": Regex} {
		got, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStrategy("fuzzy")
	assert.Error(t, err)
}
