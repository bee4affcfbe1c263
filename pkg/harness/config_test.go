package harness

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/roprobe/pkg/features"
	"go.firedancer.io/roprobe/pkg/romodify"
)

const suiteYAML = `
scenarios:
  - name: modify
    description: direct write is rejected
    steps:
      - op: modify
        expect: write-protection
    final_byte: 0
  - name: faulty-host
    disable: [ReadonlyWriteGate, ReadonlyPostVerify]
    subject:
      data: [0, 7]
    steps:
      - data: [2]
        expect: success
      - op: verify-modified
        expect: success
    final_byte: 1
  - name: no-program
    omit_program_account: true
    subject:
      foreign_owner: true
    steps:
      - op: invoke-then-modify
        expect: runtime
`

func TestParseScenarios(t *testing.T) {
	scenarios, err := ParseScenarios([]byte(suiteYAML))
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	modify := scenarios[0]
	assert.Equal(t, "modify", modify.Name)
	assert.Equal(t, []byte{0}, modify.Subject.Data)
	assert.Equal(t, []Step{OpStep(romodify.Modify, OutcomeWriteProtection)}, modify.Steps)
	require.NotNil(t, modify.FinalByte)
	assert.Equal(t, byte(0), *modify.FinalByte)

	faulty := scenarios[1]
	assert.Equal(t, []features.FeatureGate{features.ReadonlyWriteGate, features.ReadonlyPostVerify}, faulty.Disable)
	assert.Equal(t, []byte{0, 7}, faulty.Subject.Data)
	assert.Equal(t, []byte{byte(romodify.ModifyInvoke)}, faulty.Steps[0].Data)
	assert.Equal(t, []byte{byte(romodify.VerifyModified)}, faulty.Steps[1].Data)

	noProgram := scenarios[2]
	assert.True(t, noProgram.OmitProgramAccount)
	assert.True(t, noProgram.Subject.ForeignOwner)
	assert.Nil(t, noProgram.FinalByte)
	assert.Equal(t, []byte{byte(romodify.InvokeModify)}, noProgram.Steps[0].Data)

	runner := newMemRunner()
	for _, sc := range scenarios {
		res := runner.Run(context.Background(), sc)
		assert.True(t, res.Passed(), sc.Name)
	}
}

func TestParseScenarios_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty": ``,
		"no scenarios": `scenarios: []`,
		"unknown field": `
scenarios:
  - name: a
    bogus: 1
    steps: [{op: modify, expect: success}]`,
		"duplicate names": `
scenarios:
  - name: a
    steps: [{op: modify, expect: success}]
  - name: a
    steps: [{op: modify, expect: success}]`,
		"unknown gate": `
scenarios:
  - name: a
    disable: [NoSuchGate]
    steps: [{op: modify, expect: success}]`,
		"unknown outcome": `
scenarios:
  - name: a
    steps: [{op: modify, expect: crash}]`,
		"missing expect": `
scenarios:
  - name: a
    steps: [{op: modify}]`,
		"op and data": `
scenarios:
  - name: a
    steps: [{op: modify, data: [1], expect: success}]`,
		"neither op nor data": `
scenarios:
  - name: a
    steps: [{expect: success}]`,
		"bad opcode": `
scenarios:
  - name: a
    steps: [{op: rewrite, expect: success}]`,
		"no steps": `
scenarios:
  - name: a`,
	}
	for name, doc := range cases {
		_, err := ParseScenarios([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(suiteYAML), 0o644))

	scenarios, err := LoadScenarioFile(path)
	require.NoError(t, err)
	assert.Len(t, scenarios, 3)

	_, err = LoadScenarioFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteScenarios_RoundTrip(t *testing.T) {
	defaults := DefaultScenarios()

	var buf bytes.Buffer
	require.NoError(t, WriteScenarios(&buf, defaults))
	assert.Contains(t, buf.String(), "op: invoke-modify")
	assert.Contains(t, buf.String(), "data: []")

	parsed, err := ParseScenarios(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, defaults, parsed)
}

func TestNewValidator_FeatureGateTag(t *testing.T) {
	var v *validator.Validate
	require.NotPanics(t, func() { v = newValidator() })

	assert.NoError(t, v.Var(features.ReadonlyWriteGate.Name, "feature_gate"))
	assert.Error(t, v.Var("NoSuchGate", "feature_gate"))
}
