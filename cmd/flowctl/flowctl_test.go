package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brokenTenant = `website:
  tenantCode: broken
flow:
  steps:
    - stepId: ask
      type: text
      isStart: true
      question: Hello?
      defaultNextStepId: ghost
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTenant(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidate_ExampleFlows(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join("..", "..", "flows"))
	require.NoError(t, err)
	assert.Contains(t, out, "acme: ok")
}

func TestValidate_ReportsIssues(t *testing.T) {
	out, err := execute(t, "validate", writeTenant(t, brokenTenant))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 flow(s) failed validation")
	assert.Contains(t, out, "broken:")
	assert.Contains(t, out, `defaultNextStepId "ghost" does not exist`)
	assert.Contains(t, out, "no step is marked isEnd")
}

func TestValidate_RequiresArgs(t *testing.T) {
	_, err := execute(t, "validate")
	assert.Error(t, err)
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "graph", filepath.Join("..", "..", "flows", "acme.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"), "unexpected output %q", out)
	assert.Contains(t, out, `-->|"Book a service"|`)
}

func TestGraph_DrawsDanglingReferences(t *testing.T) {
	out, err := execute(t, "graph", writeTenant(t, brokenTenant))
	require.NoError(t, err)
	assert.Contains(t, out, "missing: ghost")
}
