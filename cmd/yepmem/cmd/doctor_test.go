package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_PassesInWritableProject(t *testing.T) {
	testDir := t.TempDir()
	createTestProject(t, testDir)
	chdirTemp(t, testDir)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"doctor"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "write permissions")
	assert.Contains(t, buf.String(), "engine")
}

func TestDoctorCmd_JSONOutput(t *testing.T) {
	testDir := t.TempDir()
	createTestProject(t, testDir)
	chdirTemp(t, testDir)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"doctor", "--json"})

	require.NoError(t, cmd.Execute())

	var results []checkResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	for _, r := range results {
		assert.Equal(t, statusPass, r.Status)
	}
}
