package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	configCmd, _, err := cmd.Find([]string{"config"})
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, sc := range configCmd.Commands() {
		names[sc.Name()] = true
	}
	assert.True(t, names["init"], "should have init command")
	assert.True(t, names["show"], "should have show command")
	assert.True(t, names["path"], "should have path command")
	assert.True(t, names["backup"], "should have backup command")
	assert.True(t, names["restore"], "should have restore command")
}

func TestConfigInitCmd_HasForceFlag(t *testing.T) {
	cmd := NewRootCmd()

	initCmd, _, err := cmd.Find([]string{"config", "init"})
	require.NoError(t, err)

	flag := initCmd.Flags().Lookup("force")
	assert.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestConfigShowCmd_HasFlags(t *testing.T) {
	cmd := NewRootCmd()

	showCmd, _, err := cmd.Find([]string{"config", "show"})
	require.NoError(t, err)

	jsonFlag := showCmd.Flags().Lookup("json")
	assert.NotNil(t, jsonFlag)
	assert.Equal(t, "false", jsonFlag.DefValue)

	sourceFlag := showCmd.Flags().Lookup("source")
	assert.NotNil(t, sourceFlag)
	assert.Equal(t, "merged", sourceFlag.DefValue)
}

func TestConfigPathCmd_OutputsPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "path"})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "yepmem")
	assert.Contains(t, output, "config.yaml")
}

func TestRunConfigInit_NewFile(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".config", "yepmem")
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "init"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "created")

	configPath := filepath.Join(configDir, "config.yaml")
	_, err := os.Stat(configPath)
	assert.NoError(t, err)
}

func TestRunConfigInit_AlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".config", "yepmem")
	require.NoError(t, os.MkdirAll(configDir, 0755))

	configPath := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("existing: config"), 0644))

	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "init"})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "already exists")
	assert.Contains(t, output, "--force")

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "existing: config", string(data))
}

func TestRunConfigBackup_NoConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "backup"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "nothing to back up")
}

func TestRunConfigBackupAndRestore_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "init"})
	require.NoError(t, cmd.Execute())

	configDir := filepath.Join(tmpDir, ".config", "yepmem")
	configPath := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("modified: true"), 0644))

	backupCmd := NewRootCmd()
	buf.Reset()
	backupCmd.SetOut(buf)
	backupCmd.SetErr(buf)
	backupCmd.SetArgs([]string{"config", "backup"})
	require.NoError(t, backupCmd.Execute())
	assert.Contains(t, buf.String(), "backed up user configuration to")

	require.NoError(t, os.WriteFile(configPath, []byte("corrupted: true"), 0644))

	restoreCmd := NewRootCmd()
	buf.Reset()
	restoreCmd.SetOut(buf)
	restoreCmd.SetErr(buf)
	restoreCmd.SetArgs([]string{"config", "restore", "--latest"})
	require.NoError(t, restoreCmd.Execute())
	assert.Contains(t, buf.String(), "restored user configuration from")

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "modified: true", string(data))
}

func TestRunConfigRestore_RequiresPathOrLatest(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "restore"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "specify a backup path or pass --latest")
}

func TestRunConfigShow_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "show", "--source=defaults"})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "defaults")
	assert.Contains(t, output, "embeddings")
}

func TestRunConfigShow_JSONOutput(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "show", "--source=defaults", "--json"})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "{")
	assert.Contains(t, output, "}")
}

func TestRunConfigShow_InvalidSource(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "show", "--source=invalid"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source")
}

func TestRunConfigShow_UserNotExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "show", "--source=user"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "no user configuration")
}
