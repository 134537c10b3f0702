package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "recur", cmd.Use)
	assert.Contains(t, cmd.Long, "RFC 5545")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, cmdName := range []string{"expand", "check"} {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestExpandCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	expandCmd, _, err := cmd.Find([]string{"expand"})
	require.NoError(t, err)

	countFlag := expandCmd.Flags().Lookup("count")
	require.NotNil(t, countFlag)
	assert.Equal(t, "n", countFlag.Shorthand)
	assert.Equal(t, "0", countFlag.DefValue)

	for _, name := range []string{"ics", "after", "before", "tz"} {
		assert.NotNil(t, expandCmd.Flags().Lookup(name), "flag --%s", name)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "yaml", "check", "FREQ=DAILY"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestRootCommand_MissingConfig(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", "testdata/missing.yaml", "check", "FREQ=DAILY"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommand_VerboseLogsToStderr(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"-v", "check", `DTSTART:20240101T090000Z\nFREQ=DAILY`})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "rule set is valid")
	assert.NotContains(t, out.String(), "rule set is valid")
}
