package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args and captures both streams.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errBuf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "autopar", cmd.Use)
	assert.Contains(t, cmd.Short, "parallelism")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"analyze", "report", "validate"}

	for _, cmdName := range commands {
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
	assert.Equal(t, "false", verboseFlag.DefValue)

	versionFlag := cmd.PersistentFlags().Lookup("version")
	require.NotNil(t, versionFlag)
	assert.Equal(t, "V", versionFlag.Shorthand)
}

func TestReportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	reportCmd, _, err := cmd.Find([]string{"report"})
	require.NoError(t, err)

	verbosityFlag := reportCmd.Flags().Lookup("verbosity")
	require.NotNil(t, verbosityFlag)
	assert.Equal(t, "v", verbosityFlag.Shorthand)
	assert.Equal(t, "2", verbosityFlag.DefValue)
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "autopar")
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitFailure, GetExitCode(WrapExitError(ExitFailure, "boom", nil)))
}

func TestExitErrorMessage(t *testing.T) {
	err := WrapExitError(ExitFailure, "reading profile", assert.AnError)
	assert.Contains(t, err.Error(), "reading profile")
	assert.ErrorIs(t, err, assert.AnError)

	bare := WrapExitError(ExitFailure, "", assert.AnError)
	assert.Equal(t, assert.AnError.Error(), bare.Error())
}
