package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "opsctl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"login"}, {"logout"}, {"whoami"}, {"products"}, {"watch"}, {"dev-reset"},
		{"admin", "migrate"}, {"admin", "seed-superadmin"}, {"admin", "reset-password"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestWatchDefaultTables(t *testing.T) {
	cmd := NewRootCommand()
	watchCmd, _, err := cmd.Find([]string{"watch"})
	require.NoError(t, err)

	tables, err := watchCmd.Flags().GetStringSlice("table")
	require.NoError(t, err)
	assert.Equal(t, []string{"products", "stock_movements", "checklist_executions"}, tables)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "yaml", "dev-reset"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRealtimeEndpoint(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:3000", "ws://localhost:3000/realtime/v1"},
		{"https://api.example.com/", "wss://api.example.com/realtime/v1"},
		{"http://gateway/inventory", "ws://gateway/inventory/realtime/v1"},
	}
	for _, tt := range tests {
		got, err := realtimeEndpoint(tt.base)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := WrapExitError(ExitFailure, "sign in", errors.New("invalid credentials"))
	assert.Equal(t, "sign in: invalid credentials", wrapped.Error())
}

func TestOutputFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"n": 1}, nil))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	buf.Reset()
	err := f.Error(errors.New("boom"))
	assert.EqualError(t, err, "boom")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "boom", resp.Error)
}

func TestOutputFormatterVerbose(t *testing.T) {
	var out, diag bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &diag}
	f.VerboseLog("hidden")
	assert.Empty(t, diag.String())

	f.Verbose = true
	f.VerboseLog("shown %d", 1)
	assert.Equal(t, "shown 1\n", diag.String())
	assert.Empty(t, out.String())
}
