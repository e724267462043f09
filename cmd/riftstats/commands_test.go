package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	t.Parallel()

	rootCmd, cleanup := newRootCmd()
	defer cleanup()

	names := []string{}
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
		require.False(t, cmd.Flags().HasFlags(), "%s should take no flags", cmd.Name())
	}
	require.ElementsMatch(t, []string{"matches", "leaderboard", "run"}, names)
}

func TestRootCmdRequiresConfig(t *testing.T) {
	t.Setenv("RIFTSTATS_ENVIRONMENT", "")

	rootCmd, cleanup := newRootCmd()
	defer cleanup()

	rootCmd.SetArgs([]string{"matches"})
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)

	err := rootCmd.ExecuteContext(t.Context())
	require.Error(t, err)
}
