package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocmd/internal/macro"
)

func TestConfirmRequiresTerminal(t *testing.T) {
	ok, err := confirm(macro.New(macro.Shell("sudo reboot")), "privileged reboot", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.False(t, ok)
}

func TestApprovedRequestCarriesMacro(t *testing.T) {
	m := macro.New(macro.Shell("rm -rf /tmp/cache"))
	req := approvedRequest("clean tmp", m)
	assert.Equal(t, "run", req.Cmd)
	assert.Equal(t, "clean tmp", req.Text)
	assert.True(t, req.Confirmed)
	assert.Same(t, m, req.Approved)
	assert.NotEmpty(t, req.ID)
}

func TestJoinArgs(t *testing.T) {
	assert.Equal(t, "install requests", joinArgs([]string{"install", "requests"}))
	assert.Equal(t, "", joinArgs(nil))
}

func TestCommandTree(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"resolve", "run", "reload", "alias"})

	sub, _, err := rootCmd.Find([]string{"alias", "set"})
	require.NoError(t, err)
	assert.Equal(t, "set", sub.Name())
}
