package platform

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenCommand(t *testing.T) {
	assert.Equal(t, `start "" "https://youtube.com"`, OpenCommand(Windows, "https://youtube.com"))
	assert.Equal(t, `open "/Users/me"`, OpenCommand(Darwin, "/Users/me"))
	assert.Equal(t, `xdg-open "/home/me/Downloads"`, OpenCommand("linux", "/home/me/Downloads"))
}

func TestTerminalAndBrowserCommands(t *testing.T) {
	assert.Equal(t, "start cmd", TerminalCommand(Windows))
	assert.Equal(t, "open -a Terminal", TerminalCommand(Darwin))
	assert.Contains(t, TerminalCommand("linux"), "gnome-terminal")

	assert.Equal(t, "start chrome", BrowserCommand(Windows))
	assert.Equal(t, `open -a "Google Chrome"`, BrowserCommand(Darwin))
	assert.Equal(t, "google-chrome || chromium", BrowserCommand("freebsd"))
}

func TestShellInvocationWindows(t *testing.T) {
	t.Setenv("COMSPEC", "")
	shell, args := ShellInvocation(Windows, "dir")
	assert.Equal(t, "cmd", shell)
	assert.Equal(t, []string{"/C", "dir"}, args)
}

func TestShellInvocationUsesShellEnvWhenValid(t *testing.T) {
	if runtime.GOOS == Windows {
		t.Skip("shell selection test is unix-specific")
	}

	t.Setenv("SHELL", "/bin/sh")
	shell, args := ShellInvocation("linux", "echo hi")
	assert.Equal(t, "/bin/sh", shell)
	assert.Equal(t, []string{"-lc", "echo hi"}, args)
}

func TestShellInvocationFallsBackWhenShellEnvInvalid(t *testing.T) {
	if runtime.GOOS == Windows {
		t.Skip("shell selection test is unix-specific")
	}

	t.Setenv("SHELL", filepath.Join(t.TempDir(), "missing-shell"))
	shell, _ := ShellInvocation("linux", "echo hi")
	assert.Equal(t, "sh", shell)
}
