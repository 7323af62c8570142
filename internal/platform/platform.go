// Package platform formats OS specific command strings.
package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// Current is the GOOS of the running binary.
func Current() string { return runtime.GOOS }

// OpenCommand opens target (URL, file or folder) with the OS default handler.
func OpenCommand(goos, target string) string {
	switch goos {
	case Windows:
		return fmt.Sprintf(`start "" "%s"`, target)
	case Darwin:
		return fmt.Sprintf(`open "%s"`, target)
	default:
		return fmt.Sprintf(`xdg-open "%s"`, target)
	}
}

// TerminalCommand opens a new terminal window.
func TerminalCommand(goos string) string {
	switch goos {
	case Windows:
		return "start cmd"
	case Darwin:
		return "open -a Terminal"
	default:
		return "gnome-terminal -- bash -lc 'exec bash'"
	}
}

// BrowserCommand launches Chrome, or Chromium where Chrome is missing.
func BrowserCommand(goos string) string {
	switch goos {
	case Windows:
		return "start chrome"
	case Darwin:
		return `open -a "Google Chrome"`
	default:
		return "google-chrome || chromium"
	}
}

// ShellInvocation returns the program and arguments that run command through
// the user's shell.
func ShellInvocation(goos, command string) (string, []string) {
	if goos == Windows {
		comspec := strings.TrimSpace(os.Getenv("COMSPEC"))
		if comspec == "" {
			comspec = "cmd"
		}
		return comspec, []string{"/C", command}
	}

	shell := strings.TrimSpace(os.Getenv("SHELL"))
	if shell != "" {
		if filepath.IsAbs(shell) {
			if _, err := os.Stat(shell); err == nil {
				return shell, []string{"-lc", command}
			}
		} else if resolved, err := exec.LookPath(shell); err == nil {
			return resolved, []string{"-lc", command}
		}
	}
	return "sh", []string{"-lc", command}
}
