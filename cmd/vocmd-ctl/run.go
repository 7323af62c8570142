package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vocmd/internal/ipc"
	"vocmd/internal/macro"
)

var assumeYes bool

var runCmd = &cobra.Command{
	Use:   "run <text>",
	Short: "Resolve an utterance and run the macro",
	Long: `Resolve an utterance and run the resulting macro on the daemon host.

Macros flagged as dangerous are shown first and run only after confirmation.

  vocmd-ctl run install requests
  vocmd-ctl run --yes "open terminal"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

func init() {
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Run macros that need confirmation without asking")
	rootCmd.AddCommand(runCmd)
}

func runCommand(cmd *cobra.Command, args []string) error {
	req := ipc.NewRequest(ipc.CmdRun, joinArgs(args))
	req.Confirmed = assumeYes

	reply, err := send(req)
	if err != nil {
		return err
	}
	if reply.Status != ipc.StatusConfirm {
		return printReply(reply)
	}

	ok, err := confirm(reply.Macro, reply.Message, term.IsTerminal(int(os.Stdin.Fd())))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Cancelled")
		return nil
	}

	req = approvedRequest(req.Text, reply.Macro)
	reply, err = send(req)
	if err != nil {
		return err
	}
	if reply.Status == ipc.StatusConfirm {
		fmt.Println("Not run: the macro changed after it was approved")
	}
	return printReply(reply)
}

// approvedRequest reruns text, bound to the macro the user agreed to.
func approvedRequest(text string, m *macro.Macro) ipc.Request {
	req := ipc.NewRequest(ipc.CmdRun, text)
	req.Confirmed = true
	req.Approved = m
	return req
}

func confirm(m *macro.Macro, reason string, interactive bool) (bool, error) {
	if !interactive {
		return false, errors.New("macro needs confirmation; rerun with --yes or from a terminal")
	}

	var commands []string
	if m != nil {
		commands = m.ShellCommands()
	}

	approved := false
	prompt := huh.NewConfirm().
		Title("Run this macro?").
		Description(fmt.Sprintf("%s\nrisk: %s", strings.Join(commands, "\n"), strings.TrimSpace(reason))).
		Affirmative("Run").
		Negative("Cancel").
		Value(&approved).
		WithTheme(huh.ThemeCharm())
	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return approved, nil
}
