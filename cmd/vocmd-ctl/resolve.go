package main

import (
	"github.com/spf13/cobra"

	"vocmd/internal/ipc"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <text>",
	Short: "Show the macro an utterance resolves to, without running it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := send(ipc.NewRequest(ipc.CmdResolve, joinArgs(args)))
		if err != nil {
			return err
		}
		return printReply(reply)
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the alias file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := send(ipc.NewRequest(ipc.CmdReload, ""))
		if err != nil {
			return err
		}
		return printReply(reply)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd, reloadCmd)
}
