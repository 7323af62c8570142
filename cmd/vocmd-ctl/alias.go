package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"vocmd/internal/ipc"
)

var aliasCmd = &cobra.Command{
	Use:   "alias",
	Short: "Manage phrase to command aliases",
}

var aliasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all aliases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := send(ipc.NewRequest(ipc.CmdAliases, ""))
		if err != nil {
			return err
		}

		phrases := make([]string, 0, len(reply.Aliases))
		for p := range reply.Aliases {
			phrases = append(phrases, p)
		}
		sort.Strings(phrases)

		for _, p := range phrases {
			fmt.Printf("%s\t%s\n", p, reply.Aliases[p])
		}
		return nil
	},
}

var aliasSetCmd = &cobra.Command{
	Use:   "set <phrase> <command>",
	Short: "Add or replace an alias",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := ipc.NewRequest(ipc.CmdAlias, args[0])
		req.Command = args[1]

		reply, err := send(req)
		if err != nil {
			return err
		}
		return printReply(reply)
	},
}

var aliasRmCmd = &cobra.Command{
	Use:   "rm <phrase>",
	Short: "Remove a custom alias",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := send(ipc.NewRequest(ipc.CmdUnalias, args[0]))
		if err != nil {
			return err
		}
		if reply.Status == ipc.StatusNoMatch {
			return fmt.Errorf("%s", reply.Message)
		}
		return printReply(reply)
	},
}

func init() {
	aliasCmd.AddCommand(aliasListCmd, aliasSetCmd, aliasRmCmd)
	rootCmd.AddCommand(aliasCmd)
}
