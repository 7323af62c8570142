package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vocmd/internal/ipc"
)

var (
	socketPath string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "vocmd-ctl",
	Short:         "Control the vocmd daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", ipc.DefaultSocketPath, "Daemon control socket")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Minute, "How long to wait for the daemon")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vocmd-ctl:", err)
		os.Exit(1)
	}
}

func send(req ipc.Request) (ipc.Reply, error) {
	reply, err := ipc.Send(socketPath, req, timeout)
	if err != nil {
		return ipc.Reply{}, fmt.Errorf("vocmd-daemon not running: %w", err)
	}
	if reply.Status == ipc.StatusError {
		return reply, fmt.Errorf("daemon: %s", reply.Message)
	}
	return reply, nil
}

func printReply(reply ipc.Reply) error {
	if reply.Message != "" {
		fmt.Println(reply.Message)
	}
	if reply.Macro == nil {
		return nil
	}

	data, err := json.MarshalIndent(reply.Macro, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
