// Command agentgraph runs the agent workflow service. It exposes the
// workflow either as an HTTP server with SSE step streaming (serve) or as
// an interactive terminal session (chat).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentgraph",
		Short: "Agent workflow orchestration service",
		Long: `agentgraph runs a tool-using research agent as a directed workflow:
a router decides between answering directly and dispatching tool calls,
tool results are summarized against the user's question, and every step
is checkpointed per conversation thread.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
