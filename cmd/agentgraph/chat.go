package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
)

func newChatCmd() *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run an interactive terminal session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApplication(cfgFile)
			if err != nil {
				return err
			}
			defer app.Close()

			if threadID == "" {
				threadID = uuid.NewString()
			}
			fmt.Printf("thread %s (ctrl-d to exit)\n", threadID)

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}

				steps, err := app.graph.TurnSync(cmd.Context(), threadID, input)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				printSteps(steps)
			}
		},
	}

	cmd.Flags().StringVar(&threadID, "thread", "", "conversation thread id (random if empty)")
	return cmd
}

func printSteps(steps []graph.Step) {
	for _, step := range steps {
		for _, msg := range step.Messages {
			switch {
			case msg.HasToolCalls():
				for _, call := range msg.ToolCalls {
					fmt.Printf("  [tool call] %s(%v)\n", call.Name, call.Arguments)
				}
			case msg.Role == core.RoleTool:
				fmt.Printf("  [%s] %s\n", msg.ToolName, truncate(msg.Content, 200))
			case msg.Role == core.RoleAI:
				fmt.Println(msg.Content)
			}
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
