package main

import (
	"os"

	"devfestsched/mcpserver"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the schedule tools over MCP stdio",
	Long: `Runs a Model Context Protocol server on stdin/stdout exposing
list_events, get_schedule_text and get_schedule_raw. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry(cfg, logger)
		if err != nil {
			return err
		}
		return mcpserver.Serve(cmd.Context(), mcpserver.New(reg, logger), os.Stdin, os.Stdout, logger)
	},
}
