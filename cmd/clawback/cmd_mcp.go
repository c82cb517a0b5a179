package main

import (
	"context"
	"fmt"

	"github.com/nvandessel/clawback/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the office to an AI agent over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout. The connected agent
plays the office's AI assistant: it works coworker requests with the office
tools and lets time pass with office_wait. Time never passes on its own.

Every tool call is appended to ~/.clawback/audit.jsonl with player text
reduced to presence markers.

Configure it in an MCP client:
  {"command": "clawback", "args": ["mcp", "--days", "1"]}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			maxWait, _ := cmd.Flags().GetInt("max-wait")
			noAudit, _ := cmd.Flags().GetBool("no-audit")

			ctx := context.Background()
			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			opts, err := rt.sessionOptions()
			if err != nil {
				return err
			}
			if err := applyShiftFlags(cmd, &opts); err != nil {
				return err
			}
			// The agent advances time; typing delays would only slow office_wait.
			opts.TypingDelayMin, opts.TypingDelayMax = 0, 0

			cfg := &mcp.Config{
				Name:    "clawback",
				Version: version,
				Session: opts,
				MaxWait: maxWait,
				Logger:  rt.logger,
			}
			if !noAudit {
				cfg.AuditDir = rt.dir
			}

			server, err := mcp.NewServer(cfg)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			rt.logger.Info("mcp server ready", "difficulty", opts.Difficulty, "journal", rt.journal.Path())
			return server.Run(ctx)
		},
	}

	addShiftFlags(cmd)
	cmd.Flags().Int("max-wait", mcp.DefaultMaxWait, "Largest tick count one office_wait call may advance")
	cmd.Flags().Bool("no-audit", false, "Do not write the tool call audit log")
	return cmd
}
