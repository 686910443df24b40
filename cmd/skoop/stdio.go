package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/techvault/skoop/internal/log"
	"github.com/techvault/skoop/internal/mcp"
)

// userEnv names the variable holding the default user for local commands.
const userEnv = "SKOOP_USER"

func stdioCmd() *cobra.Command {
	var (
		envFile string
		user    string
	)

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants list a user's suggested clusters and search their
saved resources. Every tool call acts as the user given by --user or the
SKOOP_USER environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile, user)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&user, "user", os.Getenv(userEnv), "User the MCP tools act as")

	return cmd
}

func runStdio(envFile, user string) error {
	if user == "" {
		return fmt.Errorf("a user is required: pass --user or set %s", userEnv)
	}

	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol.
	slogger := log.NewLoggerWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel()).Slog()

	slogger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", cfg.DataDir()),
		slog.String("user", user),
	)

	client, err := newClient(cfg, slogger)
	if err != nil {
		return fmt.Errorf("create skoop client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close skoop client", slog.Any("error", err))
		}
	}()

	client.Backfill.Start(context.Background())

	return mcp.NewServer(client.Clusters, client.Search, user, version, slogger).ServeStdio()
}
