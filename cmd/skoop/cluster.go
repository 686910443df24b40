package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/techvault/skoop/infrastructure/api/v1/dto"
	"github.com/techvault/skoop/internal/log"
)

func clusterCmd() *cobra.Command {
	var (
		envFile string
		user    string
	)

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Print suggested clusters for a user",
		Long: `Cluster a user's embedded resources, label each cluster and print the
result as the same JSON the clusters endpoint returns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("a user is required: pass --user or set %s", userEnv)
			}
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			slogger := log.NewLoggerWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel()).Slog()

			client, err := newClient(cfg, slogger)
			if err != nil {
				return fmt.Errorf("create skoop client: %w", err)
			}
			defer func() {
				if err := client.Close(); err != nil {
					slogger.Error("failed to close skoop client", slog.Any("error", err))
				}
			}()

			ctx := log.WithUserID(context.Background(), user)
			clusters, err := client.Clusters.Suggest(ctx, user)
			if err != nil {
				return fmt.Errorf("suggest clusters: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dto.NewClustersResponse(clusters))
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&user, "user", os.Getenv(userEnv), "User whose resources are clustered")

	return cmd
}
