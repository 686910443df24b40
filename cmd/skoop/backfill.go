package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/techvault/skoop/application/service"
	"github.com/techvault/skoop/internal/log"
)

func backfillCmd() *cobra.Command {
	var (
		envFile string
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Embed and summarize resources that are missing them",
		Long: `Run one backfill pass: embed resources without a current embedding and
summarize resources without a summary. With --all, passes repeat until one
makes no progress.`,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			var total service.BackfillReport
			for {
				report, err := client.Backfill.RunOnce(context.Background())
				total.Embedded += report.Embedded
				total.Summarized += report.Summarized
				total.Failed += report.Failed
				if err != nil {
					return fmt.Errorf("backfill: %w", err)
				}
				if !all || report.Embedded+report.Summarized == 0 {
					break
				}
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "embedded: %d\nsummarized: %d\nfailed: %d\n",
				total.Embedded, total.Summarized, total.Failed)
			return err
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().BoolVar(&all, "all", false, "Repeat passes until nothing is left to do")

	return cmd
}
