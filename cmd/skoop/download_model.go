package main

import (
	"fmt"
	"os"

	"github.com/knights-analytics/hugot"
	"github.com/spf13/cobra"
)

// defaultLocalModel is a small sentence-transformer with an ONNX export.
const defaultLocalModel = "sentence-transformers/all-MiniLM-L6-v2"

func downloadModelCmd() *cobra.Command {
	var (
		envFile string
		dest    string
		model   string
	)

	cmd := &cobra.Command{
		Use:   "download-model",
		Short: "Download the built-in embedding model",
		Long: `Download a sentence-transformer model from Hugging Face into the model
directory. It is used for embeddings when no EMBEDDING_ENDPOINT is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dest == "" {
				cfg, err := loadConfig(envFile)
				if err != nil {
					return err
				}
				dest = cfg.ModelDir()
			}
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("create model directory: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Downloading %s to %s...\n", model, dest)

			opts := hugot.NewDownloadOptions()
			opts.OnnxFilePath = "onnx/model.onnx"
			path, err := hugot.DownloadModel(model, dest, opts)
			if err != nil {
				return fmt.Errorf("download model: %w", err)
			}

			_, err = fmt.Fprintf(out, "Model downloaded to %s\n", path)
			return err
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&dest, "dest", "", "Destination directory (default: MODEL_DIR)")
	cmd.Flags().StringVar(&model, "model", defaultLocalModel, "Hugging Face model name")

	return cmd
}
