package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/facegate/internal/config"
	"github.com/BrandonDHaskell/facegate/internal/logging"
	"github.com/BrandonDHaskell/facegate/internal/recognition"
)

var encodingsCmd = &cobra.Command{
	Use:   "encodings",
	Short: "Check the enrollment directory against the embedding server",
	Long: `Walk the enrollment directory (<faces-dir>/<name>/<image>), extract a
face from every image through the embedding server and report how many
identities would be loaded.  Images with no detectable face are listed
as skipped.  Nothing is written.`,
	RunE: runEncodings,
}

func init() {
	rootCmd.AddCommand(encodingsCmd)

	encodingsCmd.Flags().String("faces-dir", "", "Enrollment directory (overrides FACEGATE_FACES_DIR)")
}

func runEncodings(cmd *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if dir, _ := cmd.Flags().GetString("faces-dir"); dir != "" {
		cfg.FacesDir = dir
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	extractor := recognition.NewEmbeddingClient(cfg.EmbeddingURL, cfg.EmbeddingTimeout)
	encodings := recognition.NewEncodingStore(extractor, logger)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Extracting faces"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("images"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		}
		_ = bar.Set(done)
	}

	src := recognition.NewDirSource(cfg.FacesDir)
	src.Logger = logger
	rep, err := encodings.Load(cmd.Context(), src, recognition.WithProgress(progress))
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.FacesDir, err)
	}

	fmt.Printf("Identities: %d\n", rep.Identities)
	fmt.Printf("Images:     %d\n", rep.Images)
	fmt.Printf("Loaded:     %d\n", rep.Loaded)
	fmt.Printf("Skipped:    %d\n", rep.Skipped)
	return nil
}
