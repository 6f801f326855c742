package main

import (
	"fmt"
	"os"

	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/preview"
	"github.com/jonathan/signal-outreach/internal/server"
	"github.com/spf13/cobra"
)

var (
	previewOut      string
	previewWidth    int64
	previewHeight   int64
	previewFullPage bool
	previewChrome   string
)

var previewCmd = &cobra.Command{
	Use:   "preview <signal-id>",
	Short: "Screenshot a stored landing page in headless Chrome",
	Long:  `Preview renders the stored landing page of a signal and writes a PNG. Requires Chrome/Chromium to be installed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "", "Output image path (defaults to <signal-id>.png)")
	previewCmd.Flags().Int64Var(&previewWidth, "width", 1280, "Viewport width")
	previewCmd.Flags().Int64Var(&previewHeight, "height", 800, "Viewport height")
	previewCmd.Flags().BoolVar(&previewFullPage, "full-page", false, "Capture the full scrollable page")
	previewCmd.Flags().StringVar(&previewChrome, "chrome", "", "Path to the Chrome executable")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	stored, err := loadStored(ctx, a, args[0])
	if err != nil {
		return err
	}
	if !stored.HasLandingPage() {
		return &server.ErrNoLandingPage{ID: args[0]}
	}

	opts := preview.DefaultOptions()
	opts.Width = previewWidth
	opts.Height = previewHeight
	opts.FullPage = previewFullPage
	opts.ExecPath = previewChrome

	img, err := preview.NewRenderer(opts, a.log).Screenshot(ctx, stored.LandingPageHTML)
	if err != nil {
		return err
	}

	out := previewOut
	if out == "" {
		out = args[0] + ".png"
	}
	if err := os.WriteFile(out, img, 0o644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	a.log.Info("Preview written", logger.String("path", out), logger.Int("bytes", len(img)))
	fmt.Fprintln(cmd.OutOrStdout(), out) //nolint:errcheck
	return nil
}
