package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/signal-outreach/internal/observability"
	"github.com/jonathan/signal-outreach/internal/pipeline"
	"github.com/jonathan/signal-outreach/internal/types"
	"github.com/spf13/cobra"
)

var (
	processSignalPath  string
	processWebhookPath string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the pipeline once for an inline signal or a webhook payload",
	Long: `Process reads either a signal file (--signal) or a webhook payload file (--webhook), generates
outreach and a landing page for every resolved signal and stores the results.

A signal file is either {"signal": {...}, "entities": [...]} or a bare signal object. Use "-" to read stdin.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processSignalPath, "signal", "s", "", "Path to an inline signal JSON file")
	processCmd.Flags().StringVarP(&processWebhookPath, "webhook", "w", "", "Path to a webhook payload JSON file")
	processCmd.MarkFlagsMutuallyExclusive("signal", "webhook")
	processCmd.MarkFlagsOneRequired("signal", "webhook")
	rootCmd.AddCommand(processCmd)
}

// signalFile is the on-disk form of an inline signal
type signalFile struct {
	Signal   *types.Signal   `json:"signal"`
	Entities types.Entities  `json:"entities,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// parseSignalFile accepts the wrapped form or a bare signal
func parseSignalFile(data []byte) (pipeline.Input, error) {
	var wrapped signalFile
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return pipeline.Input{}, fmt.Errorf("failed to parse signal JSON: %w", err)
	}

	sig := wrapped.Signal
	if sig == nil {
		var bare types.Signal
		if err := json.Unmarshal(data, &bare); err != nil {
			return pipeline.Input{}, fmt.Errorf("failed to parse signal JSON: %w", err)
		}
		sig = &bare
		wrapped.Raw = data
	}
	if strings.TrimSpace(sig.ID) == "" {
		return pipeline.Input{}, errors.New("signal id is required")
	}
	return pipeline.Input{Signal: sig, Entities: wrapped.Entities, Raw: wrapped.Raw}, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func runProcess(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	var in pipeline.Input
	if processSignalPath != "" {
		data, err := readInput(processSignalPath, cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read signal file: %w", err)
		}
		if in, err = parseSignalFile(data); err != nil {
			return err
		}
	} else {
		data, err := readInput(processWebhookPath, cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read webhook file: %w", err)
		}
		if !json.Valid(data) {
			return errors.New("webhook payload is not valid JSON")
		}
		in.Webhook = data
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	var onProgress pipeline.ProgressCallback
	if a.cfg.Verbose {
		onProgress = printer.PrintProgress
	}

	orch, err := a.buildPipeline(ctx, onProgress)
	if err != nil {
		return err
	}

	result, err := orch.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	return reportResult(ctx, cmd.OutOrStdout(), a, result)
}

// reportResult prints the result, and the stored record in verbose mode.
// A run with no generated signal is returned as an error for the exit code.
func reportResult(ctx context.Context, out io.Writer, a *app, result pipeline.Result) error {
	if a.cfg.Verbose {
		printer := observability.NewPrinter(out)
		printer.PrintResult(result)
		if result.SignalID != "" {
			if entry, err := a.signals.Get(ctx, result.SignalID); err == nil && entry.Exists {
				printer.PrintStoredSignal(&entry.Data)
			}
		}
	} else if err := writeJSON(out, result); err != nil {
		return err
	}

	if !result.Success {
		return errors.New(result.Message)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
