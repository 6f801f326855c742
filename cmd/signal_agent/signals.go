package main

import (
	"context"
	"fmt"

	"github.com/jonathan/signal-outreach/internal/observability"
	"github.com/jonathan/signal-outreach/internal/pipeline"
	"github.com/jonathan/signal-outreach/internal/server"
	"github.com/jonathan/signal-outreach/internal/types"
	"github.com/spf13/cobra"
)

var (
	listJSON   bool
	listStatus string
	showJSON   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored signals, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <signal-id>",
	Short: "Show one stored signal with its outreach",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate <signal-id>",
	Short: "Regenerate outreach and landing page from a stored signal",
	Long:  `Regenerate reruns the pipeline with the stored signal, entities and raw snapshot, replacing the record.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRegenerate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <signal-id>",
	Short: "Delete a stored signal and remove it from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print summaries as JSON")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only show generated or error records")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the full record as JSON")
	rootCmd.AddCommand(listCmd, showCmd, regenerateCmd, deleteCmd)
}

// filterByStatus keeps records whose status matches; empty keeps all
func filterByStatus(records []types.StoredSignal, status string) ([]types.StoredSignal, error) {
	switch types.Status(status) {
	case "":
		return records, nil
	case types.StatusGenerated, types.StatusError:
	default:
		return nil, fmt.Errorf("unknown status %q (want generated or error)", status)
	}

	out := make([]types.StoredSignal, 0, len(records))
	for _, r := range records {
		if r.Status == types.Status(status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.signals.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list signals: %w", err)
	}
	if records, err = filterByStatus(records, listStatus); err != nil {
		return err
	}

	if listJSON {
		summaries := make([]server.SignalSummary, 0, len(records))
		for _, r := range records {
			summaries = append(summaries, server.Summarize(r))
		}
		return writeJSON(cmd.OutOrStdout(), server.ListResponse{Signals: summaries, Count: len(summaries)})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSignalList(records)
	return nil
}

// loadStored fetches a record or reports it missing
func loadStored(ctx context.Context, a *app, id string) (types.StoredSignal, error) {
	entry, err := a.signals.Get(ctx, id)
	if err != nil {
		return types.StoredSignal{}, fmt.Errorf("failed to load signal %s: %w", id, err)
	}
	if !entry.Exists {
		return types.StoredSignal{}, &server.ErrSignalNotFound{ID: id}
	}
	return entry.Data, nil
}

func runShow(cmd *cobra.Command, args []string) error {
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
	if showJSON {
		return writeJSON(cmd.OutOrStdout(), stored)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintStoredSignal(&stored)
	return nil
}

func runRegenerate(cmd *cobra.Command, args []string) error {
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

	var onProgress pipeline.ProgressCallback
	if a.cfg.Verbose {
		onProgress = observability.NewPrinter(cmd.OutOrStdout()).PrintProgress
	}
	orch, err := a.buildPipeline(ctx, onProgress)
	if err != nil {
		return err
	}

	sig := stored.Signal
	result, err := orch.Run(ctx, pipeline.Input{Signal: &sig, Entities: stored.Entities, Raw: stored.RawSignal})
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	return reportResult(ctx, cmd.OutOrStdout(), a, result)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	deleted, err := a.signals.Delete(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to delete signal %s: %w", args[0], err)
	}
	if !deleted {
		return &server.ErrSignalNotFound{ID: args[0]}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0]) //nolint:errcheck
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
