package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kwdetect/internal/detector"
	"kwdetect/internal/store"
)

func newSnapshotsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshots",
		Aliases: []string{"snapshot"},
		Short:   "Inspect persisted histogram snapshots",
	}
	cmd.AddCommand(newSnapshotsListCommand(ctx))
	cmd.AddCommand(newSnapshotsShowCommand(ctx))
	cmd.AddCommand(newSnapshotsLatestCommand(ctx))
	cmd.AddCommand(newSnapshotsPruneCommand(ctx))
	return cmd
}

func parseOptionalFeature(name string) (*detector.Feature, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	feature, err := detector.ParseFeature(name)
	if err != nil {
		return nil, err
	}
	return &feature, nil
}

func newSnapshotsListCommand(ctx *commandContext) *cobra.Command {
	var (
		featureName string
		limit       int
		jsonOutput  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			feature, err := parseOptionalFeature(featureName)
			if err != nil {
				return err
			}
			st, err := ctx.openStore(false)
			if err != nil {
				return fmt.Errorf("open snapshot store: %w", err)
			}
			defer st.Close()

			snapshots, err := st.List(cmd.Context(), store.ListOptions{Feature: feature, Limit: limit})
			if err != nil {
				return err
			}
			if jsonOutput {
				if snapshots == nil {
					snapshots = []store.Snapshot{}
				}
				return writeJSON(cmd, snapshots)
			}
			writeSnapshotList(cmd.OutOrStdout(), snapshots)
			return nil
		},
	}
	cmd.Flags().StringVarP(&featureName, "feature", "f", "", "Only list snapshots of this feature")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum snapshots to list (0 lists all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func newSnapshotsShowCommand(ctx *commandContext) *cobra.Command {
	var (
		top        int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore(false)
			if err != nil {
				return fmt.Errorf("open snapshot store: %w", err)
			}
			defer st.Close()

			snap, err := st.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("snapshot %s not found", args[0])
			}
			if err != nil {
				return err
			}
			return renderSnapshot(cmd, ctx, snap, top, jsonOutput)
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 0, "Entries to show (0 shows all; default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func newSnapshotsLatestCommand(ctx *commandContext) *cobra.Command {
	var (
		top        int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "latest <feature>",
		Short: "Show the newest snapshot of a feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feature, err := detector.ParseFeature(args[0])
			if err != nil {
				return err
			}
			st, err := ctx.openStore(false)
			if err != nil {
				return fmt.Errorf("open snapshot store: %w", err)
			}
			defer st.Close()

			snap, err := st.Latest(cmd.Context(), feature)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no snapshots stored for %s", feature)
			}
			if err != nil {
				return err
			}
			return renderSnapshot(cmd, ctx, snap, top, jsonOutput)
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 0, "Entries to show (0 shows all; default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func renderSnapshot(cmd *cobra.Command, ctx *commandContext, snap store.Snapshot, top int, jsonOutput bool) error {
	if !cmd.Flags().Changed("top") {
		if cfg, err := ctx.ensureConfig(); err == nil {
			top = cfg.Report.Top
		}
	}
	if jsonOutput {
		snap.Entries = detector.Top(snap.Entries, top)
		return writeJSON(cmd, snap)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Snapshot %s taken %s\n", snap.ID, snap.TakenAt.Local().Format(time.DateTime))
	report := newHistogramReport(snap.Feature, snap.SearchesProcessed, snap.Entries, top)
	writeHistogram(out, report)
	return nil
}

func newSnapshotsPruneCommand(ctx *commandContext) *cobra.Command {
	var (
		featureName string
		keep        int
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old snapshots, keeping the newest per feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep <= 0 {
				return fmt.Errorf("--keep must be positive")
			}
			features := detector.Features()
			if feature, err := parseOptionalFeature(featureName); err != nil {
				return err
			} else if feature != nil {
				features = []detector.Feature{*feature}
			}

			st, err := ctx.openStore(true)
			if err != nil {
				return fmt.Errorf("open snapshot store: %w", err)
			}
			defer st.Close()

			var total int64
			for _, f := range features {
				removed, err := st.Prune(cmd.Context(), f, keep)
				if err != nil {
					return err
				}
				total += removed
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d snapshot(s)\n", total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&featureName, "feature", "f", "", "Only prune this feature")
	cmd.Flags().IntVarP(&keep, "keep", "k", 10, "Snapshots to keep per feature")
	return cmd
}
