package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/hupe1980/worldmodel"
	"github.com/hupe1980/worldmodel/entity"
	"github.com/spf13/cobra"
)

// InspectResult is the JSON form of a snapshot summary.
type InspectResult struct {
	Name         string         `json:"name"`
	Created      time.Time      `json:"created"`
	Entities     int            `json:"entities"`
	Factors      int            `json:"factors"`
	LastEntityID uint64         `json:"last_entity_id"`
	LastFactorID uint64         `json:"last_factor_id"`
	ByKind       map[string]int `json:"by_kind"`
	SizeBytes    int64          `json:"size_bytes"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [dir]",
		Short: "Summarize the current snapshot",
		Long: `Decode the snapshot CURRENT points at and print its entity and factor
counts. Without a directory the store from --config is used.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runInspect(cmd, rootOpts, dir)
		},
	}
	return cmd
}

func runInspect(cmd *cobra.Command, opts *RootOptions, dir string) error {
	ctx := cmd.Context()
	store, closer, err := openStore(ctx, opts, dir)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	verbosef(opts, cmd.ErrOrStderr(), "reading %s", worldmodel.CurrentSnapshot)
	info, err := worldmodel.InspectSnapshot(ctx, store)
	if err != nil {
		return err
	}

	res := InspectResult{
		Name:         info.Name,
		Created:      info.Created.UTC(),
		Entities:     info.Entities,
		Factors:      info.Factors,
		LastEntityID: uint64(info.LastEntityID),
		LastFactorID: uint64(info.LastFactorID),
		ByKind:       make(map[string]int, len(info.ByKind)),
		SizeBytes:    info.Size,
	}
	for k, n := range info.ByKind {
		res.ByKind[k.String()] = n
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return writeInspectText(cmd.OutOrStdout(), res)
}

func writeInspectText(out io.Writer, res InspectResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "snapshot:\t%s\n", res.Name)
	fmt.Fprintf(tw, "created:\t%s\n", res.Created.Format(time.RFC3339))
	fmt.Fprintf(tw, "size:\t%d bytes\n", res.SizeBytes)
	fmt.Fprintf(tw, "entities:\t%d (last id %d)\n", res.Entities, res.LastEntityID)
	for _, k := range []entity.Kind{entity.KindPose, entity.KindCalibration, entity.KindKeyFrame} {
		if n, ok := res.ByKind[k.String()]; ok {
			fmt.Fprintf(tw, "  %s:\t%d\n", k, n)
		}
	}
	fmt.Fprintf(tw, "factors:\t%d (last id %d)\n", res.Factors, res.LastFactorID)
	return tw.Flush()
}

// NewSnapshotsCommand creates the snapshots command.
func NewSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "snapshots [dir]",
		Short:         "List stored snapshots",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			store, closer, err := openStore(cmd.Context(), rootOpts, dir)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}

			names, err := worldmodel.ListSnapshots(cmd.Context(), store)
			if err != nil {
				return err
			}
			slices.Sort(names)
			if rootOpts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(names)
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
