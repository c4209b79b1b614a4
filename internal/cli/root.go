// Package cli implements the wmctl commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/worldmodel"
	"github.com/hupe1980/worldmodel/blobstore"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for wmctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "wmctl",
		Short: "wmctl - world model tool",
		Long:  "Inspect world model snapshots and configuration.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "world model YAML config")

	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewSnapshotsCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// openStore returns a local store rooted at dir, or the store of the
// configured world model when dir is empty.
func openStore(ctx context.Context, opts *RootOptions, dir string) (blobstore.BlobStore, io.Closer, error) {
	if dir != "" {
		return blobstore.NewLocalStore(dir), nil, nil
	}
	if opts.Config == "" {
		return nil, nil, fmt.Errorf("either a directory argument or --config is required")
	}
	cfg, err := worldmodel.LoadConfig(opts.Config)
	if err != nil {
		return nil, nil, err
	}
	return cfg.OpenStore(ctx, cfg.ResourceController())
}

func verbosef(opts *RootOptions, w io.Writer, format string, args ...any) {
	if opts.Verbose {
		fmt.Fprintf(w, format+"\n", args...)
	}
}
