package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scentadmin/internal/batch"
	"github.com/JonMunkholm/scentadmin/internal/core"
)

type exportOptions struct {
	Batches []int
	Out     string
	Dir     string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export <entity> [--batches 1,3] [--out file|-]",
		Short: "Export an entity to CSV, all batches or the selected ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := root.setup(cmd, true)
			if err != nil {
				return err
			}
			entity := args[0]
			stderr := cmd.ErrOrStderr()

			onProgress := func(p batch.Progress) {
				fmt.Fprintf(stderr, "\rfetched batch %d/%d (%d%%)", p.Current, p.Total, p.Percent())
				if p.Done() {
					fmt.Fprintln(stderr)
				}
			}

			var dl *core.Download
			if len(opts.Batches) > 0 {
				dl, err = rt.service.ExportSelected(cmd.Context(), entity, opts.Batches, onProgress)
			} else {
				dl, err = rt.service.ExportAll(cmd.Context(), entity, onProgress)
			}
			if err != nil {
				return err
			}

			if opts.Out == "-" {
				_, err := cmd.OutOrStdout().Write(dl.Content)
				return err
			}

			path := opts.Out
			if path == "" {
				path = filepath.Join(opts.Dir, dl.FileName)
			}
			if err := os.WriteFile(path, dl.Content, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", dl.Rows, path)
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&opts.Batches, "batches", nil, "batch numbers to export (default all)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", `output file, "-" for stdout (default: generated name)`)
	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "directory for the generated file name")
	return cmd
}
