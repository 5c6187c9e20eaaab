package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <entity> <file|->",
		Short: "Import a CSV file into an entity in one request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := root.setup(cmd, true)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			result, err := rt.service.ImportFromReader(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d of %d records", result.Imported, result.Sent)
			if result.Failed > 0 {
				fmt.Fprintf(out, ", %d failed", result.Failed)
			}
			fmt.Fprintln(out)
			if result.Skipped > 0 {
				fmt.Fprintf(out, "skipped %d rows without a required value\n", result.Skipped)
			}
			if result.Dropped > 0 {
				fmt.Fprintf(out, "dropped %d unreadable list entries\n", result.Dropped)
			}
			if result.HeaderMismatch {
				fmt.Fprintln(out, "warning: header row differs from the expected columns; values were read by position")
			}
			if result.Message != "" {
				fmt.Fprintf(out, "backend: %s\n", result.Message)
			}
			return nil
		},
	}
}
