package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scentadmin/internal/catalog"
)

func newEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the entities that support CSV export and import",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ENTITY\tLABEL\tCOLUMNS")
			for _, res := range catalog.Exportable() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", res.Key, res.Label, len(res.Columns))
			}
			return tw.Flush()
		},
	}
}

func newPlanCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <entity>",
		Short: "Show how an export of the entity is split into batches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := root.setup(cmd, true)
			if err != nil {
				return err
			}
			plan, err := rt.service.Plan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d records, batch size %d\n", plan.Entity, plan.Total, plan.BatchSize)
			if len(plan.Batches) == 0 {
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BATCH\tRECORDS\tCOUNT")
			for _, b := range plan.Batches {
				fmt.Fprintf(tw, "%d\t%d-%d\t%d\n", b.BatchNumber, b.StartRecord, b.EndRecord, b.Count)
			}
			return tw.Flush()
		},
	}
}
