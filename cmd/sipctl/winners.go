package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var winnersCmd = &cobra.Command{
	Use:   "winners",
	Short: "List every recorded daily winner",
	Args:  cobra.NoArgs,
	RunE:  runWinners,
}

func init() {
	rootCmd.AddCommand(winnersCmd)
}

func runWinners(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.close()

	winners, err := e.repo.Winners(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, map[string]any{"winners": winners, "count": len(winners)})
	}
	if len(winners) == 0 {
		fmt.Fprintln(out, "No winners yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tACTIVITY\tSCORE\tSTATUS\tPOSTED")
	for _, win := range winners {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", win.Date, win.Activity, win.Score, win.Status, win.PostedAt)
	}
	return w.Flush()
}
