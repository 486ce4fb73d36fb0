package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sipocalypse/api/internal/daily"
	"github.com/sipocalypse/api/internal/sipocalypse"
)

var dailyRunCmd = &cobra.Command{
	Use:   "daily-run",
	Short: "Score a day's games and record the winner",
	Long: `Score every game of a date, append the score rows and record the winner.

A date that already has a winner is skipped unless --force is given; a forced
rerun appends a second set of score rows and a second winner.

Examples:
  sipctl daily-run
  sipctl daily-run --date 2025-03-01 --force`,
	Args: cobra.NoArgs,
	RunE: runDailyRun,
}

func init() {
	dailyRunCmd.Flags().String("date", "", "date to score (YYYY-MM-DD, default today in TIMEZONE)")
	dailyRunCmd.Flags().Bool("force", false, "score again even if a winner exists")

	rootCmd.AddCommand(dailyRunCmd)
}

func runDailyRun(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.close()

	date, _ := cmd.Flags().GetString("date")
	force, _ := cmd.Flags().GetBool("force")
	if date == "" {
		date = sipocalypse.DateIn(time.Now(), e.loc)
	}

	res, err := daily.NewOrchestrator(e.repo, e.logger).Run(cmd.Context(), date, force)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, res)
	}

	if res.Skipped {
		fmt.Fprintf(out, "Winner already recorded for %s: %s (%d). Use --force to rescore.\n",
			date, res.Winner.Activity, res.Winner.Score)
		return nil
	}

	fmt.Fprintf(out, "Winner for %s: %s (%d)\n\n", date, res.Winner.Activity, res.Winner.Score)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tGAME\tACTIVITY\tSCORE")
	for i, entry := range res.Leaderboard {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", i+1, entry.GameID, entry.Activity, entry.Score)
	}
	return w.Flush()
}
