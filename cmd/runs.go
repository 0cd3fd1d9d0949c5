package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadfinder/internal/cost"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/monitoring"
	"github.com/sells-group/leadfinder/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect search history",
	Long:  "Commands for listing and viewing recorded searches. Only the query and counts are kept, never the results.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		mode, _ := cmd.Flags().GetString("mode")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.RunFilter{
			Mode:  model.SearchMode(mode),
			Limit: limit,
		}

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate search statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		hours := int(since.Hours())
		if hours <= 0 {
			hours = 24
		}

		snap, err := monitoring.NewCollector(st, cost.NewCalculator(cfg.Pricing)).Collect(ctx, hours)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}
		formatRunStats(os.Stdout, snap)
		return nil
	},
}

func init() {
	runsStatsCmd.Flags().Duration("since", 24*time.Hour, "time window for stats (e.g. 24h, 72h, 168h)")
	runsCmd.AddCommand(runsStatsCmd)

	runsListCmd.Flags().String("mode", "", "filter by search mode (name, sweep)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.SearchRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tQUERY\tMODE\tCENTER\tCALLS\tRESULTS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-----\t----\t------\t-----\t-------\t-------")

	for _, r := range runs {
		center := fmt.Sprintf("%.4f,%.4f", r.Center.Lat, r.Center.Lng)
		if !r.Resolved {
			center += " (fallback)"
		}
		results := fmt.Sprintf("%d", r.ResultCount)
		if r.Error != "" {
			results = "error"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(r.ID),
			describeQuery(r.Query),
			r.Mode,
			center,
			r.APICalls,
			results,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s *monitoring.MetricsSnapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\t%dh\n", s.LookbackHours)
	_, _ = fmt.Fprintf(w, "Total searches:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "  Sweep:\t%d\n", s.SweepRuns)
	_, _ = fmt.Fprintf(w, "  Name:\t%d\n", s.NameRuns)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "No results:\t%d\n", s.Empty)
	_, _ = fmt.Fprintf(w, "Fallback center:\t%d\n", s.Fallback)
	if s.Total > 0 {
		_, _ = fmt.Fprintf(w, "Avg API calls:\t%.1f\n", s.AvgAPICalls)
		_, _ = fmt.Fprintf(w, "Avg results:\t%.1f\n", s.AvgResults)
		_, _ = fmt.Fprintf(w, "Est. cost:\t$%.2f\n", s.CostUSD)
	}
	_ = w.Flush()
}

// describeQuery renders the set criteria of q compactly.
func describeQuery(q model.SearchQuery) string {
	var s string
	add := func(label, v string) {
		if v == "" {
			return
		}
		if s != "" {
			s += " "
		}
		s += label + "=" + v
	}
	add("cp", q.PostalCode)
	add("city", q.City)
	add("name", q.BusinessName)
	add("cat", q.Category)
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return s
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
