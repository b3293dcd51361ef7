package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/gradfetch/internal/logger"
	"github.com/jmylchreest/gradfetch/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarise the stored applicants",
	Long: `Print summary statistics for the applicants table: counts per term,
nationality split, average scores, and the acceptance rate for a term.

Examples:
  gradfetch report --database-url postgres://localhost/gradcafe
  gradfetch report --term "Spring 2026" --acceptance-term "Fall 2025" --json`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	flags := reportCmd.Flags()
	flags.String("term", store.DefaultTerm, "term for the per-term figures")
	flags.String("acceptance-term", store.DefaultAcceptanceTerm, "term for the acceptance rate")
	flags.Bool("json", false, "print the analysis as JSON")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dsn, err := databaseURL()
	if err != nil {
		return err
	}

	s, err := store.Open(ctx, dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer func() { _ = s.Close() }()

	term, _ := cmd.Flags().GetString("term")
	acceptanceTerm, _ := cmd.Flags().GetString("acceptance-term")
	a, err := s.Analysis(ctx, store.AnalysisOptions{Term: term, AcceptanceTerm: acceptanceTerm})
	if err != nil {
		logger.Error("analysis failed", "error", err)
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}

	renderAnalysis(os.Stdout, a)
	return nil
}

func renderAnalysis(w io.Writer, a store.Analysis) {
	counts := table.NewWriter()
	counts.SetOutputMirror(w)
	counts.SetTitle("Applicants")
	counts.AppendHeader(table.Row{"Metric", "Value"})
	counts.AppendRow(table.Row{"Total", humanize.Comma(int64(a.Total))})
	counts.AppendRow(table.Row{a.Term, humanize.Comma(int64(a.TermCount))})
	counts.AppendRow(table.Row{store.International, fmt.Sprintf("%s (%.2f%%)", humanize.Comma(int64(a.International)), a.InternationalPct)})
	counts.AppendRow(table.Row{store.American, humanize.Comma(int64(a.American))})
	counts.AppendRow(table.Row{store.Other, humanize.Comma(int64(a.Other))})
	counts.SetStyle(table.StyleRounded)
	counts.Render()

	scores := table.NewWriter()
	scores.SetOutputMirror(w)
	scores.SetTitle("Average scores")
	scores.AppendHeader(table.Row{"Score", "Average"})
	scores.AppendRow(table.Row{"GPA", average(a.AvgGPA)})
	scores.AppendRow(table.Row{"GRE Quantitative", average(a.AvgGREQ)})
	scores.AppendRow(table.Row{"GRE Verbal", average(a.AvgGREV)})
	scores.AppendRow(table.Row{"GRE Analytical Writing", average(a.AvgGREAW)})
	scores.AppendSeparator()
	scores.AppendRow(table.Row{"GPA, American, " + a.Term, average(a.AmericanTermGPA)})
	scores.AppendRow(table.Row{"GPA, accepted, " + a.Term, average(a.AcceptedTermGPA)})
	scores.SetStyle(table.StyleRounded)
	scores.Render()

	acceptance := table.NewWriter()
	acceptance.SetOutputMirror(w)
	acceptance.SetTitle("Acceptance, " + a.AcceptanceTerm)
	acceptance.AppendHeader(table.Row{"Entries", "Accepted", "Rate"})
	acceptance.AppendRow(table.Row{
		humanize.Comma(int64(a.AcceptanceTotal)),
		humanize.Comma(int64(a.Accepted)),
		fmt.Sprintf("%.2f%%", a.AcceptancePct),
	})
	acceptance.SetStyle(table.StyleRounded)
	acceptance.Render()
}

func average(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
