package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/gradfetch/internal/logger"
	"github.com/jmylchreest/gradfetch/pkg/normalize"
	"github.com/jmylchreest/gradfetch/pkg/pipeline"
	"github.com/jmylchreest/gradfetch/pkg/record"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Normalize a saved raw record file",
	Long: `Normalize every record of a raw file written by 'scrape'.

Fields that cannot be normalized become null; the record is kept. Records
are cleaned in parallel and written in input order.

Examples:
  gradfetch clean -i raw.json -o clean.json
  gradfetch clean -i raw.jsonl --workers 8 --format yaml`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	addIOFlags(cleanCmd, true)
	cleanCmd.Flags().Int("workers", 0, "normalize workers (0=GOMAXPROCS)")
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	raws, err := readInput[record.RawRecord](cmd)
	if err != nil {
		logger.Error("failed to load raw records", "error", err)
		return err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	normalized, report := pipeline.Normalize(ctx, normalize.NewCleaner(), raws, workers)
	for _, e := range report.Errors {
		logger.Warn("record skipped", "index", e.Index, "error", e.Cause)
	}

	logInfo("Cleaned %s of %s records (%d skipped, %d malformed fields)",
		humanize.Comma(int64(report.Cleaned)),
		humanize.Comma(int64(len(raws))),
		report.Skipped, report.MalformedFields)

	if report.Cancelled {
		return ctx.Err()
	}
	return writeOutput(cmd, normalized)
}
