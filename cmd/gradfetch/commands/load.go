package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/gradfetch/internal/logger"
	"github.com/jmylchreest/gradfetch/internal/store"
	"github.com/jmylchreest/gradfetch/pkg/normalize"
	"github.com/jmylchreest/gradfetch/pkg/record"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Store normalized records in the database",
	Long: `Insert a normalized record file into the applicants table.

The table is created on first use. Rows are keyed by url, so loading the
same file twice adds nothing the second time. Records that fail validation
are skipped.

Examples:
  gradfetch load -i clean.json --database-url postgres://localhost/gradcafe
  gradfetch load -i clean.json --database-url gradcafe.db`,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringP("input", "i", "", "normalized record file (.json, .jsonl or .yaml)")
	_ = loadCmd.MarkFlagRequired("input")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dsn, err := databaseURL()
	if err != nil {
		return err
	}

	recs, err := readInput[record.NormalizedRecord](cmd)
	if err != nil {
		logger.Error("failed to load records", "error", err)
		return err
	}

	cleaner := normalize.NewCleaner()
	valid := make([]record.NormalizedRecord, 0, len(recs))
	for i, r := range recs {
		if err := cleaner.Validate(r); err != nil {
			logger.Warn("invalid record skipped", "index", i, "error", err)
			continue
		}
		valid = append(valid, r)
	}

	s, err := store.Open(ctx, dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer func() { _ = s.Close() }()

	inserted, err := s.InsertRecords(ctx, valid)
	if err != nil {
		logger.Error("failed to insert records", "error", err)
		return err
	}

	total, err := s.Count(ctx)
	if err != nil {
		return err
	}

	logInfo("Inserted %s new rows (%s invalid, %s already present); table now holds %s",
		humanize.Comma(int64(inserted)),
		humanize.Comma(int64(len(recs)-len(valid))),
		humanize.Comma(int64(len(valid)-inserted)),
		humanize.Comma(int64(total)))
	return nil
}
