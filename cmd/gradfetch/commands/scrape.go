package commands

import (
	"context"
	"fmt"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/gradfetch/internal/logger"
	"github.com/jmylchreest/gradfetch/pkg/extractor"
	"github.com/jmylchreest/gradfetch/pkg/fetcher"
	"github.com/jmylchreest/gradfetch/pkg/normalize"
	"github.com/jmylchreest/gradfetch/pkg/pipeline"
	"github.com/jmylchreest/gradfetch/pkg/record"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch listing pages and extract admission results",
	Long: `Fetch GradCafe listing pages in order and extract one record per result.

The run stops early when a page is empty, the site reports no such page, the
error budget is exhausted, or the command is interrupted. Records collected
before the stop are always written.

Examples:
  # Raw records from the first 10 pages
  gradfetch scrape -o raw.json

  # Rejections only, pages 50-99, cleaned, as JSON lines
  gradfetch scrape --filter rejected --start 50 --pages 50 --clean -o clean.jsonl

  # Render pages in headless Chrome
  gradfetch scrape --fetch-mode dynamic --pages 2`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	defaults := pipeline.DefaultConfig()
	fetchDefaults := fetcher.DefaultConfig()

	flags := scrapeCmd.Flags()

	// Page range
	flags.String("filter", string(defaults.Filter), "result filter: all, accepted, rejected, waitlisted")
	flags.Int("start", defaults.StartPage, "first page to fetch")
	flags.Int("pages", defaults.PageCount, "number of pages to fetch")

	// Politeness and retry budgets
	flags.Duration("delay", defaults.BaseDelay, "base politeness delay between pages (up to 50% jitter is added)")
	flags.Int("max-errors", defaults.MaxConsecutiveErrors, "consecutive failed fetches that end the run")
	flags.Int("max-retries", defaults.MaxPageRetries, "retries per page before it is skipped")
	flags.Duration("rate-limit-backoff", defaults.RateLimitBackoff, "backoff per attempt after a rate-limited response")
	flags.Duration("transient-wait", defaults.TransientWait, "wait before retrying a connection failure")

	// Fetch settings
	flags.String("fetch-mode", "static", "fetch mode: static, dynamic")
	flags.String("base-url", fetchDefaults.BaseURL, "survey listing URL")
	flags.Duration("timeout", fetchDefaults.Timeout, "per-request timeout")
	flags.Float64("rps", fetchDefaults.RequestsPerSecond, "hard ceiling on requests per second (0=unlimited)")
	flags.String("max-body-size", "", "max response body size (e.g., 2MB; empty=transport default)")

	// Output
	addIOFlags(scrapeCmd, false)
	flags.Bool("clean", false, "also run the normalize pass and write normalized records")
	flags.Int("workers", 0, "normalize workers (0=GOMAXPROCS)")

	_ = viper.BindPFlag("scrape.delay", flags.Lookup("delay"))
	_ = viper.BindPFlag("scrape.rps", flags.Lookup("rps"))
	_ = viper.BindPFlag("scrape.timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("scrape.fetch_mode", flags.Lookup("fetch-mode"))
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := scrapeConfig(cmd)
	if err != nil {
		return err
	}

	fcfg, err := fetchConfig(cmd)
	if err != nil {
		return err
	}

	f, err := newFetcher(viper.GetString("scrape.fetch_mode"), fcfg)
	if err != nil {
		logger.Error("failed to create fetcher", "error", err)
		return err
	}
	defer func() { _ = f.Close() }()

	x, err := extractor.New(extractor.DefaultMarkup(), origin(fcfg.BaseURL))
	if err != nil {
		return err
	}

	start := time.Now()
	raws, report, err := pipeline.New(f, x).Run(ctx, cfg)
	if err != nil {
		logger.Error("invalid scrape configuration", "error", err)
		return err
	}

	logInfo("Scraped %s records from %s pages in %s (stopped: %s, skipped pages: %d, retries: %d)",
		humanize.Comma(int64(report.Records)),
		humanize.Comma(int64(report.PagesFetched)),
		time.Since(start).Round(time.Millisecond),
		report.Stop, report.PagesSkipped, report.Retries)

	if clean, _ := cmd.Flags().GetBool("clean"); clean {
		workers, _ := cmd.Flags().GetInt("workers")
		// Normalization of what was collected runs even after an interrupt.
		normalized, nreport := pipeline.Normalize(context.WithoutCancel(ctx), normalize.NewCleaner(), raws, workers)
		logInfo("Cleaned %s records (%d skipped, %d malformed fields)",
			humanize.Comma(int64(nreport.Cleaned)), nreport.Skipped, nreport.MalformedFields)
		return writeOutput(cmd, normalized)
	}

	return writeOutput(cmd, raws)
}

// scrapeConfig builds the pipeline config from flags.
func scrapeConfig(cmd *cobra.Command) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	flags := cmd.Flags()

	filterName, _ := flags.GetString("filter")
	filter, err := record.ParseResultFilter(filterName)
	if err != nil {
		return cfg, err
	}
	cfg.Filter = filter

	cfg.StartPage, _ = flags.GetInt("start")
	cfg.PageCount, _ = flags.GetInt("pages")
	cfg.BaseDelay = viper.GetDuration("scrape.delay")
	cfg.MaxConsecutiveErrors, _ = flags.GetInt("max-errors")
	cfg.MaxPageRetries, _ = flags.GetInt("max-retries")
	cfg.RateLimitBackoff, _ = flags.GetDuration("rate-limit-backoff")
	cfg.TransientWait, _ = flags.GetDuration("transient-wait")
	if w, _ := flags.GetInt("workers"); w > 0 {
		cfg.Workers = w
	}

	return cfg, cfg.Validate()
}

// fetchConfig builds the fetcher config from flags.
func fetchConfig(cmd *cobra.Command) (fetcher.Config, error) {
	cfg := fetcher.DefaultConfig()
	flags := cmd.Flags()

	cfg.BaseURL, _ = flags.GetString("base-url")
	cfg.Timeout = viper.GetDuration("scrape.timeout")
	cfg.RequestsPerSecond = viper.GetFloat64("scrape.rps")

	sizeStr, _ := flags.GetString("max-body-size")
	if s := strings.TrimSpace(sizeStr); s != "" && s != "0" {
		size, err := humanize.ParseBytes(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid max-body-size %q: %w", sizeStr, err)
		}
		cfg.MaxBodySize = int(size)
	}
	logger.Debug("fetch config",
		"base_url", cfg.BaseURL,
		"timeout", cfg.Timeout,
		"rps", cfg.RequestsPerSecond,
		"max_body_size", humanize.Bytes(uint64(cfg.MaxBodySize)))
	return cfg, nil
}

func newFetcher(mode string, cfg fetcher.Config) (fetcher.Fetcher, error) {
	switch mode {
	case "static", "":
		return fetcher.NewStatic(cfg), nil
	case "dynamic":
		f, err := fetcher.NewDynamicFetcher(cfg)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s (use 'static' or 'dynamic')", mode)
	}
}

// origin returns scheme://host of rawURL, which entry links are resolved
// against. An unparsable URL yields "" and the extractor default.
func origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
