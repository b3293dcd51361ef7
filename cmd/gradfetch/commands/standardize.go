package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/gradfetch/internal/logger"
	"github.com/jmylchreest/gradfetch/pkg/llm"
	"github.com/jmylchreest/gradfetch/pkg/record"
	"github.com/jmylchreest/gradfetch/pkg/standardize"
)

var standardizeCmd = &cobra.Command{
	Use:   "standardize",
	Short: "Add canonical program and university names",
	Long: `Fill llm_generated_program and llm_generated_university on a normalized
record file. Values already present are never overwritten.

By default names are fuzzy-matched against canonical lists. With --llm a
chat model is asked first and fuzzy matching is the fallback.

Examples:
  gradfetch standardize -i clean.json \
      --canon-programs programs.txt --canon-universities universities.txt -o std.json

  # Ask a local Ollama model, fall back to the lists
  gradfetch standardize -i clean.json --llm -p ollama -m llama3.2 \
      --canon-universities universities.txt`,
	RunE: runStandardize,
}

func init() {
	rootCmd.AddCommand(standardizeCmd)
	addIOFlags(standardizeCmd, true)

	flags := standardizeCmd.Flags()
	flags.String("canon-programs", "", "file of canonical program names, one per line")
	flags.String("canon-universities", "", "file of canonical university names, one per line")
	flags.Float64("threshold", standardize.DefaultThreshold, "minimum Jaro-Winkler similarity for a fuzzy match")

	// LLM settings
	flags.Bool("llm", false, "ask an LLM before falling back to fuzzy matching")
	flags.StringP("provider", "p", "", "LLM provider: anthropic, openai, ollama (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")

	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
}

func runStandardize(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recs, err := readInput[record.NormalizedRecord](cmd)
	if err != nil {
		logger.Error("failed to load records", "error", err)
		return err
	}

	s, err := buildStandardizer(cmd)
	if err != nil {
		logger.Error("failed to build standardizer", "error", err)
		return err
	}

	updated, err := standardize.Apply(ctx, s, recs)
	logInfo("Standardized %s of %s records using %s",
		humanize.Comma(int64(updated)), humanize.Comma(int64(len(recs))), s.Name())
	if err != nil {
		return err
	}

	return writeOutput(cmd, recs)
}

func buildStandardizer(cmd *cobra.Command) (standardize.Standardizer, error) {
	flags := cmd.Flags()

	var programs, universities []string
	if path, _ := flags.GetString("canon-programs"); path != "" {
		list, err := standardize.LoadCanon(path)
		if err != nil {
			return nil, err
		}
		programs = list
	}
	if path, _ := flags.GetString("canon-universities"); path != "" {
		list, err := standardize.LoadCanon(path)
		if err != nil {
			return nil, err
		}
		universities = list
	}
	threshold, _ := flags.GetFloat64("threshold")
	fuzzy := standardize.NewFuzzyMatcher(programs, universities, threshold)
	logger.Debug("canonical lists loaded", "programs", len(programs), "universities", len(universities))

	if useLLM, _ := flags.GetBool("llm"); !useLLM {
		return fuzzy, nil
	}

	p, err := buildProvider()
	if err != nil {
		return nil, err
	}
	logger.Debug("using LLM provider", "provider", p.Name(), "model", p.Model())
	return standardize.NewChain(standardize.NewLLMStandardizer(p), fuzzy), nil
}

// buildProvider resolves the provider from flags, config and environment.
func buildProvider() (llm.Provider, error) {
	name := viper.GetString("provider")
	apiKey := viper.GetString("api_key")
	if name == "" {
		var detected string
		name, detected = llm.DetectProvider()
		if apiKey == "" {
			apiKey = detected
		}
	} else if apiKey == "" {
		apiKey = llm.APIKeyFromEnv(name)
	}

	cfg := llm.DefaultProviderConfig()
	cfg.APIKey = apiKey
	cfg.Model = viper.GetString("model")
	cfg.BaseURL = viper.GetString("base_url")
	return llm.NewProvider(name, cfg)
}
