// Package commands implements the CLI commands for gradfetch.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/gradfetch/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "gradfetch",
	Short: "Scrape, clean and analyse graduate admission results",
	Long: `Gradfetch pages through the GradCafe admissions survey, reconstructs
each result from its listing rows, and normalizes the fields into a clean,
typed record set ready for storage and analysis.

Examples:
  # Fetch the newest 20 pages of accepted results and clean them
  gradfetch scrape --filter accepted --pages 20 --clean -o clean.json

  # Clean a previously saved raw file
  gradfetch clean -i raw.json -o clean.json

  # Add canonical program and university names
  gradfetch standardize -i clean.json --canon-universities unis.txt -o std.json

  # Store and summarise
  gradfetch load -i std.json --database-url postgres://localhost/gradcafe
  gradfetch report --database-url postgres://localhost/gradcafe`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logger.Options{
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
			Level: viper.GetString("log_level"),
			JSON:  viper.GetBool("log_json"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.gradfetch.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "suppress progress output")
	flags.String("log-level", "", "log level: debug, info, warn, error (overrides --debug)")
	flags.Bool("log-json", false, "emit logs as JSON")
	flags.String("database-url", "", "database DSN: postgres://..., sqlite://path or path.db (or DATABASE_URL)")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log_json", flags.Lookup("log-json"))
	_ = viper.BindPFlag("database_url", flags.Lookup("database-url"))
}

func initConfig() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".gradfetch")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GRADFETCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("database_url", "GRADFETCH_DATABASE_URL", "DATABASE_URL")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logInfo prints a summary line to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// databaseURL returns the configured DSN or an error naming the flag.
func databaseURL() (string, error) {
	dsn := viper.GetString("database_url")
	if dsn == "" {
		return "", fmt.Errorf("no database configured: set --database-url or DATABASE_URL")
	}
	return dsn, nil
}
