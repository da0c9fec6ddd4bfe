// Package cmd implements the reconciler command-line interface.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"statement-reconciliation-service/cmd/reconciler/config"
	"statement-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Bank statement reconciliation tool",
	Long: `Reconciler imports bank statement exports, proposes ledger matches
for the money that arrived, and applies confirm/ignore/revert decisions
across the transaction and ledger stores.

Examples:
  reconciler import statement.ofx --institution mybank --kind checking
  reconciler match 6f1c9b4e-...
  reconciler confirm 6f1c9b4e-... 9a2d31c7-... --actor alice
  reconciler stats 2024 3`,
	Version: getVersionString(),
}

// Execute runs the root command and maps the resulting error to a
// process exit code. Called by main.main().
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return NewCLIErrorHandler().HandleError(err)
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("database-url", rootCmd.PersistentFlags().Lookup("database-url"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}
	}

	viper.SetEnvPrefix("RECONCILER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configureLogging()
}

func configureLogging() {
	cfg := &logger.Config{
		Level:  logger.Level(viper.GetString("log-level")),
		Format: logger.Format(viper.GetString("log-format")),
	}
	if verbose {
		cfg.Level = logger.DebugLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %s\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogger(log)
}

// loadSettings builds the effective CLI settings after flags and env are
// merged.
func loadSettings() (*config.Settings, error) {
	return config.Load()
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
