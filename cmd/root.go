/*
	Copyright 2023 Markus Papenbrock
*/

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	compareCmd "github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/compare"
	driversCmd "github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/drivers"
	migrateCmd "github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/migrate"
	serveCmd "github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/serve"
	sessionsCmd "github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/sessions"
	versionCmd "github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/version"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/config"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/openf1"
	"github.com/mpapenbr/f1-telemetry-lab/version"
)

const envPrefix = "FTL"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "ftl",
	Short:   "Compare the telemetry of two F1 drivers",
	Long:    ``,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.ftl.yml)")
	pf.StringVar(&config.Backend, "backend",
		openf1.BackendName,
		"telemetry backend (openf1, archive)")
	pf.StringVar(&config.OpenF1URL, "openf1-url",
		openf1.DefaultBaseURL,
		"base url of the OpenF1 REST API")
	pf.StringVar(&config.ArchiveURL, "archive-url",
		"",
		"archive database (postgresql://..., sqlite3://path or path of a sqlite file)")
	pf.StringVar(&config.RequestTimeout, "request-timeout",
		"10s",
		"timeout for each backend request")
	pf.IntVar(&config.MaxRetries, "max-retries",
		3,
		"retries for unavailable backends (0 disables retries)")
	pf.StringVar(&config.CacheTTL, "cache-ttl",
		"5m",
		"validity of cached backend results")
	pf.IntVar(&config.CacheCapacity, "cache-capacity",
		256,
		"max number of cached results per query kind (memory storage)")
	pf.StringVar(&config.CacheStorage, "cache-storage",
		"memory",
		"cache storage (memory, nats)")
	pf.StringVar(&config.NATSURL, "nats-url",
		"nats://localhost:4222",
		"url of the NATS server used by the nats cache storage")
	pf.StringVar(&config.LogLevel, "log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	pf.StringVar(&config.SQLLogLevel, "sql-log-level",
		"info",
		"controls the log level for archive queries")
	pf.StringVar(&config.LogFormat, "log-format",
		"text",
		"controls the log output format (text, json)")
	pf.StringVar(&config.LogFilter, "log-filter",
		"",
		"zapfilter rules, e.g. \"*:* -debug:cache*\"")
	pf.BoolVar(&config.EnableTelemetry, "enable-telemetry",
		false,
		"enables telemetry")
	pf.StringVar(&config.TelemetryEndpoint, "telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (empty: print to stderr)")
	pf.StringVar(&config.WaitForServices, "wait-for-services",
		"0s",
		"Duration to wait for other services to be ready")

	// add commands here
	rootCmd.AddCommand(sessionsCmd.NewSessionsCmd())
	rootCmd.AddCommand(driversCmd.NewDriversCmd())
	rootCmd.AddCommand(compareCmd.NewCompareCmd())
	rootCmd.AddCommand(serveCmd.NewServeCmd())
	rootCmd.AddCommand(migrateCmd.NewMigrateCmd())
	rootCmd.AddCommand(versionCmd.NewVersionCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".ftl" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ftl")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to FTL_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
