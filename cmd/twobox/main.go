package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/twobox/internal/logging"
	"github.com/san-kum/twobox/internal/storage"
)

var warnColor = color.New(color.FgYellow, color.Bold)

// main registers the commands, binds the persistent flags to TWOBOX_*
// environment variables and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "twobox",
		Short:         "two-box climate energy-balance model",
		Long:          "twobox integrates a mixed-layer / deep-ocean energy-balance model over historical or scenario forcing tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("data", ".twobox", "directory for saved runs")
	rootCmd.PersistentFlags().String("store", storage.BackendFile, "run store backend: file or sqlite")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: warn, info, debug or trace")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintln(os.Stderr, "error binding flags:", err)
		os.Exit(1)
	}
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(
		newRunCmd(),
		newFeedbackCmd(),
		newForcingCmd(),
		newObservationsCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportJSONCmd(),
		newExportCSVCmd(),
		newExportParquetCmd(),
		newExportSVGCmd(),
		newPresetsCmd(),
		newExploreCmd(),
		newCalibrateCmd(),
		newPlanckCmd(),
		newBalanceCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TWOBOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func newLogger() *slog.Logger {
	return logging.NewLogger(viper.GetString("log-level"), os.Stderr)
}

func openStore() (storage.Store, error) {
	st, err := storage.Open(viper.GetString("store"), viper.GetString("data"))
	if err != nil {
		return nil, err
	}
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func warn(format string, args ...any) {
	warnColor.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
