package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crownpoint-data/pos-sync/cli/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "possync",
	Short: "POS sync pipeline CLI",
	Long: `possync is the command-line interface for the POS sync pipeline.

Trigger endpoint syncs against the poller service and check the health
of both pipeline services from your terminal.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.possync/config.yaml)")
	rootCmd.PersistentFlags().String("poller-url", "", "poller service URL (overrides config)")
	rootCmd.PersistentFlags().String("processor-url", "", "processor service URL (overrides config)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

func pollerURL(cmd *cobra.Command) string {
	if url, _ := cmd.Flags().GetString("poller-url"); url != "" {
		return url
	}
	return cfg.PollerURL
}

func processorURL(cmd *cobra.Command) string {
	if url, _ := cmd.Flags().GetString("processor-url"); url != "" {
		return url
	}
	return cfg.ProcessorURL
}
