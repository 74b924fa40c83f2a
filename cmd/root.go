package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "montecarlo-dashboard",
	Short: "Monte Carlo price simulation API and dashboard data acquisition",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ./config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(acquireCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
