package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Tally — employee hours declaration service",
	Long:  "Tally is a small service for declaring and reviewing employee working hours: per-user hours ledgers, calendar views, period reports, JSON export/import, and an operator rollup.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/tally.yaml)")
}

func main() {
	// A missing .env is fine; it only exists in development setups.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
