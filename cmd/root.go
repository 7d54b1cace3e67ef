package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagDebug        bool
	flagIgnoreConfig bool
	flagOutput       string
	flagSessionDir   string
)

var rootCmd = &cobra.Command{
	Use:   "mangetsu",
	Short: "Download and purchase manga from the KM and MU storefronts",
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore the config file and use only CLI flags")
	rootCmd.PersistentFlags().StringVar(&flagOutput, "output", "", "output folder for downloads")
	rootCmd.PersistentFlags().StringVar(&flagSessionDir, "session-dir", "", "directory holding saved account sessions")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
