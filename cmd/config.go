package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sodachi/mangetsu/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the mangetsu settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Loaded config from:\n  %s\n\n", used)

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.Path()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		if err := config.Save(config.DefaultConfig(), path); err != nil {
			return err
		}

		fmt.Println("Created:", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.Path())
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
