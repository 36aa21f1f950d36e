package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Print the effective configuration after merging defaults, the config file, and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		rendered, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}

		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Printf("# config file: %s\n", file)
		}
		fmt.Print(string(rendered))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
