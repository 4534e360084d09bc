package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var buildDataFlag string

var buildCmd = &cobra.Command{
	Use:     "build <template>",
	Aliases: []string{"b"},
	Short:   "Compose a template and print the result to stdout",
	Long: `Compose a template through the descriptor engine and print the final
markup to stdout. The template path is relative to the frontend root, e.g.
pages/Welcome/html/Welcome.html.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		var override map[string]interface{}
		if buildDataFlag != "" {
			if err := json.Unmarshal([]byte(buildDataFlag), &override); err != nil {
				return fmt.Errorf("parsing --data: %w", err)
			}
		}

		builder := newBuilder(cfg, logger)

		build := builder.Build
		if viper.GetBool("build.concurrent") {
			build = builder.BuildConcurrent
		}

		markup, err := build(cmd.Context(), args[0], override)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), markup)

		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildDataFlag, "data", "", "JSON object of override data")
	bindBuildFlags(buildCmd.Flags())
	rootCmd.AddCommand(buildCmd)
}
