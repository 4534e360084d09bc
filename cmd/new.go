package cmd

import (
	"github.com/spf13/cobra"

	"github.com/weftdev/weft/internal/scaffolding"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Scaffold components and pages",
}

var newComponentCmd = &cobra.Command{
	Use:   "component <group> <name>",
	Short: "Scaffold a component inside a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		return scaffolding.NewGenerator(cfg.Frontend.BasePath, logger).Component(args[0], args[1])
	},
}

var newPageCmd = &cobra.Command{
	Use:   "page <name>",
	Short: "Scaffold a page with its descriptor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		return scaffolding.NewGenerator(cfg.Frontend.BasePath, logger).Page(args[0])
	},
}

func init() {
	newCmd.AddCommand(newComponentCmd)
	newCmd.AddCommand(newPageCmd)
	rootCmd.AddCommand(newCmd)
}
