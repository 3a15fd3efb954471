package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alantheprice/autopatch/pkg/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config to .autopatch/config.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(runWorkspace)
		if err != nil {
			return err
		}
		if _, err := os.Stat(config.Path(root)); err == nil {
			return fmt.Errorf("config already exists at %s", config.Path(root))
		}

		if err := config.DefaultConfig().Save(root); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", config.Path(root))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&runWorkspace, "workspace", "w", ".", "workspace directory")
	rootCmd.AddCommand(initCmd)
}
