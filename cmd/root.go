package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "autopatch",
	Short: "Autonomous propose-apply-validate-retry code agent",
	Long: `Autopatch turns a natural-language change request into verified file
mutations. It asks a model for complete file changes, applies them to the
workspace, runs your validation command, and on failure resets the tree and
retries with the failure output as corrective feedback.

Available commands:
  run      - Execute the full attempt loop against a workspace
  parse    - Parse a saved model response and print the extracted edits
  version  - Print the version`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}
