package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alantheprice/autopatch/pkg/parser"
	"github.com/spf13/cobra"
)

var parseJSON bool

// parseCmd exists for debugging model responses: it runs the same parser
// the attempt loop uses and shows what would be applied.
var parseCmd = &cobra.Command{
	Use:   "parse <response-file>",
	Short: "Parse a saved model response and print the extracted edits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("could not read response file: %w", err)
		}

		result := parser.Parse(string(data))

		if parseJSON {
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		if result.Explanation != "" {
			fmt.Printf("Explanation:\n%s\n\n", result.Explanation)
		}
		if len(result.Edits) == 0 {
			fmt.Println("No edits found.")
			return nil
		}
		for _, edit := range result.Edits {
			fmt.Printf("%-8s %s (%d bytes)\n", edit.Action, edit.Path, len(edit.Content))
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print the full parse result as JSON")
	rootCmd.AddCommand(parseCmd)
}
