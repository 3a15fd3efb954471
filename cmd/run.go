package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alantheprice/autopatch/pkg/bundler"
	"github.com/alantheprice/autopatch/pkg/config"
	"github.com/alantheprice/autopatch/pkg/git"
	"github.com/alantheprice/autopatch/pkg/llm"
	"github.com/alantheprice/autopatch/pkg/orchestrator"
	"github.com/alantheprice/autopatch/pkg/prompts"
	"github.com/alantheprice/autopatch/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	runRequest     string
	runRequestFile string
	runWorkspace   string
	runValidateCmd string
	runMaxAttempts int
	runTimeoutSecs int
	runModel       string
	runOutputDir   string
	runNoDiffs     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the attempt loop for a change request",
	Long: `Run generates file changes for the request, applies them to the
workspace, and validates them with the configured command, retrying with
failure feedback until validation passes or attempts run out.

The workspace must be a clean git work tree: failed attempts are rolled
back with git checkout and git clean.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := utils.GetLogger(false)

		request := runRequest
		if runRequestFile != "" {
			data, err := os.ReadFile(runRequestFile)
			if err != nil {
				return fmt.Errorf("could not read request file: %w", err)
			}
			request = string(data)
		}
		if request == "" {
			return fmt.Errorf("a change request is required (--request or --request-file)")
		}

		root, err := filepath.Abs(runWorkspace)
		if err != nil {
			return err
		}

		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		applyRunFlagOverrides(cfg)

		if cfg.ValidateCommand == "" {
			return fmt.Errorf("a validation command is required (--validate or config)")
		}

		if !git.IsRepository(root) {
			return fmt.Errorf("%s is not a git repository; autopatch needs one to revert failed attempts", root)
		}
		dirty, err := git.HasUncommittedChanges(root)
		if err != nil {
			return err
		}
		if dirty {
			return fmt.Errorf("workspace has uncommitted changes; commit or stash them first")
		}

		logger.LogProcessStep("Bundling repository for model context...")
		bundle, err := bundler.Bundle(root)
		if err != nil {
			return err
		}

		outputDir := runOutputDir
		if outputDir == "" {
			outputDir = filepath.Join(root, ".autopatch", "output")
		}

		client := llm.NewClient(cfg.APIBaseURL, cfg.APIKey(), cfg.Model)
		opts := orchestrator.Options{
			Request: prompts.Request{
				Text:            request,
				Language:        cfg.Language,
				ValidateCommand: cfg.ValidateCommand,
				RepoBundle:      bundle,
			},
			WorkspaceRoot:   root,
			ValidateCommand: cfg.ValidateCommand,
			ValidateTimeout: time.Duration(cfg.ValidateTimeoutSecs) * time.Second,
			MaxAttempts:     cfg.MaxAttempts,
			OutputDir:       outputDir,
			PrintDiffs:      !runNoDiffs,
		}

		result, err := orchestrator.New(client, git.NewBaseline(), opts).Run(cmd.Context())
		if err != nil {
			return err
		}

		if result.Success {
			logger.LogProcessStep(fmt.Sprintf("Validation passed on attempt %d", result.Attempt))
			if result.ParseResult.Explanation != "" {
				fmt.Println("\n" + result.ParseResult.Explanation)
			}
			return nil
		}

		logger.LogProcessStep(fmt.Sprintf("Failed after %d attempts", result.Attempt))
		fmt.Println("\nLast validation output:")
		fmt.Println(result.Validation.Output)
		return fmt.Errorf("no passing change found within %d attempts", result.Attempt)
	},
}

// applyRunFlagOverrides lets explicit flags win over the workspace config.
func applyRunFlagOverrides(cfg *config.Config) {
	if runValidateCmd != "" {
		cfg.ValidateCommand = runValidateCmd
	}
	if runMaxAttempts > 0 {
		cfg.MaxAttempts = runMaxAttempts
	}
	if runTimeoutSecs > 0 {
		cfg.ValidateTimeoutSecs = runTimeoutSecs
	}
	if runModel != "" {
		cfg.Model = runModel
	}
}

func init() {
	runCmd.Flags().StringVarP(&runRequest, "request", "r", "", "change request text")
	runCmd.Flags().StringVar(&runRequestFile, "request-file", "", "file containing the change request")
	runCmd.Flags().StringVarP(&runWorkspace, "workspace", "w", ".", "workspace directory")
	runCmd.Flags().StringVar(&runValidateCmd, "validate", "", "validation command run after each apply")
	runCmd.Flags().IntVar(&runMaxAttempts, "max-attempts", 0, "maximum attempts before giving up")
	runCmd.Flags().IntVar(&runTimeoutSecs, "timeout", 0, "validation timeout in seconds")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "model name")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "directory for the terminal result record")
	runCmd.Flags().BoolVar(&runNoDiffs, "no-diffs", false, "do not print per-file diffs")

	rootCmd.AddCommand(runCmd)
}
