package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// persist writes the terminal result for downstream reporting: the full
// record as response.json, plus the edit list and rationale split out for
// convenience. Disabled when no output directory is configured.
func (o *Orchestrator) persist(result *Result) error {
	if o.opts.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(o.opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	if err := writeJSON(filepath.Join(o.opts.OutputDir, "response.json"), result); err != nil {
		return err
	}

	if result.Success {
		if err := writeJSON(filepath.Join(o.opts.OutputDir, "changes.json"), result.ParseResult.Edits); err != nil {
			return err
		}
		explanation := filepath.Join(o.opts.OutputDir, "explanation.md")
		if err := os.WriteFile(explanation, []byte(result.ParseResult.Explanation), 0644); err != nil {
			return fmt.Errorf("could not write %s: %w", explanation, err)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}
