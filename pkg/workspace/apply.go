package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alantheprice/autopatch/pkg/parser"
)

// Outcome classifies what happened to one edit's target path during apply.
type Outcome string

const (
	OutcomeCreated        Outcome = "created"
	OutcomeModified       Outcome = "modified"
	OutcomeDeleted        Outcome = "deleted"
	OutcomeSkippedMissing Outcome = "skipped_missing"
	OutcomeUnknownAction  Outcome = "unknown_action"
)

// ApplyEntry records the result of applying one FileEdit.
type ApplyEntry struct {
	Path    string  `json:"path"`
	Outcome Outcome `json:"outcome"`
}

// ApplySummary lists apply results in edit order, one entry per edit.
type ApplySummary []ApplyEntry

// String renders the summary in the one-line-per-file form used in retry
// feedback and console output.
func (s ApplySummary) String() string {
	var b strings.Builder
	for _, entry := range s {
		switch entry.Outcome {
		case OutcomeCreated:
			fmt.Fprintf(&b, "Created: %s\n", entry.Path)
		case OutcomeModified:
			fmt.Fprintf(&b, "Modified: %s\n", entry.Path)
		case OutcomeDeleted:
			fmt.Fprintf(&b, "Deleted: %s\n", entry.Path)
		case OutcomeSkippedMissing:
			fmt.Fprintf(&b, "Skip delete (not found): %s\n", entry.Path)
		case OutcomeUnknownAction:
			fmt.Fprintf(&b, "Unknown action for: %s\n", entry.Path)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Apply mutates the tree under root according to edits, in input order.
// Written files always end in exactly one newline beyond the edit content,
// matching the parser's strip of the code block's trailing newline. A
// filesystem error aborts the remaining edits; the partial summary is
// returned alongside the error and reverting is left to the caller.
func Apply(edits []parser.FileEdit, root string) (ApplySummary, error) {
	summary := make(ApplySummary, 0, len(edits))

	for _, edit := range edits {
		target := filepath.Join(root, filepath.FromSlash(edit.Path))

		switch edit.Action {
		case parser.ActionDelete:
			if _, err := os.Stat(target); os.IsNotExist(err) {
				summary = append(summary, ApplyEntry{Path: edit.Path, Outcome: OutcomeSkippedMissing})
				continue
			}
			if err := os.Remove(target); err != nil {
				return summary, fmt.Errorf("could not delete %s: %w", edit.Path, err)
			}
			summary = append(summary, ApplyEntry{Path: edit.Path, Outcome: OutcomeDeleted})

		case parser.ActionCreate, parser.ActionModify:
			// Existence is checked before the write so the summary reflects
			// the pre-state even though both branches write identically.
			_, statErr := os.Stat(target)
			existed := statErr == nil

			if dir := filepath.Dir(target); dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return summary, fmt.Errorf("could not create directory for %s: %w", edit.Path, err)
				}
			}
			if err := os.WriteFile(target, []byte(edit.Content+"\n"), 0644); err != nil {
				return summary, fmt.Errorf("could not write %s: %w", edit.Path, err)
			}

			if existed {
				summary = append(summary, ApplyEntry{Path: edit.Path, Outcome: OutcomeModified})
			} else {
				summary = append(summary, ApplyEntry{Path: edit.Path, Outcome: OutcomeCreated})
			}

		default:
			summary = append(summary, ApplyEntry{Path: edit.Path, Outcome: OutcomeUnknownAction})
		}
	}

	return summary, nil
}
