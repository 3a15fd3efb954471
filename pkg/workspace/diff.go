package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alantheprice/autopatch/pkg/parser"
)

// FileDiff pairs a file's pre-mutation content with the content an edit
// will write. Old is empty for files that do not exist yet, New is empty
// for deletes.
type FileDiff struct {
	Action parser.Action `json:"action"`
	Old    string        `json:"old"`
	New    string        `json:"new"`
}

// BuildDiffs captures before/after content for every edit. It must run
// before Apply: Old is read from the live tree, so building diffs after
// mutation silently produces wrong pre-images.
func BuildDiffs(edits []parser.FileEdit, root string) (map[string]FileDiff, error) {
	diffs := make(map[string]FileDiff, len(edits))

	for _, edit := range edits {
		target := filepath.Join(root, filepath.FromSlash(edit.Path))

		old := ""
		if data, err := os.ReadFile(target); err == nil {
			old = string(data)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("could not read %s for diff: %w", edit.Path, err)
		}

		switch edit.Action {
		case parser.ActionDelete:
			if old == "" {
				// Deleting a file that is already gone produces no diff.
				continue
			}
			diffs[edit.Path] = FileDiff{Action: parser.ActionDelete, Old: old}
		case parser.ActionCreate, parser.ActionModify:
			diffs[edit.Path] = FileDiff{Action: edit.Action, Old: old, New: edit.Content}
		}
	}

	return diffs, nil
}
