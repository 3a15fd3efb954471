package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alantheprice/autopatch/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCreateModifyDelete(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "existing.txt"), []byte("old\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "doomed.txt"), []byte("bye\n"), 0644))

	edits := []parser.FileEdit{
		{Path: "nested/dir/new.txt", Action: parser.ActionCreate, Content: "hello"},
		{Path: "existing.txt", Action: parser.ActionModify, Content: "updated"},
		{Path: "doomed.txt", Action: parser.ActionDelete},
		{Path: "never-was.txt", Action: parser.ActionDelete},
		{Path: "weird.txt", Action: parser.Action("rename")},
	}

	summary, err := Apply(edits, root)
	require.NoError(t, err)
	require.Len(t, summary, len(edits))

	want := []Outcome{OutcomeCreated, OutcomeModified, OutcomeDeleted, OutcomeSkippedMissing, OutcomeUnknownAction}
	for i, entry := range summary {
		assert.Equal(t, edits[i].Path, entry.Path)
		assert.Equal(t, want[i], entry.Outcome)
	}

	data, err := os.ReadFile(filepath.Join(root, "nested/dir/new.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data), "written content gets exactly one trailing newline")

	data, err = os.ReadFile(filepath.Join(root, "existing.txt"))
	require.NoError(t, err)
	assert.Equal(t, "updated\n", string(data))

	_, err = os.Stat(filepath.Join(root, "doomed.txt"))
	assert.True(t, os.IsNotExist(err), "deleted file should be gone")

	_, err = os.Stat(filepath.Join(root, "weird.txt"))
	assert.True(t, os.IsNotExist(err), "unknown action must not touch the filesystem")
}

func TestApplyIdempotence(t *testing.T) {
	root := t.TempDir()
	edits := []parser.FileEdit{
		{Path: "a.txt", Action: parser.ActionCreate, Content: "content"},
		{Path: "b/c.txt", Action: parser.ActionCreate, Content: "more"},
	}

	first, err := Apply(edits, root)
	require.NoError(t, err)
	for _, entry := range first {
		assert.Equal(t, OutcomeCreated, entry.Outcome)
	}

	second, err := Apply(edits, root)
	require.NoError(t, err)
	for _, entry := range second {
		assert.Equal(t, OutcomeModified, entry.Outcome, "second apply sees existing files")
	}

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content\n", string(data))
}

func TestApplyRoundTrip(t *testing.T) {
	// Content parsed from a code block, written, re-read and re-stripped
	// must reproduce the original exactly.
	root := t.TempDir()
	original := "line one\nline two"

	response := "### File: `roundtrip.txt`\n### Action: create\n```\n" + original + "\n```\n"
	result := parser.Parse(response)
	require.Len(t, result.Edits, 1)
	require.Equal(t, original, result.Edits[0].Content)

	_, err := Apply(result.Edits, root)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "roundtrip.txt"))
	require.NoError(t, err)
	assert.Equal(t, original+"\n", string(data))

	reparsed := parser.Parse("### File: `roundtrip.txt`\n```\n" + string(data) + "```\n")
	require.Len(t, reparsed.Edits, 1)
	assert.Equal(t, original, reparsed.Edits[0].Content)
}

func TestApplyFailFast(t *testing.T) {
	root := t.TempDir()
	// A file where a parent directory is needed blocks MkdirAll.
	require.NoError(t, os.WriteFile(filepath.Join(root, "blocker"), []byte("x\n"), 0644))

	edits := []parser.FileEdit{
		{Path: "ok.txt", Action: parser.ActionCreate, Content: "fine"},
		{Path: "blocker/child.txt", Action: parser.ActionCreate, Content: "cannot happen"},
		{Path: "after.txt", Action: parser.ActionCreate, Content: "never reached"},
	}

	summary, err := Apply(edits, root)
	require.Error(t, err)
	assert.Len(t, summary, 1, "edits after the failing one are not attempted")

	_, statErr := os.Stat(filepath.Join(root, "after.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestApplySummaryString(t *testing.T) {
	summary := ApplySummary{
		{Path: "a.txt", Outcome: OutcomeCreated},
		{Path: "b.txt", Outcome: OutcomeSkippedMissing},
	}
	s := summary.String()
	assert.Contains(t, s, "Created: a.txt")
	assert.Contains(t, s, "Skip delete (not found): b.txt")
}
