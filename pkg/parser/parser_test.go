package parser

import (
	"testing"
)

func TestParseStructuredBlock(t *testing.T) {
	response := "Here is the fix.\n\n```json\n" +
		`{"explanation": "add helper", "changes": [` +
		`{"path": "src/utils.py", "action": "create", "content": "def helper():\n    return 1"},` +
		`{"path": "src/main.py", "action": "modify", "content": "print(1)"}]}` +
		"\n```\n\n### File: `ignored.py`\n```python\nshould not appear\n```\n"

	result := Parse(response)

	if result.Explanation != "add helper" {
		t.Errorf("Parse() explanation = %q, want %q", result.Explanation, "add helper")
	}
	if len(result.Edits) != 2 {
		t.Fatalf("Parse() returned %d edits, want 2", len(result.Edits))
	}
	if result.Edits[0].Path != "src/utils.py" || result.Edits[0].Action != ActionCreate {
		t.Errorf("Parse() first edit = %+v, want create src/utils.py", result.Edits[0])
	}
	for _, e := range result.Edits {
		if e.Path == "ignored.py" {
			t.Error("Parse() picked up tagged section despite valid JSON block")
		}
	}
}

func TestParseStructuredBlockEmptyChangesWins(t *testing.T) {
	// A valid JSON block with an empty change list still takes precedence
	// over tagged sections in the same response.
	response := "```json\n{\"explanation\": \"nothing to do\", \"changes\": []}\n```\n\n" +
		"### File: `a.txt`\n```\nhello\n```\n"

	result := Parse(response)

	if len(result.Edits) != 0 {
		t.Errorf("Parse() returned %d edits, want 0", len(result.Edits))
	}
	if result.Explanation != "nothing to do" {
		t.Errorf("Parse() explanation = %q, want %q", result.Explanation, "nothing to do")
	}
}

func TestParseMalformedJSONFallsThrough(t *testing.T) {
	response := "```json\n{not valid json\n```\n\n### File: `a.txt`\n```\nhello\n```\n"

	result := Parse(response)

	if len(result.Edits) != 1 || result.Edits[0].Path != "a.txt" {
		t.Fatalf("Parse() edits = %+v, want single a.txt edit", result.Edits)
	}
}

func TestParseTaggedSections(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantPaths   []string
		wantActions []Action
		wantContent []string
	}{
		{
			name: "single create with action heading",
			response: "## Explanation\n\nAdds a file.\n\n## Changes\n\n" +
				"### File: `a.txt`\n### Action: create\n```\nhello\n```\n",
			wantPaths:   []string{"a.txt"},
			wantActions: []Action{ActionCreate},
			wantContent: []string{"hello"},
		},
		{
			name: "missing action defaults to modify",
			response: "### File: `src/main.go`\n```go\npackage main\n\nfunc main() {}\n```\n",
			wantPaths:   []string{"src/main.go"},
			wantActions: []Action{ActionModify},
			wantContent: []string{"package main\n\nfunc main() {}"},
		},
		{
			name: "multiple files keep order",
			response: "### File: `b.txt`\n### Action: modify\n```\nbbb\n```\n\n" +
				"### File: `a.txt`\n### Action: create\n```\naaa\n```\n",
			wantPaths:   []string{"b.txt", "a.txt"},
			wantActions: []Action{ActionModify, ActionCreate},
			wantContent: []string{"bbb", "aaa"},
		},
		{
			name: "case-insensitive action",
			response: "### File: `a.txt`\n### Action: CREATE\n```\nx\n```\n",
			wantPaths:   []string{"a.txt"},
			wantActions: []Action{ActionCreate},
			wantContent: []string{"x"},
		},
		{
			name: "unknown action preserved",
			response: "### File: `a.txt`\n### Action: rename\n```\nx\n```\n",
			wantPaths:   []string{"a.txt"},
			wantActions: []Action{"rename"},
			wantContent: []string{"x"},
		},
		{
			name: "duplicate path first wins",
			response: "### File: `a.txt`\n### Action: create\n```\nfirst\n```\n\n" +
				"### File: `a.txt`\n### Action: modify\n```\nsecond\n```\n",
			wantPaths:   []string{"a.txt"},
			wantActions: []Action{ActionCreate},
			wantContent: []string{"first"},
		},
		{
			name: "loose format without backticks",
			response: "File: src/app.js\nAction: modify\n```js\nconsole.log(1);\n```\n",
			wantPaths:   []string{"src/app.js"},
			wantActions: []Action{ActionModify},
			wantContent: []string{"console.log(1);"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.response)

			if len(result.Edits) != len(tt.wantPaths) {
				t.Fatalf("Parse() returned %d edits, want %d: %+v", len(result.Edits), len(tt.wantPaths), result.Edits)
			}
			for i, edit := range result.Edits {
				if edit.Path != tt.wantPaths[i] {
					t.Errorf("edit[%d].Path = %q, want %q", i, edit.Path, tt.wantPaths[i])
				}
				if edit.Action != tt.wantActions[i] {
					t.Errorf("edit[%d].Action = %q, want %q", i, edit.Action, tt.wantActions[i])
				}
				if edit.Content != tt.wantContent[i] {
					t.Errorf("edit[%d].Content = %q, want %q", i, edit.Content, tt.wantContent[i])
				}
			}
		})
	}
}

func TestParseDeleteOnlySection(t *testing.T) {
	response := "### File: `old/junk.txt`\n### Action: delete\n\n" +
		"### File: `kept.txt`\n### Action: modify\n```\nstill here\n```\n"

	result := Parse(response)

	if len(result.Edits) != 2 {
		t.Fatalf("Parse() returned %d edits, want 2: %+v", len(result.Edits), result.Edits)
	}
	var deleted *FileEdit
	for i := range result.Edits {
		if result.Edits[i].Path == "old/junk.txt" {
			deleted = &result.Edits[i]
		}
	}
	if deleted == nil {
		t.Fatal("Parse() missing delete edit for old/junk.txt")
	}
	if deleted.Action != ActionDelete || deleted.Content != "" {
		t.Errorf("delete edit = %+v, want delete with empty content", *deleted)
	}
}

func TestParseDeleteDedupKeepsContentBearingEdit(t *testing.T) {
	// The same path appears with a code block and with a bare delete heading;
	// the content-bearing entry wins and the path stays unique.
	response := "### File: `a.txt`\n### Action: modify\n```\nnew content\n```\n\n" +
		"### File: `a.txt`\n### Action: delete\n"

	result := Parse(response)

	if len(result.Edits) != 1 {
		t.Fatalf("Parse() returned %d edits, want 1: %+v", len(result.Edits), result.Edits)
	}
	if result.Edits[0].Action != ActionModify || result.Edits[0].Content != "new content" {
		t.Errorf("Parse() edit = %+v, want content-bearing modify", result.Edits[0])
	}
}

func TestParseNoRecognizableFormat(t *testing.T) {
	result := Parse("I couldn't figure out how to fix this, sorry.")

	if len(result.Edits) != 0 {
		t.Errorf("Parse() returned %d edits, want 0", len(result.Edits))
	}
}

func TestParseExplanationHeading(t *testing.T) {
	response := "## Explanation\n\nFixes the off-by-one in the pager.\n\n## Changes\n\n" +
		"### File: `pager.go`\n```go\npackage pager\n```\n"

	result := Parse(response)

	if result.Explanation != "Fixes the off-by-one in the pager." {
		t.Errorf("Parse() explanation = %q", result.Explanation)
	}
}

func TestParseRejectsEscapingPaths(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			name:     "absolute path",
			response: "### File: `/etc/passwd`\n### Action: modify\n```\nx\n```\n",
		},
		{
			name:     "parent escape",
			response: "### File: `../outside.txt`\n### Action: create\n```\nx\n```\n",
		},
		{
			name:     "nested parent escape",
			response: "### File: `a/../../outside.txt`\n### Action: create\n```\nx\n```\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.response)
			if len(result.Edits) != 0 {
				t.Errorf("Parse() accepted unsafe path: %+v", result.Edits)
			}
		})
	}
}

func TestSanitizePathNormalizes(t *testing.T) {
	cleaned, ok := sanitizePath(" src/./lib/util.go ")
	if !ok || cleaned != "src/lib/util.go" {
		t.Errorf("sanitizePath() = %q, %v, want src/lib/util.go, true", cleaned, ok)
	}
}
