package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserMessageFirstAttempt(t *testing.T) {
	msg := BuildUserMessage(Request{
		Text:            "Fix the off-by-one in the pager",
		Language:        "go",
		ValidateCommand: "go test ./...",
		RepoBundle:      "### pager.go\n```go\npackage pager\n```",
	}, nil)

	assert.Contains(t, msg, "Fix the off-by-one in the pager")
	assert.Contains(t, msg, "**Language:** go")
	assert.Contains(t, msg, "`go test ./...`")
	assert.Contains(t, msg, "## Codebase")
	assert.NotContains(t, msg, "Previous Attempt Failed")
}

func TestBuildUserMessageWithFeedback(t *testing.T) {
	msg := BuildUserMessage(Request{Text: "do the thing"}, &Feedback{
		ValidationOutput: "FAIL: TestPager",
		ChangesSummary:   "Modified: pager.go",
	})

	assert.Contains(t, msg, "Previous Attempt Failed")
	assert.Contains(t, msg, "FAIL: TestPager")
	assert.Contains(t, msg, "Modified: pager.go")
}

func TestSystemPromptDescribesFormats(t *testing.T) {
	p := SystemPrompt()
	assert.True(t, strings.Contains(p, "### File:"), "system prompt must describe the tagged format")
	assert.True(t, strings.Contains(p, `"changes"`), "system prompt must describe the json format")
}
