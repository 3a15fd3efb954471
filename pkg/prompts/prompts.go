package prompts

import (
	"fmt"
	"strings"
)

// systemPrompt instructs the model to respond in one of the formats the
// parser understands. Full file contents are required; partial files break
// the apply step.
const systemPrompt = `You are an automated software engineer. You will be given a change request
and the full contents of a repository. Respond with complete file changes
that implement the request and keep the validation command passing.

Respond in this format:

## Explanation

<short rationale for the change>

## Changes

### File: ` + "`path/to/file`" + `
### Action: create|modify|delete
` + "```" + `
<COMPLETE file content>
` + "```" + `

Rules:
- Provide the ENTIRE content of every file you create or modify, never a fragment.
- Use one section per file. Paths are relative to the repository root.
- For deletions, give the File and Action lines with no code block.
- Alternatively you may answer with a single fenced json block:
  {"explanation": "...", "changes": [{"path": "...", "action": "create|modify|delete", "content": "..."}]}
- Do not modify files outside the repository.`

// SystemPrompt returns the implementation system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// Feedback carries the failure context of the previous attempt into the
// next prompt. Only one prior attempt is ever included.
type Feedback struct {
	ValidationOutput string
	ChangesSummary   string
}

// Request describes the change to make and the environment it runs in.
type Request struct {
	Text            string
	Language        string
	ValidateCommand string
	RepoBundle      string
}

// BuildUserMessage assembles the user message for one attempt. When
// feedback is non-nil the previous attempt's validation output and change
// summary are appended as corrective context.
func BuildUserMessage(req Request, feedback *Feedback) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Change Request\n\n%s\n", strings.TrimSpace(req.Text))

	b.WriteString("\n## Repository Context\n\n")
	if req.Language != "" {
		fmt.Fprintf(&b, "**Language:** %s\n", req.Language)
	}
	if req.ValidateCommand != "" {
		fmt.Fprintf(&b, "**Validation Command:** `%s`\n", req.ValidateCommand)
	}

	if req.RepoBundle != "" {
		fmt.Fprintf(&b, "\n## Codebase\n\n%s\n", req.RepoBundle)
	}

	if feedback != nil {
		fmt.Fprintf(&b, `
## Previous Attempt Failed

Your previous changes did not pass validation. Here's what happened:

**Validation Output:**
`+"```"+`
%s
`+"```"+`

**Your Previous Changes:**
%s

Analyze the failures and provide corrected changes.
`, feedback.ValidationOutput, feedback.ChangesSummary)
	}

	return b.String()
}
