package parser

import (
	"encoding/json"
	"path"
	"regexp"
	"strings"
)

// Action describes what a FileEdit does to its target path.
type Action string

const (
	ActionCreate Action = "create"
	ActionModify Action = "modify"
	ActionDelete Action = "delete"
)

// FileEdit is a single file-level mutation extracted from a model response.
// Content is empty for deletes. Unrecognized action tokens are carried
// through as-is and classified when the edit is applied, not here.
type FileEdit struct {
	Path    string `json:"path"`
	Action  Action `json:"action"`
	Content string `json:"content"`
}

// ParseResult holds everything usable extracted from one model response.
// Edits is ordered and contains at most one entry per path.
type ParseResult struct {
	Explanation string     `json:"explanation"`
	Edits       []FileEdit `json:"changes"`
}

var (
	jsonBlockRegex = regexp.MustCompile("(?s)```json[ \t]*\n(.*?)\n```")

	// ### File: `path/to/file` followed by an optional Action line and a fenced block.
	taggedFileRegex = regexp.MustCompile("(?s)###?[ \t]*File:[ \t]*`([^`\n]+)`[ \t]*\n" +
		"(?:###?[ \t]*Action:[ \t]*(\\w+)[ \t]*\n)?" +
		"```\\w*[ \t]*\n(.*?)```")

	// Fallback for responses that drop the backticks and heading markers.
	looseFileRegex = regexp.MustCompile("(?s)(?:###?[ \t]*)?File:[ \t]*([^`\n]+)\n" +
		"(?:Action:[ \t]*(\\w+)[ \t]*\n)?" +
		"```\\w*[ \t]*\n(.*?)```")

	// File heading immediately followed by a delete action, no code block.
	deleteOnlyRegex = regexp.MustCompile("(?i)###?[ \t]*File:[ \t]*`?([^`\n]+?)`?[ \t]*\n" +
		"###?[ \t]*Action:[ \t]*delete")

	explanationHeadingRegex = regexp.MustCompile("(?i)##[ \t]*Explanation[ \t]*\n")
	sectionHeadingRegex     = regexp.MustCompile("(?i)##[ \t]*(?:Changes|File:)")
)

// Parse extracts a ParseResult from raw model response text. It never fails:
// malformed input degrades to a result with no edits, which the caller treats
// as a retry signal. Formats are tried in fixed precedence order; a valid
// structured JSON block wins outright, even when its change list is empty.
func Parse(text string) ParseResult {
	if result, ok := parseStructuredBlock(text); ok {
		return result
	}

	result := ParseResult{Explanation: extractExplanation(text)}
	seen := make(map[string]bool)

	for _, re := range []*regexp.Regexp{taggedFileRegex, looseFileRegex} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			cleanPath, ok := sanitizePath(m[1])
			if !ok || seen[cleanPath] {
				continue
			}
			seen[cleanPath] = true
			result.Edits = append(result.Edits, FileEdit{
				Path:    cleanPath,
				Action:  normalizeAction(m[2]),
				Content: strings.TrimSuffix(m[3], "\n"),
			})
		}
		if len(result.Edits) > 0 {
			break
		}
	}

	// Delete headings carry no code block. Content-bearing entries for the
	// same path always win.
	for _, m := range deleteOnlyRegex.FindAllStringSubmatch(text, -1) {
		cleanPath, ok := sanitizePath(m[1])
		if !ok || seen[cleanPath] {
			continue
		}
		seen[cleanPath] = true
		result.Edits = append(result.Edits, FileEdit{Path: cleanPath, Action: ActionDelete})
	}

	return result
}

// parseStructuredBlock looks for a fenced ```json block holding an object
// with a "changes" list. Presence of the key is what selects this format;
// an empty list still short-circuits the markdown fallbacks.
func parseStructuredBlock(text string) (ParseResult, bool) {
	m := jsonBlockRegex.FindStringSubmatch(text)
	if m == nil {
		return ParseResult{}, false
	}

	var raw struct {
		Explanation string `json:"explanation"`
		Changes     *[]struct {
			Path    string `json:"path"`
			Action  string `json:"action"`
			Content string `json:"content"`
		} `json:"changes"`
	}
	if err := json.Unmarshal([]byte(m[1]), &raw); err != nil || raw.Changes == nil {
		return ParseResult{}, false
	}

	result := ParseResult{Explanation: raw.Explanation}
	seen := make(map[string]bool)
	for _, c := range *raw.Changes {
		cleanPath, ok := sanitizePath(c.Path)
		if !ok || seen[cleanPath] {
			continue
		}
		seen[cleanPath] = true
		result.Edits = append(result.Edits, FileEdit{
			Path:    cleanPath,
			Action:  normalizeAction(c.Action),
			Content: c.Content,
		})
	}
	return result, true
}

// extractExplanation returns the text under an "## Explanation" heading, up
// to the next "## Changes" / "## File:" heading or end of input.
func extractExplanation(text string) string {
	loc := explanationHeadingRegex.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if end := sectionHeadingRegex.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return strings.TrimSpace(rest)
}

// normalizeAction maps recognized action tokens case-insensitively to their
// canonical form. Anything else is kept verbatim so apply-time reporting can
// surface it; an empty token defaults to modify.
func normalizeAction(token string) Action {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "":
		return ActionModify
	case string(ActionCreate):
		return ActionCreate
	case string(ActionModify):
		return ActionModify
	case string(ActionDelete):
		return ActionDelete
	}
	return Action(token)
}

// sanitizePath normalizes a path extracted from response text and rejects
// anything that could resolve outside the workspace root.
func sanitizePath(p string) (string, bool) {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, ":") {
		return "", false
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}
