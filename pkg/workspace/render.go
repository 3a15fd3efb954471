package workspace

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/term"
)

const (
	redColor   = "\x1b[31m"
	greenColor = "\x1b[32m"
	boldStyle  = "\x1b[1m"
	resetColor = "\x1b[0m"
)

// colorEnabled reports whether stdout is a terminal that can take ANSI codes.
func colorEnabled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// RenderDiff produces a line-oriented unified-style diff of old vs new with
// a per-file stats header. Color codes are included only when requested.
func RenderDiff(path, originalCode, newCode string, color bool) string {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(originalCode, newCode)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	additions, deletions := 0, 0
	var body strings.Builder
	for _, d := range diffs {
		lines := strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			for _, line := range lines {
				additions++
				if color {
					fmt.Fprintf(&body, "%s+ %s%s\n", greenColor, line, resetColor)
				} else {
					fmt.Fprintf(&body, "+ %s\n", line)
				}
			}
		case diffmatchpatch.DiffDelete:
			for _, line := range lines {
				deletions++
				if color {
					fmt.Fprintf(&body, "%s- %s%s\n", redColor, line, resetColor)
				} else {
					fmt.Fprintf(&body, "- %s\n", line)
				}
			}
		case diffmatchpatch.DiffEqual:
			// Show at most one line of context on each side of a change.
			if len(lines) > 2 {
				lines = []string{lines[0], "  ...", lines[len(lines)-1]}
			}
			for _, line := range lines {
				fmt.Fprintf(&body, "  %s\n", line)
			}
		}
	}

	var header strings.Builder
	if color {
		fmt.Fprintf(&header, "%s%s%s ", boldStyle, path, resetColor)
	} else {
		fmt.Fprintf(&header, "%s ", path)
	}
	if additions > 0 {
		fmt.Fprintf(&header, "+%d ", additions)
	}
	if deletions > 0 {
		fmt.Fprintf(&header, "-%d", deletions)
	}
	return strings.TrimRight(header.String(), " ") + "\n" + body.String()
}

// PrintDiffs writes rendered diffs for every changed file to stdout in
// stable path order.
func PrintDiffs(diffs map[string]FileDiff) {
	paths := make([]string, 0, len(diffs))
	for p := range diffs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	color := colorEnabled()
	for _, p := range paths {
		d := diffs[p]
		fmt.Print(RenderDiff(p, d.Old, d.New, color))
	}
}
