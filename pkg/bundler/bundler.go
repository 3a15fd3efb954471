package bundler

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Patterns that are skipped regardless of ignore files.
var defaultIgnorePatterns = []string{
	".git/",
	".autopatch/",
	"__pycache__/",
	"*.pyc",
	".pytest_cache/",
	"node_modules/",
	".next/",
	"target/",
	".idea/",
	".vscode/",
	"*.lock",
	"package-lock.json",
	"*.min.js",
	"*.min.css",
	"dist/",
	"build/",
	".env",
	".env.*",
	"*.log",
	"*.sqlite",
	"*.db",
}

var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".ico": true, ".svg": true, ".pdf": true, ".zip": true, ".tar": true,
	".gz": true, ".rar": true, ".7z": true, ".exe": true, ".dll": true,
	".so": true, ".dylib": true, ".woff": true, ".woff2": true, ".ttf": true,
	".eot": true, ".mp3": true, ".mp4": true, ".wav": true, ".jar": true,
	".class": true, ".pyc": true, ".pyo": true,
}

// maxFileSize caps how much of a single file is bundled (100 KB).
const maxFileSize = 100 * 1024

// Bundle walks the repository and concatenates every text file into one
// prompt-ready string, one fenced section per file. Ignore rules come from
// the built-in defaults plus .gitignore and .autopatchignore.
func Bundle(root string) (string, error) {
	rules := loadIgnoreRules(root)

	var sections []string
	fileCount := 0
	totalSize := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rules.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if rules.MatchesPath(rel) {
			return nil
		}

		content, ok := readTextFile(path)
		if !ok {
			return nil
		}

		sections = append(sections, fmt.Sprintf("### File: `%s`\n\n```\n%s\n```", rel, content))
		fileCount++
		totalSize += len(content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("could not bundle repository at %s: %w", root, err)
	}

	header := fmt.Sprintf("Repository contains %d files (%d characters)\n\n", fileCount, totalSize)
	return header + strings.Join(sections, "\n\n---\n\n"), nil
}

// FileTree returns an indented listing of the non-ignored files, used to
// give the model a cheap structural overview.
func FileTree(root string) (string, error) {
	rules := loadIgnoreRules(root)

	var lines []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rules.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if rules.MatchesPath(rel) {
			return nil
		}
		lines = append(lines, rel)
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// loadIgnoreRules combines the default patterns with .gitignore and
// .autopatchignore when present.
func loadIgnoreRules(root string) *ignore.GitIgnore {
	allRules := append([]string{}, defaultIgnorePatterns...)

	for _, name := range []string{".gitignore", ".autopatchignore"} {
		if rules, err := readIgnoreFile(filepath.Join(root, name)); err == nil {
			allRules = append(allRules, rules...)
		}
	}

	return ignore.CompileIgnoreLines(allRules...)
}

func readIgnoreFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// readTextFile loads a file for bundling, skipping binaries and replacing
// oversized files with a placeholder so paths still show up in context.
func readTextFile(path string) (string, bool) {
	if binaryExtensions[strings.ToLower(filepath.Ext(path))] {
		return "", false
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if info.Size() > maxFileSize {
		return fmt.Sprintf("[File too large: %d bytes]", info.Size()), true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	if bytes.IndexByte(data[:min(len(data), 1024)], 0) != -1 {
		return "", false
	}
	return string(data), true
}
