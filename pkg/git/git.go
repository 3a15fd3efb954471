package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// RootDir returns the absolute path to the root of the repository
// containing dir.
func RootDir(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("could not find git root: %v", strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepository reports whether dir is inside a git work tree.
func IsRepository(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// Baseline restores a workspace to its pre-run state by discarding
// working-tree changes and removing untracked files. It assumes the
// pre-run tree was clean; autopatch checks that before the first attempt.
type Baseline struct{}

// NewBaseline returns a git-backed workspace reset.
func NewBaseline() *Baseline {
	return &Baseline{}
}

// Restore discards every change under root made since the last commit.
func (b *Baseline) Restore(root string) error {
	checkout := exec.Command("git", "checkout", "--", ".")
	checkout.Dir = root
	if out, err := checkout.CombinedOutput(); err != nil {
		return fmt.Errorf("could not revert tracked changes: %v", strings.TrimSpace(string(out)))
	}

	clean := exec.Command("git", "clean", "-fd")
	clean.Dir = root
	if out, err := clean.CombinedOutput(); err != nil {
		return fmt.Errorf("could not remove untracked files: %v", strings.TrimSpace(string(out)))
	}
	return nil
}

// HasUncommittedChanges reports whether the work tree at root is dirty.
func HasUncommittedChanges(root string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("could not get git status: %v", strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)) != "", nil
}
