package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a git repository with one committed file.
func initRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(root, "tracked.txt"), []byte("original\n"), 0644))
	run("add", ".")
	run("commit", "-m", "initial")

	return root
}

func TestBaselineRestore(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	root := initRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "tracked.txt"), []byte("mutated\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "untracked.txt"), []byte("new\n"), 0644))

	dirty, err := HasUncommittedChanges(root)
	require.NoError(t, err)
	assert.True(t, dirty)

	require.NoError(t, NewBaseline().Restore(root))

	data, err := os.ReadFile(filepath.Join(root, "tracked.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(data))

	_, err = os.Stat(filepath.Join(root, "untracked.txt"))
	assert.True(t, os.IsNotExist(err), "untracked files are cleaned")

	dirty, err = HasUncommittedChanges(root)
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestIsRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	root := initRepo(t)
	assert.True(t, IsRepository(root))
	assert.False(t, IsRepository(t.TempDir()))
}

func TestRootDir(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	root := initRepo(t)
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	found, err := RootDir(sub)
	require.NoError(t, err)

	// TempDir may be behind a symlink; compare resolved paths.
	wantResolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, wantResolved, found)
}
