package router_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Some User",
		"GIT_AUTHOR_EMAIL=some@example.com",
		"GIT_COMMITTER_NAME=Some User",
		"GIT_COMMITTER_EMAIL=some@example.com",
	)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))
}

// createProjectRoot creates a project root holding alice/project and
// returns it.
func createProjectRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "alice", "project")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))

	runGit(t, dir, "init", "-q")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Project\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.c"), []byte("int main(void);\n"), 0644))

	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial commit")
	runGit(t, dir, "tag", "-a", "v1", "-m", "first release")

	return root
}
