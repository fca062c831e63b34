package git_test

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
		"GIT_COMMITTER_DATE=2024-05-01T12:00:00Z",
		"GIT_AUTHOR_DATE=2024-05-01T12:00:00Z",
	)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))
}

// createRepository creates <root>/alice/project with a README, a source
// directory and an executable script, and returns its directory.
func createRepository(t *testing.T, root string) string {
	t.Helper()

	dir := filepath.Join(root, "alice", "project")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))

	runGit(t, dir, "init", "-q")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Project\n\nHello.\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.c"), []byte("int main(void)\n{\n\treturn 0;\n}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0755))

	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial commit")

	return dir
}
