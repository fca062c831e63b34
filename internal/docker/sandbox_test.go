package docker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
	"github.com/stretchr/testify/require"

	"github.com/exgt/exgt/internal/chain"
	"github.com/exgt/exgt/internal/docker"
)

func TestSandbox(t *testing.T) {
	t.Run("NewSandbox", func(t *testing.T) {
		t.Run("requires an image", func(t *testing.T) {
			_, err := docker.NewSandbox(&mockDockerClient{}, "", newMockWriter())
			require.ErrorIs(t, err, docker.ErrNoImage)
		})
	})

	t.Run("Wrap", func(t *testing.T) {
		t.Run("runs the stage in a disposable offline container", func(t *testing.T) {
			sandbox, err := docker.NewSandbox(&mockDockerClient{}, "exgt-tools:latest", newMockWriter())
			require.NoError(t, err)
			require.Equal(t, "exgt-tools:latest", sandbox.Image())

			stage := chain.Stage{"highlight", "-S", "go", "-O", "html", "-f"}
			wrapped := sandbox.Wrap(stage)

			require.Equal(t, chain.Stage{
				"docker", "run", "-i", "--rm", "--network", "none", "--read-only",
				"--cap-drop", "ALL", "--security-opt", "no-new-privileges",
				"--memory", "268435456", "--pids-limit", "64",
				"exgt-tools:latest",
				"highlight", "-S", "go", "-O", "html", "-f",
			}, wrapped)
			require.Equal(t, chain.Stage{"highlight", "-S", "go", "-O", "html", "-f"}, stage)
		})

		t.Run("follows the host config", func(t *testing.T) {
			sandbox, err := docker.NewSandbox(&mockDockerClient{}, "exgt-tools:latest", newMockWriter(),
				docker.WithHostConfig(container.HostConfig{
					NetworkMode: container.NetworkMode("bridge"),
					Resources:   container.Resources{Memory: 1 << 30},
				}))
			require.NoError(t, err)
			require.Equal(t, container.NetworkMode("bridge"), sandbox.HostConfig().NetworkMode)

			require.Equal(t, chain.Stage{
				"docker", "run", "-i", "--network", "bridge", "--memory", "1073741824",
				"exgt-tools:latest", "markdown",
			}, sandbox.Wrap(chain.Stage{"markdown"}))
		})
	})

	t.Run("Check", func(t *testing.T) {
		t.Run("succeeds when the daemon answers", func(t *testing.T) {
			var pinged bool
			writer := newMockWriter()
			sandbox, err := docker.NewSandbox(&mockDockerClient{
				pingFunc: func(ctx context.Context, options client.PingOptions) (client.PingResult, error) {
					pinged = true
					return client.PingResult{APIVersion: "1.52"}, nil
				},
			}, "exgt-tools:latest", writer)
			require.NoError(t, err)

			require.NoError(t, sandbox.Check(context.Background()))
			require.True(t, pinged)
			require.Contains(t, writer.String(), "API 1.52")
		})

		t.Run("fails when the daemon is unreachable", func(t *testing.T) {
			sandbox, err := docker.NewSandbox(&mockDockerClient{
				pingFunc: func(ctx context.Context, options client.PingOptions) (client.PingResult, error) {
					return client.PingResult{}, errors.New("connection refused")
				},
			}, "exgt-tools:latest", newMockWriter())
			require.NoError(t, err)

			err = sandbox.Check(context.Background())
			require.Error(t, err)
			require.Contains(t, err.Error(), "failed to ping docker daemon")
			require.Contains(t, err.Error(), "connection refused")
		})
	})

	t.Run("Close", func(t *testing.T) {
		t.Run("closes the client", func(t *testing.T) {
			var closed bool
			sandbox, err := docker.NewSandbox(&mockDockerClient{
				closeFunc: func() error {
					closed = true
					return nil
				},
			}, "exgt-tools:latest", newMockWriter())
			require.NoError(t, err)

			require.NoError(t, sandbox.Close())
			require.True(t, closed)
		})
	})
}
