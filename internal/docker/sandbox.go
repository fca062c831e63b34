package docker

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/chain"
)

// ErrNoImage is returned when a sandbox is created without an image.
var ErrNoImage = errors.New("sandbox image not set")

// Sandbox wraps pipeline stages so that they run in a container.
type Sandbox struct {
	client DockerClient
	image  string
	host   container.HostConfig
	writer internal.Writer
}

// SandboxOption configures a Sandbox.
type SandboxOption func(*Sandbox)

// WithHostConfig replaces the container settings of every stage.
func WithHostConfig(host container.HostConfig) SandboxOption {
	return func(s *Sandbox) {
		s.host = host
	}
}

// DefaultHostConfig returns the settings stages run with: no network, a
// read-only root filesystem, no capabilities and bounded memory and
// process counts. The container is removed when the stage exits.
func DefaultHostConfig() container.HostConfig {
	pids := int64(64)
	return container.HostConfig{
		AutoRemove:     true,
		NetworkMode:    container.NetworkMode("none"),
		ReadonlyRootfs: true,
		CapDrop:        []string{"ALL"},
		SecurityOpt:    []string{"no-new-privileges"},
		Resources: container.Resources{
			Memory:    256 << 20,
			PidsLimit: &pids,
		},
	}
}

// NewSandbox creates a Sandbox that runs stages in image.
func NewSandbox(dockerClient DockerClient, image string, w internal.Writer, opts ...SandboxOption) (Sandbox, error) {
	if image == "" {
		return Sandbox{}, ErrNoImage
	}

	s := Sandbox{
		client: dockerClient,
		image:  image,
		host:   DefaultHostConfig(),
		writer: w,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return s, nil
}

// NewDefaultSandbox creates a Sandbox with a real Docker client from the
// environment.
func NewDefaultSandbox(image string, w internal.Writer) (Sandbox, error) {
	cli, err := client.New(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return Sandbox{}, fmt.Errorf("failed to create docker client: %w\nEnsure Docker is running and DOCKER_HOST is set correctly", err)
	}

	sandbox, err := NewSandbox(cli, image, w)
	if err != nil {
		cli.Close()
		return Sandbox{}, err
	}

	return sandbox, nil
}

// Image returns the image stages run in.
func (s Sandbox) Image() string {
	return s.image
}

// Check pings the Docker daemon. Stages must not be built when it fails,
// since every wrapped stage would fail the same way.
func (s Sandbox) Check(ctx context.Context) error {
	ping, err := s.client.Ping(ctx, client.PingOptions{})
	if err != nil {
		return fmt.Errorf("failed to ping docker daemon: %w", err)
	}

	s.writer.Debugf("docker daemon reachable (API %s), sandboxing with %s", ping.APIVersion, s.image)
	return nil
}

// HostConfig returns the container settings of every stage.
func (s Sandbox) HostConfig() container.HostConfig {
	return s.host
}

// Wrap returns the stage rewritten to run in a fresh container that reads
// the stage's standard input.
func (s Sandbox) Wrap(stage chain.Stage) chain.Stage {
	wrapped := chain.Stage{"docker", "run", "-i"}
	wrapped = append(wrapped, runFlags(s.host)...)
	wrapped = append(wrapped, s.image)
	return append(wrapped, stage...)
}

// runFlags translates host into docker run flags.
func runFlags(host container.HostConfig) []string {
	var flags []string
	if host.AutoRemove {
		flags = append(flags, "--rm")
	}
	if host.NetworkMode != "" {
		flags = append(flags, "--network", string(host.NetworkMode))
	}
	if host.ReadonlyRootfs {
		flags = append(flags, "--read-only")
	}
	for _, capability := range host.CapDrop {
		flags = append(flags, "--cap-drop", capability)
	}
	for _, opt := range host.SecurityOpt {
		flags = append(flags, "--security-opt", opt)
	}
	if host.Memory > 0 {
		flags = append(flags, "--memory", strconv.FormatInt(host.Memory, 10))
	}
	if host.PidsLimit != nil && *host.PidsLimit > 0 {
		flags = append(flags, "--pids-limit", strconv.FormatInt(*host.PidsLimit, 10))
	}
	return flags
}

// Close closes the underlying Docker client connection.
func (s Sandbox) Close() error {
	return s.client.Close()
}
