package docker

import (
	"context"

	"github.com/moby/moby/client"
)

// DockerClient is the part of the Docker API the sandbox uses. It allows
// tests to inject a mock.
//
// The real Docker client (*client.Client from moby/moby/client) implements
// this interface.
type DockerClient interface {
	Ping(ctx context.Context, options client.PingOptions) (client.PingResult, error)
	Close() error
}
