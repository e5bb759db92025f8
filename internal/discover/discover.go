// Package discover locates the session store when it runs inside a Docker
// container. Compose setups often publish the store on a bridge network
// without a host port, so the CLI inspects the container and reads the IP
// address off its network endpoints.
package discover

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/joho/godotenv"

	"github.com/greenroom-sh/greenroom/internal/models"
)

// Result describes a discovered store endpoint.
type Result struct {
	ContainerID string
	Network     string
	Address     string
}

// Discoverer inspects Docker containers to find the store's address.
type Discoverer struct {
	cli *client.Client
}

// New builds a discoverer using the environment's Docker configuration.
func New() (*Discoverer, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Discoverer{cli: cli}, nil
}

// Close releases the underlying Docker client.
func (d *Discoverer) Close() error {
	return d.cli.Close()
}

// Discover inspects containerName and returns its IP address. When
// networkName is non-empty the container must be attached to that network;
// otherwise the first endpoint with an address wins, with endpoints
// visited in name order so repeated runs agree.
func (d *Discoverer) Discover(ctx context.Context, containerName, networkName string) (Result, error) {
	inspect, err := d.cli.ContainerInspect(ctx, containerName)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return Result{}, fmt.Errorf("container %q: %w", containerName, models.ErrNotFound)
		}
		return Result{}, fmt.Errorf("inspect container %s: %w", containerName, err)
	}
	if inspect.NetworkSettings == nil {
		return Result{}, fmt.Errorf("container %q has no network settings", containerName)
	}

	netName, addr, err := pickAddress(inspect.NetworkSettings.Networks, networkName)
	if err != nil {
		return Result{}, fmt.Errorf("container %q: %w", containerName, err)
	}

	slog.Debug("discovered store endpoint",
		"container", containerName,
		"network", netName,
		"address", addr,
	)
	return Result{ContainerID: inspect.ID, Network: netName, Address: addr}, nil
}

// pickAddress selects an endpoint address from the container's networks.
func pickAddress(networks map[string]*network.EndpointSettings, preferred string) (string, string, error) {
	if preferred != "" {
		ep, ok := networks[preferred]
		if !ok {
			return "", "", fmt.Errorf("not attached to network %q", preferred)
		}
		if ep == nil || ep.IPAddress == "" {
			return "", "", fmt.Errorf("no address on network %q", preferred)
		}
		return preferred, ep.IPAddress, nil
	}

	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ep := networks[name]; ep != nil && ep.IPAddress != "" {
			return name, ep.IPAddress, nil
		}
	}
	return "", "", fmt.Errorf("no network endpoint has an address")
}

// UpdateEnvFile records the discovered host in a dotenv file so later runs
// pick it up through the environment. Existing entries are preserved.
func UpdateEnvFile(path, host string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		env = map[string]string{}
	}
	env["REDIS_HOST"] = host
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
