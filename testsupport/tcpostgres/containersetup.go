package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultImage = "postgres:16"
	user         = "postgres"
	password     = "password"
	dbName       = "archive"
)

// ArchiveContainer is a (reused) postgres container holding the test archive
type ArchiveContainer struct {
	testcontainers.Container
	port nat.Port
}

type ContainerOption func(req *testcontainers.ContainerRequest)

func WithImage(image string) ContainerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.Image = image
	}
}

func WithName(containerName string) ContainerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.Name = containerName
	}
}

// StartArchiveContainer starts the container or reuses a running one with the same name.
func StartArchiveContainer(ctx context.Context, opts ...ContainerOption) (
	*ArchiveContainer, error,
) {
	port := nat.Port("5432/tcp")
	req := testcontainers.ContainerRequest{
		Image:        defaultImage,
		ExposedPorts: []string{string(port)},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbName,
		},
		Cmd: []string{"postgres", "-c", "fsync=off"},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort(port),
		).WithDeadline(time.Minute),
	}
	for _, opt := range opts {
		opt(&req)
	}

	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
			Reuse:            req.Name != "",
		})
	if err != nil {
		return nil, err
	}
	return &ArchiveContainer{Container: container, port: port}, nil
}

// URL returns the postgres url of the archive database
func (c *ArchiveContainer) URL(ctx context.Context) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := c.MappedPort(ctx, c.port)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, mapped.Port(), dbName), nil
}
