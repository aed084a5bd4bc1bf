package tcnats

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/nats-io/nats.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultImage = "nats:2.10"

// SkipWithoutNATS skips tests needing a NATS server unless
// TESTNATS_URL or TESTCONTAINERS is set.
func SkipWithoutNATS(t *testing.T) {
	t.Helper()
	if os.Getenv("TESTNATS_URL") == "" && os.Getenv("TESTCONTAINERS") == "" {
		t.Skip("nats not configured (set TESTNATS_URL or TESTCONTAINERS)")
	}
}

// Connect returns a connection to a JetStream enabled NATS server.
// TESTNATS_URL selects an external server instead of a container.
// The connection (and container) are released after the test.
func Connect(t *testing.T) *nats.Conn {
	t.Helper()
	url := os.Getenv("TESTNATS_URL")
	if url == "" {
		url = startContainer(t)
	}
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting to nats at %s: %v", url, err)
	}
	t.Cleanup(nc.Close)
	return nc
}

func startContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	port := nat.Port("4222/tcp")
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        defaultImage,
				ExposedPorts: []string{string(port)},
				Cmd:          []string{"-js"},
				WaitingFor: wait.ForAll(
					wait.ForLog("Server is ready"),
					wait.ForListeningPort(port),
				).WithDeadline(time.Minute),
			},
			Started: true,
		})
	if err != nil {
		t.Fatalf("starting nats container: %v", err)
	}
	t.Cleanup(func() {
		//nolint:errcheck // test cleanup
		testcontainers.TerminateContainer(container)
	})
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("nats://%s:%s", host, mapped.Port())
}
