// Package fakeclient provides an in-memory api.Client with call counters.
package fakeclient

import (
	"context"
	"sync"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
)

type Client struct {
	Mode        model.Mode
	SessionRows map[int][]api.SessionRow
	DriverRows  map[string][]api.DriverRow
	LapRows     map[string]map[string][]api.LapRow       // session -> driver -> laps
	CarRows     map[string]map[string][]api.TelemetryRow // session -> driver -> rows
	// Err is returned by every call of the query kind (sessions, drivers, laps, car_data)
	Err map[string]error

	mu    sync.Mutex
	calls map[string]int
}

var _ api.Client = (*Client)(nil)

func New() *Client {
	return &Client{
		Mode:        model.ModeLap,
		SessionRows: map[int][]api.SessionRow{},
		DriverRows:  map[string][]api.DriverRow{},
		LapRows:     map[string]map[string][]api.LapRow{},
		CarRows:     map[string]map[string][]api.TelemetryRow{},
		Err:         map[string]error{},
		calls:       map[string]int{},
	}
}

// Calls returns the number of calls of the query kind
func (c *Client) Calls(kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[kind]
}

func (c *Client) count(kind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[kind]++
	return c.Err[kind]
}

func (c *Client) Name() string { return "fake" }

func (c *Client) DefaultMode() model.Mode { return c.Mode }

func (c *Client) Sessions(_ context.Context, year int) ([]api.SessionRow, error) {
	if err := c.count("sessions"); err != nil {
		return nil, err
	}
	return result("sessions", c.SessionRows[year])
}

func (c *Client) Drivers(_ context.Context, sessionKey string) ([]api.DriverRow, error) {
	if err := c.count("drivers"); err != nil {
		return nil, err
	}
	return result("drivers", c.DriverRows[sessionKey])
}

func (c *Client) Laps(_ context.Context, sessionKey, driverID string) ([]api.LapRow, error) {
	if err := c.count("laps"); err != nil {
		return nil, err
	}
	return result("laps", c.LapRows[sessionKey][driverID])
}

//nolint:whitespace // editor/linter issue
func (c *Client) CarData(
	_ context.Context,
	sessionKey, driverID string,
) ([]api.TelemetryRow, error) {
	if err := c.count("car_data"); err != nil {
		return nil, err
	}
	return result("car_data", c.CarRows[sessionKey][driverID])
}

func result[T any](what string, rows []T) ([]T, error) {
	if len(rows) == 0 {
		return nil, api.Empty(what)
	}
	return rows, nil
}
