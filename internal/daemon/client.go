// Package daemon provides the IPC client for querying a kild session
// daemon over its unix socket.
//
// Some agents run under a supervising daemon instead of a directly
// tracked process or window. For those sessions the daemon is the
// authority on liveness: the resolver asks it rather than probing the
// process table.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Status is a daemon's verdict on a session.
type Status string

const (
	StatusRunning  Status = "running"
	StatusCreating Status = "creating"
	StatusStopped  Status = "stopped"
	StatusNotFound Status = "not_found"
)

// DefaultTimeout bounds a daemon query. A daemon that cannot answer
// quickly is treated the same as one that is down.
const DefaultTimeout = 2 * time.Second

// Client talks to a kild daemon over its unix socket.
type Client struct {
	socketPath string
	httpClient *http.Client
}

// NewClient creates a client for the daemon listening on socketPath.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// SocketPath returns the socket this client dials.
func (c *Client) SocketPath() string { return c.socketPath }

type statusResponse struct {
	Status Status `json:"status"`
}

// GetSessionStatus asks the daemon for the status of a session. A 404
// maps to StatusNotFound rather than an error; any transport failure
// (daemon down, socket gone) is returned as an error for the caller to
// interpret.
func (c *Client) GetSessionStatus(ctx context.Context, sessionID string) (Status, error) {
	url := fmt.Sprintf("http://kild/v1/sessions/%s/status", sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building daemon request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying daemon at %s: %w", c.socketPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return StatusNotFound, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("daemon returned %d: %s", resp.StatusCode, body)
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decoding daemon response: %w", err)
	}
	return sr.Status, nil
}
