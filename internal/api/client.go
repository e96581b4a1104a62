// Package api implements the client for the remote aggregation server:
// connection lifecycle endpoints and the health-data file upload.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// PlatformAppleHealthKit is the platform identifier the server uses for
// HealthKit-backed connections.
const PlatformAppleHealthKit = "apple_healthkit"

// Sentinel errors surfaced to callers.
var (
	// ErrNotFound is returned when the server has no record for the user.
	ErrNotFound = errors.New("connection not found")
	// ErrMalformedResponse is returned when an expected field is missing
	// from the server's JSON. Callers degrade to "connection unknown"
	// rather than failing hard.
	ErrMalformedResponse = errors.New("malformed server response")
)

// ConnectedPlatform describes one platform's connection status for a user.
type ConnectedPlatform struct {
	PlatformName         string   `json:"platform_name"`
	LoggedIn             bool     `json:"logged_in"`
	LastSync             string   `json:"last_sync,omitempty"`
	ConnectedDeviceUUIDs []string `json:"connected_device_uuids,omitempty"`
}

// Connection is the server's view of a user's platform connections.
type Connection struct {
	UserUUID  string
	Platforms map[string]ConnectedPlatform
}

// IsConnected reports whether the named platform is logged in for this
// user. Unknown platforms are not connected.
func (c *Connection) IsConnected(platform string) bool {
	p, ok := c.Platforms[platform]
	return ok && p.LoggedIn
}

// connectionEnvelope is the raw wire shape of connection responses.
type connectionEnvelope struct {
	Data *struct {
		UserUUID    string                        `json:"user_uuid"`
		Connections map[string]*ConnectedPlatform `json:"connections"`
	} `json:"data"`
}

// ConnectOptions carries the optional fields of a connect request.
type ConnectOptions struct {
	// Email identifies the user on platforms that connect by account.
	Email string
	// RefreshToken is passed through for platforms that hand the server
	// an OAuth refresh token.
	RefreshToken string
}

// connectBody is the POST body for connect/disconnect requests.
type connectBody struct {
	Platform     string `json:"platform"`
	DeviceID     string `json:"device_id"`
	Email        string `json:"email,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Config holds everything the client needs to talk to the server.
type Config struct {
	BaseURL  string
	APIKey   string
	UserUUID string
	// Platform is the platform identifier sent on connect/disconnect,
	// e.g. "apple_healthkit".
	Platform string
	// DeviceID is the stable device identifier registered with the
	// server.
	DeviceID string
	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration
	// Logger for request activity. If nil, a default logger writing to
	// stderr is used.
	Logger *log.Logger
}

// Client talks to the remote aggregation server.
type Client struct {
	http   *resty.Client
	cfg    Config
	logger *log.Logger
}

// NewClient creates a server client from cfg.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[api] ", log.LstdFlags)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, cfg: cfg, logger: logger}
}

// CheckConnection fetches the user's current platform connections.
// A 404 maps to ErrNotFound; a response missing expected fields maps to
// ErrMalformedResponse.
func (c *Client) CheckConnection(ctx context.Context) (*Connection, error) {
	var envelope connectionEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":       c.cfg.APIKey,
			"user_uuid": c.cfg.UserUUID,
		}).
		SetResult(&envelope).
		Get("/check_watch_connection")
	if err != nil {
		return nil, fmt.Errorf("failed to check connection: %w", err)
	}

	if resp.StatusCode() == 404 {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("check connection returned status %d", resp.StatusCode())
	}

	return envelope.toConnection()
}

// Connect registers this platform for the user on the server.
func (c *Client) Connect(ctx context.Context, opts ConnectOptions) (*Connection, error) {
	return c.postConnection(ctx, connectBody{
		Platform:     c.cfg.Platform,
		DeviceID:     c.cfg.DeviceID,
		Email:        opts.Email,
		RefreshToken: opts.RefreshToken,
	}, false)
}

// Disconnect removes this platform connection on the server.
func (c *Client) Disconnect(ctx context.Context) (*Connection, error) {
	return c.postConnection(ctx, connectBody{
		Platform: c.cfg.Platform,
		DeviceID: c.cfg.DeviceID,
	}, true)
}

func (c *Client) postConnection(ctx context.Context, body connectBody, disconnect bool) (*Connection, error) {
	query := map[string]string{
		"key":       c.cfg.APIKey,
		"user_uuid": c.cfg.UserUUID,
	}
	if disconnect {
		query["disconnect"] = "true"
	}

	var envelope connectionEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&envelope).
		Post("/connect_platform_for_user")
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return envelope.toConnection()
}

// UploadFile uploads a serialized batch file as multipart form data.
// The response body is ignored beyond the success/failure status.
func (c *Client) UploadFile(ctx context.Context, path, dataSource string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open upload file: %w", err)
	}
	defer file.Close()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":         c.cfg.APIKey,
			"user_uuid":   c.cfg.UserUUID,
			"data_source": dataSource,
		}).
		SetMultipartField("data", "data.json", "application/json", file).
		Post("/upload_health_data_as_json")
	if err != nil {
		return fmt.Errorf("failed to upload health data: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("upload returned status %d: %s", resp.StatusCode(), resp.String())
	}

	c.logger.Printf("Uploaded health data (%d bytes of response ignored)", len(resp.Body()))
	return nil
}

// toConnection validates the envelope and converts it to the public shape.
func (e connectionEnvelope) toConnection() (*Connection, error) {
	if e.Data == nil {
		return nil, fmt.Errorf("%w: missing data object", ErrMalformedResponse)
	}
	if e.Data.UserUUID == "" {
		return nil, fmt.Errorf("%w: missing user_uuid", ErrMalformedResponse)
	}
	if e.Data.Connections == nil {
		return nil, fmt.Errorf("%w: missing connections", ErrMalformedResponse)
	}

	platforms := make(map[string]ConnectedPlatform, len(e.Data.Connections))
	for name, p := range e.Data.Connections {
		if p == nil {
			platforms[name] = ConnectedPlatform{}
			continue
		}
		platforms[name] = *p
	}

	return &Connection{UserUUID: e.Data.UserUUID, Platforms: platforms}, nil
}
