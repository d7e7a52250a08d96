// Package spotify talks to the Spotify Web API control plane.
//
// API response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// TokenFunc supplies the latest known access token on demand. The client
// calls it per request, never caching the value: the credential may be
// replaced mid-session and the freshest one must win.
type TokenFunc func() string

// User represents the authenticated user's profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// ConnectDeviceInfo is one entry of the user's device list.
type ConnectDeviceInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

// Playback is the user's current playback state. A nil Playback means no
// device is actively playing (the API answers 204).
type Playback struct {
	IsPlaying bool              `json:"is_playing"`
	Device    ConnectDeviceInfo `json:"device"`
	Item      *PlaybackItem     `json:"item"`
}

// PlaybackItem is the currently playing track.
type PlaybackItem struct {
	Name    string           `json:"name"`
	Artists []PlaybackArtist `json:"artists"`
}

type PlaybackArtist struct {
	Name string `json:"name"`
}

// Client is a rate-limited Web API client authenticating each request
// with the token accessor.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
	limiter    *rate.Limiter
}

// NewClient creates a Web API client. A nil httpClient uses
// [http.DefaultClient].
func NewClient(token TokenFunc, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    spotifyBaseURL,
		httpClient: httpClient,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(10), 2),
	}
}

// do performs an authenticated request and decodes a JSON response into
// result when given. Returns the HTTP status code so callers can treat
// 204 (no active playback) specially.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, result any) (int, error) {
	if c.token == nil || c.token() == "" {
		return 0, fmt.Errorf("%w: no access credential", shared.ErrNotAuthenticated)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return resp.StatusCode, fmt.Errorf("%w: status 401", shared.ErrNotAuthenticated)
	case resp.StatusCode == http.StatusForbidden:
		// The API answers 403 for plan-tier restrictions (premium required).
		return resp.StatusCode, fmt.Errorf("%w: status 403", shared.ErrDeviceAccount)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return resp.StatusCode, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// Profile retrieves the authenticated user's profile. The Product field
// distinguishes account tiers.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.do(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Devices lists the user's available Connect devices.
func (c *Client) Devices(ctx context.Context) ([]ConnectDeviceInfo, error) {
	var response struct {
		Devices []ConnectDeviceInfo `json:"devices"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}
	return response.Devices, nil
}

// CurrentPlayback retrieves the user's playback state, nil when nothing
// is actively playing.
func (c *Client) CurrentPlayback(ctx context.Context) (*Playback, error) {
	var playback Playback
	status, err := c.do(ctx, http.MethodGet, "/me/player", nil, &playback)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &playback, nil
}

// Transfer moves playback to the named device without starting playback.
func (c *Client) Transfer(ctx context.Context, deviceID string) error {
	body := map[string]any{
		"device_ids": []string{deviceID},
		"play":       false,
	}
	_, err := c.do(ctx, http.MethodPut, "/me/player", body, nil)
	return err
}

// Play resumes playback, optionally on a specific device.
func (c *Client) Play(ctx context.Context, deviceID string) error {
	endpoint := "/me/player/play"
	if deviceID != "" {
		endpoint += "?device_id=" + deviceID
	}
	_, err := c.do(ctx, http.MethodPut, endpoint, nil, nil)
	return err
}

// Pause pauses playback, optionally on a specific device.
func (c *Client) Pause(ctx context.Context, deviceID string) error {
	endpoint := "/me/player/pause"
	if deviceID != "" {
		endpoint += "?device_id=" + deviceID
	}
	_, err := c.do(ctx, http.MethodPut, endpoint, nil, nil)
	return err
}

// SetVolume sets a device's volume, percent in [0,100].
func (c *Client) SetVolume(ctx context.Context, deviceID string, percent int) error {
	endpoint := fmt.Sprintf("/me/player/volume?volume_percent=%d", percent)
	if deviceID != "" {
		endpoint += "&device_id=" + deviceID
	}
	_, err := c.do(ctx, http.MethodPut, endpoint, nil, nil)
	return err
}
