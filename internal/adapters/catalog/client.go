package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auriga-audio/auriga/pkg/aw"
)

// Options configures the catalog client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the management backend's REST catalog. It is a
// read-only projection: playlists, announcements, schedules and zones
// are owned by the backend and only listed here.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a catalog client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("catalog base url required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    &http.Client{Timeout: opts.Timeout},
	}, nil
}

// ListPlaylists returns all playlists with their tracks.
func (c *Client) ListPlaylists(ctx context.Context) ([]aw.Playlist, error) {
	var out struct {
		Playlists []aw.Playlist `json:"playlists"`
	}
	if err := c.getJSON(ctx, "/v1/playlists", url.Values{"expand": {"tracks"}}, &out); err != nil {
		return nil, err
	}
	return out.Playlists, nil
}

// ListAnnouncements returns all announcements.
func (c *Client) ListAnnouncements(ctx context.Context) ([]aw.Announcement, error) {
	var out struct {
		Announcements []aw.Announcement `json:"announcements"`
	}
	if err := c.getJSON(ctx, "/v1/announcements", nil, &out); err != nil {
		return nil, err
	}
	return out.Announcements, nil
}

// ListSchedules returns the pending announcement schedule.
func (c *Client) ListSchedules(ctx context.Context) ([]aw.ScheduledAnnouncement, error) {
	var out struct {
		Schedules []aw.ScheduledAnnouncement `json:"schedules"`
	}
	if err := c.getJSON(ctx, "/v1/schedules", nil, &out); err != nil {
		return nil, err
	}
	return out.Schedules, nil
}

// ListZones returns all zones known to the backend.
func (c *Client) ListZones(ctx context.Context) ([]aw.Zone, error) {
	var out struct {
		Zones []aw.Zone `json:"zones"`
	}
	if err := c.getJSON(ctx, "/v1/zones", nil, &out); err != nil {
		return nil, err
	}
	return out.Zones, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	endpointURL := c.baseURL + endpoint
	if len(params) > 0 {
		endpointURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("catalog error: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
