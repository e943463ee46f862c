// Package analytics is the read-only client for the firewall-log analytics
// API backing every dashboard panel. Calls are idempotent and side-effect
// free; failures map onto the pkg/errs taxonomy so coordinators can treat
// transport and server trouble uniformly.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matthianna/honeypot-dashboard-sub003/pkg/errs"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/query"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/timewindow"
)

// Endpoint identifiers. Each one doubles as the QueryKey endpoint of the
// panel bound to it.
const (
	EndpointSummary      = "stats/summary"
	EndpointTimeline     = "stats/timeline"
	EndpointBlocked      = "stats/blocked"
	EndpointTopSources   = "stats/top-sources"
	EndpointTopPorts     = "stats/top-ports"
	EndpointProtocols    = "stats/protocols"
	EndpointGeo          = "stats/geo"
	EndpointPortScans    = "stats/port-scans"
	EndpointRecentEvents = "events/recent"
)

// responses are read through a limit so a misbehaving server cannot balloon
// the process
const maxBodyBytes = 1 << 20

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *zap.Logger
}

// New builds a Client for the analytics API at baseURL. token may be empty
// when the API is unauthenticated; timeout bounds every request.
func New(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		logger:     logger,
	}
}

// WindowParams renders w as wire parameters. Presets travel as
// window=<preset>, explicit ranges as RFC 3339 start/end bounds.
func WindowParams(w timewindow.Window) query.Params {
	if p, ok := w.AsPreset(); ok {
		return query.Params{query.P("window", string(p))}
	}
	start, end, _ := w.Explicit()
	return query.Params{
		query.P("start", start.Format(time.RFC3339)),
		query.P("end", end.Format(time.RFC3339)),
	}
}

func (c *Client) Summary(ctx context.Context, p query.Params) (*Summary, error) {
	var out Summary
	if err := c.get(ctx, EndpointSummary, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Timeline(ctx context.Context, p query.Params) (*Timeline, error) {
	var out Timeline
	if err := c.get(ctx, EndpointTimeline, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Blocked(ctx context.Context, p query.Params) (*Blocked, error) {
	var out Blocked
	if err := c.get(ctx, EndpointBlocked, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TopSources(ctx context.Context, p query.Params) (*TopSources, error) {
	var out TopSources
	if err := c.get(ctx, EndpointTopSources, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TopPorts(ctx context.Context, p query.Params) (*TopPorts, error) {
	var out TopPorts
	if err := c.get(ctx, EndpointTopPorts, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Protocols(ctx context.Context, p query.Params) (*Protocols, error) {
	var out Protocols
	if err := c.get(ctx, EndpointProtocols, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Geo(ctx context.Context, p query.Params) (*Geo, error) {
	var out Geo
	if err := c.get(ctx, EndpointGeo, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PortScans(ctx context.Context, p query.Params) (*PortScans, error) {
	var out PortScans
	if err := c.get(ctx, EndpointPortScans, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecentEvents(ctx context.Context, p query.Params) (*Events, error) {
	var out Events
	if err := c.get(ctx, EndpointRecentEvents, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, p query.Params, out any) error {
	url := c.baseURL + "/api/" + endpoint
	if enc := p.Encode(); enc != "" {
		url += "?" + enc
	}
	c.logger.Debug("querying analytics API", zap.String("endpoint", endpoint), zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewTransport(endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		c.logger.Warn("analytics API rejected credentials", zap.Int("statusCode", resp.StatusCode), zap.String("endpoint", endpoint))
		return errs.NewUnauthorized(resp.StatusCode, endpoint)
	case resp.StatusCode == 404:
		return errs.NewNotFound(endpoint)
	case resp.StatusCode == 429:
		c.logger.Info("analytics API rate limit", zap.String("ra", resp.Header.Get("Retry-After")), zap.String("endpoint", endpoint))
		return errs.NewRateLimited(endpoint, resp.Header.Get("Retry-After"))
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return errs.NewServer(resp.StatusCode, endpoint)
	case 200 <= resp.StatusCode && resp.StatusCode <= 299:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return errs.NewTransport(endpoint, err)
		}
		if len(body) == 0 {
			return errs.NewDecode(endpoint, errors.New("empty response body"))
		}
		if err := json.Unmarshal(body, out); err != nil {
			return errs.NewDecode(endpoint, err)
		}
		return nil
	default:
		c.logger.Warn("unexpected status", zap.Int("statusCode", resp.StatusCode), zap.String("endpoint", endpoint))
		return errs.NewServer(resp.StatusCode, endpoint)
	}
}
