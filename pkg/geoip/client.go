// Package geoip resolves an IP address to a coarse location via the
// free ip-api.com service. The lookup only seeds a default locality for
// queries that do not carry one, so callers treat failures as soft.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "http://ip-api.com"
	defaultTimeout = 5 * time.Second
)

// Config holds the geoip client settings.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Location is the part of the ip-api answer the resolver cares about.
type Location struct {
	Country string
	Region  string
	City    string
}

// Client queries ip-api.com.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient builds a Client from cfg, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{baseURL: cfg.BaseURL, hc: &http.Client{Timeout: cfg.Timeout}}
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Country string `json:"country"`
	Region  string `json:"regionName"`
	City    string `json:"city"`
}

// Lookup resolves ip to a location. An empty ip asks the service about
// the caller's own address.
func (c *Client) Lookup(ctx context.Context, ip string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/json/"+ip, nil)
	if err != nil {
		return Location{}, fmt.Errorf("build geoip request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("geoip lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geoip lookup: status %d", resp.StatusCode)
	}

	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return Location{}, fmt.Errorf("decode geoip response: %w", err)
	}
	if ar.Status != "success" {
		return Location{}, fmt.Errorf("geoip lookup: %s", ar.Message)
	}
	return Location{Country: ar.Country, Region: ar.Region, City: ar.City}, nil
}
