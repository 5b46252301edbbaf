// Package places is a thin client for the Google Places API (New, v1).
// Only the two calls the resolver needs are implemented: text search to
// find a place ID for a free-form query, and place details to fetch the
// full record for that ID.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linkflyer/venued/pkg/venue"
)

// ErrNoResult is returned when the API answers successfully but finds
// no place for the query.
var ErrNoResult = errors.New("no place found")

const (
	defaultBaseURL = "https://places.googleapis.com"
	defaultTimeout = 10 * time.Second

	searchFieldMask = "places.id,places.displayName"
	detailFieldMask = "displayName,formattedAddress,businessStatus,location,types,addressComponents"
)

// Config holds the Places client settings.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client calls the Places v1 REST endpoints.
type Client struct {
	apiKey  string
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
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		hc:      &http.Client{Timeout: cfg.Timeout},
	}
}

// Match is a text-search hit: the place ID and its display name.
type Match struct {
	PlaceID string
	Name    string
}

type searchResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
	} `json:"places"`
}

// SearchText runs a free-form text search and returns the top hit.
// An empty result set maps to ErrNoResult.
func (c *Client) SearchText(ctx context.Context, query string) (Match, error) {
	body, err := json.Marshal(map[string]string{"textQuery": query})
	if err != nil {
		return Match{}, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/places:searchText", bytes.NewReader(body))
	if err != nil {
		return Match{}, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	var sr searchResponse
	if err := c.do(req, &sr); err != nil {
		return Match{}, fmt.Errorf("text search %q: %w", query, err)
	}
	if len(sr.Places) == 0 {
		return Match{}, fmt.Errorf("text search %q: %w", query, ErrNoResult)
	}
	return Match{PlaceID: sr.Places[0].ID, Name: sr.Places[0].DisplayName.Text}, nil
}

type detailResponse struct {
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string   `json:"formattedAddress"`
	BusinessStatus   string   `json:"businessStatus"`
	Types            []string `json:"types"`
	Location         *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	AddressComponents []struct {
		ShortText string   `json:"shortText"`
		Types     []string `json:"types"`
	} `json:"addressComponents"`
}

// Details fetches the full record for placeID. The country, region and
// locality fields come from the address components.
func (c *Client) Details(ctx context.Context, placeID string) (venue.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/places/"+placeID, nil)
	if err != nil {
		return venue.Record{}, fmt.Errorf("build detail request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", detailFieldMask)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	var dr detailResponse
	if err := c.do(req, &dr); err != nil {
		return venue.Record{}, fmt.Errorf("place detail %s: %w", placeID, err)
	}

	rec := venue.Record{
		ID:             placeID,
		Name:           dr.DisplayName.Text,
		Address:        dr.FormattedAddress,
		BusinessStatus: dr.BusinessStatus,
		Categories:     dr.Types,
	}
	if dr.Location != nil {
		lat, lng := dr.Location.Latitude, dr.Location.Longitude
		rec.Latitude, rec.Longitude = &lat, &lng
	}
	for _, comp := range dr.AddressComponents {
		for _, typ := range comp.Types {
			switch typ {
			case "country":
				rec.Country = comp.ShortText
			case "administrative_area_level_1":
				rec.Region = comp.ShortText
			case "locality":
				rec.Locality = comp.ShortText
			}
		}
	}
	return rec, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
