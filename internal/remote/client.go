package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"trackoccupancy/config"
	"trackoccupancy/internal/model"
)

const opSnapshot = "snapshot"

// TokenSource yields the bearer token to attach, or "" for none.
type TokenSource interface {
	Token() string
}

// Client is a thin facade over the occupancy backend REST API.
type Client struct {
	baseURL *url.URL
	client  *http.Client
	tokens  TokenSource
}

// NewClient creates a client for the configured backend.
func NewClient(cfg config.APIConfig, tokens TokenSource) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", cfg.BaseURL)
	}

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		baseURL: base,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		tokens: tokens,
	}, nil
}

// SetTokenSource replaces the token source. It must be called before the client is shared.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// Login posts the credentials. A non-2xx status is returned as *APIError.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}
	var resp model.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/login", nil, jsonBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cities lists every city.
func (c *Client) Cities(ctx context.Context) ([]model.City, error) {
	var cities []model.City
	if err := c.doJSON(ctx, http.MethodGet, "/v1/cities", nil, nil, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

// Buildings lists the buildings of a city.
func (c *Client) Buildings(ctx context.Context, cityID int64) ([]model.Building, error) {
	var buildings []model.Building
	path := fmt.Sprintf("/v1/cities/%d/buildings", cityID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &buildings); err != nil {
		return nil, err
	}
	return buildings, nil
}

// Auditoriums lists the auditoriums of a building.
func (c *Client) Auditoriums(ctx context.Context, cityID, buildingID int64) ([]model.Auditorium, error) {
	var auditoriums []model.Auditorium
	path := fmt.Sprintf("/v1/cities/%d/buildings/%d/auditories", cityID, buildingID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &auditoriums); err != nil {
		return nil, err
	}
	return auditoriums, nil
}

// BuildingOccupancy fetches the occupancy batch of a building. An empty timestamp is omitted.
func (c *Client) BuildingOccupancy(ctx context.Context, cityID, buildingID int64, timestamp string) ([]model.AuditoriumOccupancy, error) {
	var samples []model.AuditoriumOccupancy
	path := fmt.Sprintf("/v1/cities/%d/buildings/%d/auditories/occupancy", cityID, buildingID)
	if err := c.doJSON(ctx, http.MethodGet, path, timestampQuery(timestamp), nil, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// AuditoriumOccupancy fetches the occupancy sample of one auditorium.
func (c *Client) AuditoriumOccupancy(ctx context.Context, cityID, buildingID, auditoriumID int64, timestamp string) (*model.OccupancyResult, error) {
	var result model.OccupancyResult
	path := fmt.Sprintf("/v1/cities/%d/buildings/%d/auditories/%d/occupancy", cityID, buildingID, auditoriumID)
	if err := c.doJSON(ctx, http.MethodGet, path, timestampQuery(timestamp), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Cameras lists the cameras of an auditorium.
func (c *Client) Cameras(ctx context.Context, cityID, buildingID, auditoriumID int64) ([]model.Camera, error) {
	var cameras []model.Camera
	path := fmt.Sprintf("/v1/cities/%d/buildings/%d/auditories/%d/cameras", cityID, buildingID, auditoriumID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &cameras); err != nil {
		return nil, err
	}
	return cameras, nil
}

// Statistics fetches the hourly averages of a day (YYYY-MM-DD).
// A 404 is not an error: it yields empty stats with a "No data available" warning.
func (c *Client) Statistics(ctx context.Context, cityID, buildingID, auditoriumID int64, day string) (*model.StatisticsResponse, error) {
	path := fmt.Sprintf("/v1/cities/%d/buildings/%d/auditories/%d/statistics", cityID, buildingID, auditoriumID)
	query := url.Values{"day": {day}}

	resp, body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		apiErr := newAPIError("statistics", resp)
		if IsNotFound(apiErr) {
			return NoStatistics(), nil
		}
		return nil, apiErr
	}
	return ParseStatistics(body)
}

// Snapshot fetches the raw image bytes of a camera.
// An empty 2xx body is returned as is; decoding reports it.
func (c *Client) Snapshot(ctx context.Context, mac string) ([]byte, error) {
	resp, body, err := c.do(ctx, http.MethodGet, "/api/snapshot", url.Values{"mac": {mac}}, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, newAPIError(opSnapshot, resp)
	}
	return body, nil
}

// doJSON performs a request and decodes a successful body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	resp, body, err := c.do(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return newAPIError(path, resp)
	}
	if isEmptyJSON(body) {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

// do sends the request and reads the whole body. Only transport failures are returned as errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Response, []byte, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}
	return resp, body, nil
}

func timestampQuery(timestamp string) url.Values {
	if timestamp == "" {
		return nil
	}
	return url.Values{"timestamp": {timestamp}}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func isEmptyJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
