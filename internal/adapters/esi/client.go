// Package esi calls the EVE Swagger Interface.
package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"evecorpbot/internal/domain"
)

// DefaultBaseURL is the public ESI endpoint.
const DefaultBaseURL = "https://esi.evetech.net/latest"

const datasource = "tranquility"

// Client fetches corporation structures and the sovereignty feed.
type Client struct {
	client        *http.Client
	baseURL       string
	corporationID int64
}

// NewClient returns an ESI client for the given corporation. An empty
// baseURL selects DefaultBaseURL.
func NewClient(client *http.Client, baseURL string, corporationID int64) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{client: client, baseURL: strings.TrimRight(baseURL, "/"), corporationID: corporationID}
}

var (
	_ domain.StructureFetcher   = (*Client)(nil)
	_ domain.SovereigntyFetcher = (*Client)(nil)
)

// FetchStructures returns every structure of the corporation, following
// the X-Pages header across pages.
func (c *Client) FetchStructures(ctx context.Context, accessToken string) ([]domain.CorporationStructure, error) {
	path := fmt.Sprintf("/corporations/%d/structures/", c.corporationID)
	var all []domain.CorporationStructure
	for page, pages := 1, 1; page <= pages; page++ {
		var batch []domain.CorporationStructure
		header, err := c.get(ctx, path, url.Values{"page": {strconv.Itoa(page)}}, accessToken, &batch)
		if err != nil {
			return nil, err
		}
		if n, err := strconv.Atoi(header.Get("X-Pages")); err == nil && n > pages {
			pages = n
		}
		all = append(all, batch...)
	}
	return all, nil
}

// FetchSovereignty returns the public sovereignty structures feed.
func (c *Client) FetchSovereignty(ctx context.Context) ([]domain.SovereigntyStructure, error) {
	var data []domain.SovereigntyStructure
	if _, err := c.get(ctx, "/sovereignty/structures/", nil, "", &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, accessToken string, out any) (http.Header, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("datasource", datasource)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error != "" {
			return nil, fmt.Errorf("esi %s returned status %d: %s", path, resp.StatusCode, body.Error)
		}
		return nil, fmt.Errorf("esi %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return resp.Header, nil
}
