// Package directory adapts the organization's member-directory service
// to the MemberDirectory port.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"moim/internal/ports"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

type memberResponse struct {
	Members []struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"members"`
}

// Search implements ports.MemberDirectory.
func (c *Client) Search(ctx context.Context, keyword, status string) ([]ports.Member, error) {
	query := url.Values{}
	if keyword != "" {
		query.Set("q", keyword)
	}
	if status != "" {
		query.Set("status", status)
	}
	endpoint := c.baseURL + "/api/members"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build member search request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search members: %v: %w", err, ports.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search members: status %d: %w", resp.StatusCode, ports.ErrUnavailable)
	}

	var body memberResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode member search response: %w", err)
	}

	members := make([]ports.Member, 0, len(body.Members))
	for _, m := range body.Members {
		members = append(members, ports.Member{Name: m.Name, Status: m.Status})
	}
	return members, nil
}
