// Package attendance adapts the external scheduling subsystem's REST API
// to the AttendeeSource port. Only the attendee names cross this
// boundary; everything else about scheduling stays on the other side.
package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"moim/internal/core"
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

type attendeeResponse struct {
	Attendees []struct {
		MemberName string `json:"memberName"`
		// Older deployments of the scheduling service send "name".
		Name string `json:"name"`
	} `json:"attendees"`
}

// FetchAttendees implements ports.AttendeeSource.
func (c *Client) FetchAttendees(ctx context.Context, linkedEventID string, targetDate core.Date) ([]ports.Attendee, error) {
	endpoint := fmt.Sprintf("%s/api/events/%s/attendees", c.baseURL, url.PathEscape(linkedEventID))
	if !targetDate.IsEmpty() {
		endpoint += "?date=" + targetDate.Format("2006-01-02")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build attendees request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch attendees: %v: %w", err, ports.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("attendance for event %s: %w", linkedEventID, ports.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch attendees: status %d: %w", resp.StatusCode, ports.ErrUnavailable)
	}

	var body attendeeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode attendees response: %w", err)
	}

	// Normalize the aliased name field here so nothing downstream has to
	// know two shapes exist.
	attendees := make([]ports.Attendee, 0, len(body.Attendees))
	for _, a := range body.Attendees {
		name := a.MemberName
		if name == "" {
			name = a.Name
		}
		if name == "" {
			continue
		}
		attendees = append(attendees, ports.Attendee{MemberName: name})
	}
	return attendees, nil
}
