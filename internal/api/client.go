package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	appLog "indigo/internal/log"
	"indigo/internal/model"
)

// Client talks to the Indico HTTP Export API with bearer authentication.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a Client for the given instance. baseURL must not end in a
// slash; token is sent as a Bearer credential on every request.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the configured instance root.
func (c *Client) BaseURL() string { return c.baseURL }

// get performs an authenticated GET and decodes the JSON body into out.
// Every failure is reported as a *RemoteError.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &RemoteError{Op: endpoint, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		appLog.Error("api request failed", err, "endpoint", endpoint)
		return &RemoteError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		appLog.Error("api non-OK status", nil, "endpoint", endpoint, "status", resp.StatusCode)
		return &RemoteError{Op: endpoint, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: endpoint, Err: err}
	}
	return nil
}

// FavoriteEvents fetches upcoming events from the user's favorited
// categories, sorted by start time ascending.
func (c *Client) FavoriteEvents(ctx context.Context, limit int) ([]model.Event, error) {
	params := url.Values{
		"from":  {"today"},
		"order": {"start"},
		"limit": {strconv.Itoa(limit)},
	}
	var payload struct {
		Results []eventJSON `json:"results"`
	}
	if err := c.get(ctx, "/export/categ/favorites.json", params, &payload); err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(payload.Results))
	for _, item := range payload.Results {
		events = append(events, item.toEvent())
	}
	appLog.Info("favorites loaded", "count", len(events))
	return events, nil
}

// CategoryEvents fetches events in a category within a date window. from/to
// use the Export API's relative form (e.g. "-30d", "+30d").
func (c *Client) CategoryEvents(ctx context.Context, categoryID int, from, to string, limit int) ([]model.Event, error) {
	params := url.Values{
		"from":  {from},
		"to":    {to},
		"order": {"start"},
		"limit": {strconv.Itoa(limit)},
	}
	var payload struct {
		Results []eventJSON `json:"results"`
	}
	endpoint := "/export/categ/" + strconv.Itoa(categoryID) + ".json"
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(payload.Results))
	for _, item := range payload.Results {
		events = append(events, item.toEvent())
	}
	appLog.Info("category loaded", "category_id", categoryID, "count", len(events))
	return events, nil
}

// CategoryInfo fetches a category's position in the tree: parent (if any)
// and immediate subcategories.
func (c *Client) CategoryInfo(ctx context.Context, categoryID int) (model.CategoryInfo, error) {
	var payload categoryInfoJSON
	endpoint := "/category/" + strconv.Itoa(categoryID) + "/info"
	if err := c.get(ctx, endpoint, nil, &payload); err != nil {
		return model.CategoryInfo{}, err
	}
	return payload.toInfo(categoryID), nil
}

// Timetable fetches an event's timetable as a flat list sorted by start
// time. Top-level entries and session-nested entries flatten into the same
// representation. Attachments are best-effort enriched from the event
// contributions endpoint when the timetable itself carries none; the
// enrichment is keyed by exact title and silently skipped on failure.
func (c *Client) Timetable(ctx context.Context, eventID int) ([]model.Contribution, error) {
	var payload struct {
		// results is keyed by event id → date → entry id → entry.
		Results map[string]map[string]map[string]timetableEntryJSON `json:"results"`
	}
	endpoint := "/export/timetable/" + strconv.Itoa(eventID) + ".json"
	if err := c.get(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	var contribs []model.Contribution
	for _, byDate := range payload.Results[strconv.Itoa(eventID)] {
		for _, entry := range byDate {
			if entry.StartDate != nil {
				contribs = append(contribs, entry.toContribution(c.baseURL))
			}
			for _, nested := range entry.Entries {
				if nested.StartDate != nil {
					contribs = append(contribs, nested.toContribution(c.baseURL))
				}
			}
		}
	}
	sort.SliceStable(contribs, func(i, j int) bool {
		return contribs[i].Start.Before(contribs[j].Start)
	})

	if missingAttachments(contribs) {
		c.enrichAttachments(ctx, eventID, contribs)
	}

	appLog.Info("timetable loaded", "event_id", eventID, "count", len(contribs))
	return contribs, nil
}

func missingAttachments(contribs []model.Contribution) bool {
	for _, c := range contribs {
		if len(c.Attachments) == 0 {
			return true
		}
	}
	return false
}

// enrichAttachments fills in attachments from the event contributions
// endpoint, matched by exact title. Issued once per Timetable call; its
// failure leaves the list unenriched.
func (c *Client) enrichAttachments(ctx context.Context, eventID int, contribs []model.Contribution) {
	params := url.Values{"detail": {"contributions"}}
	var payload struct {
		Results []struct {
			Contributions []contributionJSON `json:"contributions"`
		} `json:"results"`
	}
	endpoint := "/export/event/" + strconv.Itoa(eventID) + ".json"
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		appLog.Error("attachment enrichment skipped", err, "event_id", eventID)
		return
	}

	byTitle := make(map[string][]model.Attachment)
	for _, item := range payload.Results {
		for _, contrib := range item.Contributions {
			if atts := contrib.attachments(c.baseURL); len(atts) > 0 {
				byTitle[contrib.Title] = atts
			}
		}
	}
	mergeAttachments(contribs, byTitle)
}

// mergeAttachments assigns attachments to contributions that have none,
// matched by exact title. Title collisions across distinct contributions
// are a known ambiguity of the upstream data; first match wins.
func mergeAttachments(contribs []model.Contribution, byTitle map[string][]model.Attachment) {
	for i := range contribs {
		if len(contribs[i].Attachments) > 0 {
			continue
		}
		if atts, ok := byTitle[contribs[i].Title]; ok {
			contribs[i].Attachments = atts
		}
	}
}
