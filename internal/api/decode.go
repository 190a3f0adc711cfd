package api

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"indigo/internal/model"
)

// jsonID tolerates the Export API's habit of returning ids as either
// numbers or strings depending on endpoint.
type jsonID int

func (id *jsonID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*id = jsonID(n)
	return nil
}

// exportTime is the Export API's nested date form:
// {"date": "2025-03-15", "time": "14:00:00", "tz": "Europe/Zurich"}.
type exportTime struct {
	Date string `json:"date"`
	Time string `json:"time"`
	Tz   string `json:"tz"`
}

// toTime builds a timezone-aware instant. An unknown zone name falls back
// to UTC rather than dropping the entry.
func (t *exportTime) toTime() time.Time {
	if t == nil {
		return time.Time{}
	}
	loc, err := time.LoadLocation(t.Tz)
	if err != nil {
		loc = time.UTC
	}
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", t.Date+" "+t.Time, loc)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

type eventJSON struct {
	ID          jsonID      `json:"id"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	StartDate   *exportTime `json:"startDate"`
	EndDate     *exportTime `json:"endDate"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Category    string      `json:"category"`
	CategoryID  jsonID      `json:"categoryId"`
	Type        string      `json:"type"`
}

func (e eventJSON) toEvent() model.Event {
	tz := ""
	if e.StartDate != nil {
		tz = e.StartDate.Tz
	}
	return model.Event{
		ID:          int(e.ID),
		Title:       e.Title,
		URL:         e.URL,
		Start:       e.StartDate.toTime(),
		End:         e.EndDate.toTime(),
		Timezone:    tz,
		Description: e.Description,
		Location:    e.Location,
		Category:    e.Category,
		CategoryID:  int(e.CategoryID),
		EventType:   e.Type,
	}
}

type presenterJSON struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (p presenterJSON) displayName() string {
	if p.Name != "" {
		return p.Name
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type timetableEntryJSON struct {
	Title      string          `json:"title"`
	StartDate  *exportTime     `json:"startDate"`
	EndDate    *exportTime     `json:"endDate"`
	Presenters []presenterJSON `json:"presenters"`
	Material   []folderJSON    `json:"material"`

	// Session blocks nest their contributions under entries.
	Entries map[string]timetableEntryJSON `json:"entries"`
}

func (e timetableEntryJSON) toContribution(baseURL string) model.Contribution {
	var speakers []string
	for _, p := range e.Presenters {
		if name := p.displayName(); name != "" {
			speakers = append(speakers, name)
		}
	}
	var atts []model.Attachment
	for _, folder := range e.Material {
		atts = append(atts, folder.attachments(baseURL)...)
	}
	return model.Contribution{
		Title:       e.Title,
		Start:       e.StartDate.toTime(),
		End:         e.EndDate.toTime(),
		Speakers:    speakers,
		Attachments: atts,
	}
}

type attachmentJSON struct {
	Title       string `json:"title"`
	DownloadURL string `json:"download_url"`
}

type folderJSON struct {
	Title       string           `json:"title"`
	Attachments []attachmentJSON `json:"attachments"`
}

func (f folderJSON) attachments(baseURL string) []model.Attachment {
	var out []model.Attachment
	for _, a := range f.Attachments {
		if a.DownloadURL == "" {
			continue
		}
		title := a.Title
		if title == "" {
			title = f.Title
		}
		out = append(out, model.Attachment{
			Title: title,
			URL:   absoluteURL(baseURL, a.DownloadURL),
		})
	}
	return out
}

type contributionJSON struct {
	Title   string       `json:"title"`
	Folders []folderJSON `json:"folders"`
}

func (c contributionJSON) attachments(baseURL string) []model.Attachment {
	var out []model.Attachment
	for _, folder := range c.Folders {
		out = append(out, folder.attachments(baseURL)...)
	}
	return out
}

func absoluteURL(baseURL, u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return baseURL + u
}

type categoryRefJSON struct {
	ID    jsonID `json:"id"`
	Title string `json:"title"`
}

type categoryInfoJSON struct {
	Category struct {
		ID    jsonID `json:"id"`
		Title string `json:"title"`
		// ParentPath lists ancestors root→parent, not including self.
		ParentPath []categoryRefJSON `json:"parent_path"`
	} `json:"category"`
	Subcategories []categoryRefJSON `json:"subcategories"`
}

func (p categoryInfoJSON) toInfo(requestedID int) model.CategoryInfo {
	info := model.CategoryInfo{
		ID:    int(p.Category.ID),
		Title: p.Category.Title,
	}
	if info.ID == 0 {
		info.ID = requestedID
	}
	if n := len(p.Category.ParentPath); n > 0 {
		parent := p.Category.ParentPath[n-1]
		id := int(parent.ID)
		info.ParentID = &id
		info.ParentName = parent.Title
	}
	for _, sub := range p.Subcategories {
		info.Subcategories = append(info.Subcategories, model.Subcategory{
			ID:    int(sub.ID),
			Title: sub.Title,
		})
	}
	return info
}
