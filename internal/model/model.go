package model

import "time"

// Event is one catalog event as returned by the Export API. Immutable once
// constructed; distinct fetches may produce distinct values describing the
// same logical event, related only by ID equality.
type Event struct {
	ID    int
	Title string
	URL   string

	// Start / End carry the event's own timezone in their Location.
	Start time.Time
	End   time.Time

	// Timezone is the source IANA zone name as reported upstream.
	Timezone string

	Description string
	Location    string

	// Category / CategoryID name the owning category. CategoryID 0 means
	// "no category".
	Category   string
	CategoryID int

	EventType string
}

// Attachment is one (label, URL) pair attached to a contribution.
type Attachment struct {
	Title string
	URL   string
}

// Contribution is one timetable entry: a talk, a break, or a
// session-nested item. Timetable results are globally ordered by Start.
type Contribution struct {
	Title string
	Start time.Time
	End   time.Time

	// Speakers holds presenter display names in upstream order.
	Speakers []string

	Attachments []Attachment
}

// Subcategory is one child category reference inside CategoryInfo.
type Subcategory struct {
	ID    int
	Title string
}

// CategoryInfo describes a category's position in the tree. ParentID nil
// means the category is a root.
type CategoryInfo struct {
	ID         int
	Title      string
	ParentID   *int
	ParentName string

	Subcategories []Subcategory
}
