// Package ui implements the full-screen browsing session. The Model is the
// single owner of all navigation and cache state; background fetches run as
// commands that return typed messages, and Update re-checks relevance
// before applying any of them (see messages.go).
package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"indigo/internal/api"
	"indigo/internal/cache"
	"indigo/internal/calendar"
	"indigo/internal/config"
	"indigo/internal/filter"
	"indigo/internal/model"
	"indigo/internal/nav"
)

// focusArea says which pane receives cursor keys.
type focusArea int

const (
	focusTable focusArea = iota
	focusDetail
)

// overlay is the active modal, if any.
type overlay int

const (
	overlayNone overlay = iota
	overlayFilter
	overlayAttachments
	overlayCalendarPick
)

// Model is the bubbletea model for the whole session.
type Model struct {
	cfg    *config.Config
	client *api.Client
	store  calendar.Store

	// Navigation and data state. Mutated only inside Update.
	stack     *nav.Stack
	caches    *cache.Store
	filter    filter.Filter
	favorites []model.Event

	// Slot generations. A background result is applied only when its
	// generation still matches; a newer request supersedes older ones.
	categorySeq int
	parentSeq   int

	// Current table content.
	rows   rowSet
	cursor int
	scroll int

	// Detail panel.
	detailEventID int // 0 when nothing selected
	detailLines   []detailLine
	detailCursor  int
	detailLoading bool

	tableLoading bool
	loadingLabel string

	focus focusArea

	// Overlays.
	overlay       overlay
	filterInput   textinput.Model
	pickerItems   []pickerItem
	pickerCursor  int
	pendingUpdate model.Event // event whose URL a picked entry receives

	spin   spinner.Model
	status string

	width  int
	height int
}

// pickerItem is one row of the attachment or calendar-entry overlay.
type pickerItem struct {
	label   string
	divider bool

	url   string         // attachment target
	entry calendar.Entry // calendar-entry target
}

// New builds the session model.
func New(cfg *config.Config, client *api.Client, store calendar.Store) *Model {
	ti := textinput.New()
	ti.Placeholder = "regex filter (title/category)"
	ti.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		cfg:         cfg,
		client:      client,
		store:       store,
		stack:       nav.New(),
		caches:      cache.New(),
		filterInput: ti,
		spin:        sp,
		status:      "Loading events...",
	}
}

// Init starts the favorites load and the spinner.
func (m *Model) Init() tea.Cmd {
	m.tableLoading = true
	m.loadingLabel = "Loading events..."
	return tea.Batch(m.fetchFavoritesCmd(), m.spin.Tick)
}

// selectedEvent returns the event under the cursor, if the cursor is on an
// event row.
func (m *Model) selectedEvent() (model.Event, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows.rows) {
		return model.Event{}, false
	}
	r := m.rows.rows[m.cursor]
	if r.kind != rowEvent {
		return model.Event{}, false
	}
	return r.event, true
}

// selectedContribution returns the contribution under the detail cursor.
func (m *Model) selectedContribution() (model.Contribution, bool) {
	if m.detailCursor < 0 || m.detailCursor >= len(m.detailLines) {
		return model.Contribution{}, false
	}
	line := m.detailLines[m.detailCursor]
	if line.isDay {
		return model.Contribution{}, false
	}
	return line.contrib, true
}
