package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"indigo/internal/calendar"
	"indigo/internal/model"
)

// Background fetches follow one pattern: the command goroutine only talks
// to the network and returns a typed message; every mutation of stack,
// caches or widgets happens in Update. Each message carries the slot
// generation it was issued under plus its target id, and Update discards it
// when either no longer matches the live view.

type favoritesLoadedMsg struct {
	events []model.Event
	err    error
}

type categoryLoadedMsg struct {
	seq        int
	categoryID int
	focusID    int
	events     []model.Event
	err        error
}

type categoryInfoMsg struct {
	seq        int
	categoryID int
	info       model.CategoryInfo
	err        error
}

type timetableMsg struct {
	eventID  int
	contribs []model.Contribution
	err      error
}

// parentMsg resolves a parent navigation: the current category's info plus
// the access-check fetch of the parent itself. Cached values are passed
// into the command at creation time so the goroutine never reads shared
// state.
type parentMsg struct {
	seq     int
	from    int // category the navigation started on
	focusID int

	info    model.CategoryInfo
	infoErr error

	// parentChecked is false when resolution stopped before the access
	// check (info fetch failed or no parent exists).
	parentChecked bool
	parentInfo    model.CategoryInfo
	parentErr     error
	fetchedInfo   bool // info came from the network, cache it
	fetchedParent bool // parentInfo came from the network, cache it
}

type exportDoneMsg struct {
	title string
	path  string
	err   error
}

type candidatesMsg struct {
	event   model.Event
	entries []calendar.Entry
	err     error
}

type urlUpdatedMsg struct {
	ok  bool
	err error
}

const fetchTimeout = 45 * time.Second

func (m *Model) fetchFavoritesCmd() tea.Cmd {
	client, limit := m.client, m.cfg.FavoritesLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		events, err := client.FavoriteEvents(ctx, limit)
		return favoritesLoadedMsg{events: events, err: err}
	}
}

func (m *Model) fetchCategoryCmd(seq, categoryID, focusID int) tea.Cmd {
	client, cfg := m.client, m.cfg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		events, err := client.CategoryEvents(ctx, categoryID, cfg.CategoryFrom, cfg.CategoryTo, cfg.CategoryLimit)
		return categoryLoadedMsg{seq: seq, categoryID: categoryID, focusID: focusID, events: events, err: err}
	}
}

func (m *Model) fetchCategoryInfoCmd(seq, categoryID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		info, err := client.CategoryInfo(ctx, categoryID)
		return categoryInfoMsg{seq: seq, categoryID: categoryID, info: info, err: err}
	}
}

func (m *Model) fetchTimetableCmd(eventID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		contribs, err := client.Timetable(ctx, eventID)
		return timetableMsg{eventID: eventID, contribs: contribs, err: err}
	}
}

// resolveParentCmd fetches whatever part of the parent resolution is not
// already cached. cachedInfo is the current category's info when the UI
// thread had it, nil otherwise.
func (m *Model) resolveParentCmd(seq, categoryID, focusID int, cachedInfo *model.CategoryInfo) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		msg := parentMsg{seq: seq, from: categoryID, focusID: focusID}
		if cachedInfo != nil {
			msg.info = *cachedInfo
		} else {
			info, err := client.CategoryInfo(ctx, categoryID)
			if err != nil {
				msg.infoErr = err
				return msg
			}
			msg.info = info
			msg.fetchedInfo = true
		}

		if msg.info.ParentID == nil {
			return msg
		}

		// Access check: the parent must itself be reachable before the
		// navigation commits.
		parentInfo, err := client.CategoryInfo(ctx, *msg.info.ParentID)
		msg.parentChecked = true
		if err != nil {
			msg.parentErr = err
			return msg
		}
		msg.parentInfo = parentInfo
		msg.fetchedParent = true
		return msg
	}
}

func (m *Model) exportEventCmd(ev model.Event) tea.Cmd {
	return func() tea.Msg {
		path, err := calendar.ExportEvent(ev)
		return exportDoneMsg{title: ev.Title, path: path, err: err}
	}
}

func (m *Model) findCandidatesCmd(ev model.Event) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		entries, err := store.FindSameDayEntries(ctx, ev)
		return candidatesMsg{event: ev, entries: entries, err: err}
	}
}

func (m *Model) setEntryURLCmd(entry calendar.Entry, url string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		ok, err := store.SetEntryURL(ctx, entry, url)
		return urlUpdatedMsg{ok: ok, err: err}
	}
}
