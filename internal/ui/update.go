package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"indigo/internal/api"
	"indigo/internal/calendar"
	appLog "indigo/internal/log"
	"indigo/internal/model"
	"indigo/internal/nav"
	"indigo/internal/open"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil

	case spinner.TickMsg:
		if !m.tableLoading && !m.detailLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.overlay != overlayNone {
			return m.updateOverlay(msg)
		}
		return m.updateKeys(msg)

	case favoritesLoadedMsg:
		return m.applyFavorites(msg)
	case categoryLoadedMsg:
		return m.applyCategory(msg)
	case categoryInfoMsg:
		return m.applyCategoryInfo(msg)
	case timetableMsg:
		return m.applyTimetable(msg)
	case parentMsg:
		return m.applyParent(msg)
	case exportDoneMsg:
		return m.applyExportDone(msg)
	case candidatesMsg:
		return m.applyCandidates(msg)
	case urlUpdatedMsg:
		return m.applyURLUpdated(msg)
	}
	return m, nil
}

// -- key handling -----------------------------------------------------------

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		return m, m.moveFocused(-1)
	case "down", "j":
		return m, m.moveFocused(1)
	case "pgup":
		return m, m.moveFocused(-m.tableHeight())
	case "pgdown":
		return m, m.moveFocused(m.tableHeight())

	case "left":
		return m, m.navigateParent()
	case "right", "enter":
		return m, m.openAction()

	case "backspace":
		return m, m.popFrame()
	case "esc":
		return m, m.backToFavorites()

	case "tab":
		if len(m.detailLines) > 0 {
			if m.focus == focusTable {
				m.focus = focusDetail
			} else {
				m.focus = focusTable
			}
		}
		return m, nil

	case "/":
		m.overlay = overlayFilter
		m.filterInput.SetValue(m.filter.Pattern())
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()

	case "c":
		return m, m.exportAction()
	case "u":
		return m, m.updateURLAction()
	}
	return m, nil
}

func (m *Model) moveFocused(delta int) tea.Cmd {
	if m.focus == focusDetail {
		m.moveDetailCursor(delta)
		return nil
	}
	return m.moveCursor(delta)
}

// moveCursor moves the table cursor by delta, stepping over separator rows
// in the direction of travel, then refreshes the detail slot.
func (m *Model) moveCursor(delta int) tea.Cmd {
	n := len(m.rows.rows)
	if n == 0 {
		return nil
	}
	dir := 1
	if delta < 0 {
		dir = -1
	}
	target := m.cursor + delta
	if target < 0 {
		target = 0
	}
	if target >= n {
		target = n - 1
	}
	for target >= 0 && target < n && m.rows.rows[target].kind == rowSeparator {
		target += dir
	}
	if target < 0 || target >= n {
		return nil
	}
	m.cursor = target
	m.ensureVisible()
	return m.refreshDetail()
}

func (m *Model) moveDetailCursor(delta int) {
	n := len(m.detailLines)
	if n == 0 {
		return
	}
	dir := 1
	if delta < 0 {
		dir = -1
	}
	target := m.detailCursor + delta
	if target < 0 {
		target = 0
	}
	if target >= n {
		target = n - 1
	}
	for target >= 0 && target < n && m.detailLines[target].isDay {
		target += dir
	}
	if target >= 0 && target < n {
		m.detailCursor = target
	}
}

// refreshDetail points the timetable panel at the event under the cursor:
// cache hit applies synchronously, otherwise the timetable slot fetches in
// the background.
func (m *Model) refreshDetail() tea.Cmd {
	ev, ok := m.selectedEvent()
	if !ok || ev.ID == m.detailEventID {
		return nil
	}
	m.detailEventID = ev.ID
	if contribs, hit := m.caches.Timetable(ev.ID); hit {
		m.setDetail(contribs)
		return nil
	}
	m.detailLoading = true
	m.detailLines = nil
	return tea.Batch(m.fetchTimetableCmd(ev.ID), m.spin.Tick)
}

func (m *Model) setDetail(contribs []model.Contribution) {
	m.detailLoading = false
	m.detailLines = buildDetailLines(contribs)
	m.detailCursor = 0
	if m.focus == focusDetail && len(m.detailLines) == 0 {
		m.focus = focusTable
	}
}

func (m *Model) clearDetail() {
	m.detailEventID = 0
	m.detailLines = nil
	m.detailCursor = 0
	m.detailLoading = false
	m.focus = focusTable
}

// -- navigation -------------------------------------------------------------

// pushCategory saves the outgoing cursor, pushes a category frame and
// populates it: from cache when possible, otherwise through the
// category-load slot.
func (m *Model) pushCategory(categoryID int, name string, focusID int) tea.Cmd {
	m.stack.SaveCursor(m.cursor)
	m.stack.Push(categoryID, name)
	m.categorySeq++
	seq := m.categorySeq

	if events, ok := m.caches.CategoryEvents(categoryID); ok {
		cmd := m.showCategory(events, focusID, -1)
		if _, haveInfo := m.caches.CategoryInfo(categoryID); !haveInfo {
			return tea.Batch(cmd, m.fetchCategoryInfoCmd(seq, categoryID))
		}
		return cmd
	}

	m.tableLoading = true
	m.loadingLabel = fmt.Sprintf("Loading category %q...", name)
	return tea.Batch(m.fetchCategoryCmd(seq, categoryID, focusID), m.spin.Tick)
}

func (m *Model) popFrame() tea.Cmd {
	if !m.stack.Pop() {
		return nil
	}
	m.categorySeq++ // supersede any in-flight load for the popped frame
	return m.restoreCurrentFrame()
}

func (m *Model) backToFavorites() tea.Cmd {
	if m.stack.Current().Mode == nav.ModeFavorites {
		return nil
	}
	m.stack.Reset()
	m.categorySeq++
	return m.restoreCurrentFrame()
}

// restoreCurrentFrame rebuilds the table for the frame now on top of the
// stack, restoring its saved cursor row. A category frame whose listing
// never made it into the cache (its load failed or was dropped while a
// deeper frame was on top) is reloaded rather than rendered empty.
func (m *Model) restoreCurrentFrame() tea.Cmd {
	top := m.stack.Current()
	if top.Mode == nav.ModeFavorites {
		return m.showFavorites(top.CursorRow)
	}
	events, ok := m.caches.CategoryEvents(top.CategoryID)
	if !ok {
		m.categorySeq++
		m.tableLoading = true
		m.loadingLabel = fmt.Sprintf("Loading category %q...", top.CategoryName)
		return tea.Batch(m.fetchCategoryCmd(m.categorySeq, top.CategoryID, 0), m.spin.Tick)
	}
	return m.showCategory(events, 0, top.CursorRow)
}

// showFavorites rebuilds the favorites table and places the cursor at
// restoreRow (clamped).
func (m *Model) showFavorites(restoreRow int) tea.Cmd {
	m.tableLoading = false
	m.rows = buildFavoritesRows(m.favorites, &m.filter)
	m.clearDetail()
	m.placeCursor(restoreRow, -1)

	if m.filter.Active() {
		m.status = fmt.Sprintf("%d/%d events matching /%s/", m.rows.shown, m.rows.total, m.filter.Pattern())
	} else {
		m.status = fmt.Sprintf("Loaded %d events", m.rows.total)
	}
	return m.refreshDetail()
}

// showCategory rebuilds the table for the current category frame.
// restoreRow < 0 means no saved cursor; the focus row (when present) wins
// over both.
func (m *Model) showCategory(events []model.Event, focusID, restoreRow int) tea.Cmd {
	top := m.stack.Current()
	m.tableLoading = false

	info, haveInfo := m.caches.CategoryInfo(top.CategoryID)
	m.rows = buildCategoryRows(info, haveInfo, events, &m.filter, focusID)

	// Keep the detail panel when the focused event is the one already
	// shown; otherwise reset it.
	if !(focusID != 0 && focusID == m.detailEventID) {
		m.clearDetail()
	}
	m.placeCursor(restoreRow, m.rows.focusRow)

	if m.filter.Active() {
		m.status = fmt.Sprintf("%d/%d events matching /%s/ in %q", m.rows.shown, m.rows.total, m.filter.Pattern(), top.CategoryName)
	} else {
		m.status = fmt.Sprintf("%d events in %q", m.rows.total, top.CategoryName)
	}
	return m.refreshDetail()
}

// placeCursor picks the cursor row: explicit focus row first, then the
// restored row (clamped to a selectable row), then the first selectable.
func (m *Model) placeCursor(restoreRow, focusRow int) {
	n := len(m.rows.rows)
	switch {
	case focusRow >= 0 && focusRow < n:
		m.cursor = focusRow
	case restoreRow >= 0 && n > 0:
		r := restoreRow
		if r >= n {
			r = n - 1
		}
		for r < n && m.rows.rows[r].kind == rowSeparator {
			r++
		}
		if r >= n {
			r = firstSelectable(m.rows.rows)
		}
		if r < 0 {
			r = 0
		}
		m.cursor = r
	default:
		if first := firstSelectable(m.rows.rows); first >= 0 {
			m.cursor = first
		} else {
			m.cursor = 0
		}
	}
	m.scroll = 0
	m.ensureVisible()
}

func (m *Model) navigateParent() tea.Cmd {
	top := m.stack.Current()

	if top.Mode == nav.ModeFavorites {
		// From favorites this zooms into the selected event's own
		// category rather than going up.
		ev, ok := m.selectedEvent()
		if !ok || ev.CategoryID == 0 {
			m.status = "No category for this event"
			return nil
		}
		return m.pushCategory(ev.CategoryID, ev.Category, ev.ID)
	}

	focusID := 0
	if ev, ok := m.selectedEvent(); ok {
		focusID = ev.ID
	}

	var cached *model.CategoryInfo
	if info, ok := m.caches.CategoryInfo(top.CategoryID); ok {
		if info.ParentID == nil {
			m.status = "Already at top-level category"
			return nil
		}
		if _, parentCached := m.caches.CategoryInfo(*info.ParentID); parentCached {
			// Both lookups cached: commit synchronously.
			return m.pushCategory(*info.ParentID, info.ParentName, focusID)
		}
		cached = &info
	}

	m.parentSeq++
	m.tableLoading = true
	m.loadingLabel = "Loading parent category..."
	return tea.Batch(m.resolveParentCmd(m.parentSeq, top.CategoryID, focusID, cached), m.spin.Tick)
}

// -- actions ----------------------------------------------------------------

func (m *Model) openAction() tea.Cmd {
	if m.focus == focusDetail {
		return m.openMaterial()
	}
	if m.cursor < 0 || m.cursor >= len(m.rows.rows) {
		return nil
	}
	switch r := m.rows.rows[m.cursor]; r.kind {
	case rowSubcat:
		return m.pushCategory(r.sub.ID, r.sub.Title, 0)
	case rowEvent:
		m.openURL(r.event.URL, "")
	}
	return nil
}

func (m *Model) openMaterial() tea.Cmd {
	contrib, ok := m.selectedContribution()
	if !ok {
		m.status = "No contribution selected"
		return nil
	}
	switch len(contrib.Attachments) {
	case 0:
		m.status = "No attachments"
	case 1:
		att := contrib.Attachments[0]
		m.openURL(att.URL, att.Title)
	default:
		m.pickerItems = m.pickerItems[:0]
		for _, att := range contrib.Attachments {
			m.pickerItems = append(m.pickerItems, pickerItem{label: att.Title, url: att.URL})
		}
		m.pickerCursor = 0
		m.overlay = overlayAttachments
	}
	return nil
}

func (m *Model) openURL(url, label string) {
	if url == "" {
		return
	}
	if err := open.Open(url); err != nil {
		appLog.Error("opener failed", err, "url", url)
		m.status = "Could not open " + url
		return
	}
	if label == "" {
		label = url
	}
	m.status = "Opened " + label
}

func (m *Model) exportAction() tea.Cmd {
	ev, ok := m.selectedEvent()
	if !ok {
		m.status = "No event selected"
		return nil
	}
	m.status = "Exporting to calendar..."
	return m.exportEventCmd(ev)
}

func (m *Model) updateURLAction() tea.Cmd {
	ev, ok := m.selectedEvent()
	if !ok {
		m.status = "No event selected"
		return nil
	}
	m.pendingUpdate = ev
	m.status = "Searching calendar..."
	return m.findCandidatesCmd(ev)
}

// -- overlay handling -------------------------------------------------------

func (m *Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay == overlayFilter {
		switch msg.String() {
		case "esc":
			m.overlay = overlayNone
			m.filterInput.Blur()
			return m, nil
		case "enter":
			m.overlay = overlayNone
			m.filterInput.Blur()
			return m, m.applyFilterPattern(m.filterInput.Value())
		}
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd
	}

	// Attachment / calendar-entry pickers.
	switch msg.String() {
	case "esc":
		m.overlay = overlayNone
		m.status = "Cancelled"
		return m, nil
	case "up", "k":
		m.movePickerCursor(-1)
		return m, nil
	case "down", "j":
		m.movePickerCursor(1)
		return m, nil
	case "enter", "right":
		return m, m.confirmPicker()
	}
	return m, nil
}

func (m *Model) movePickerCursor(dir int) {
	n := len(m.pickerItems)
	target := m.pickerCursor + dir
	for target >= 0 && target < n && m.pickerItems[target].divider {
		target += dir
	}
	if target >= 0 && target < n {
		m.pickerCursor = target
	}
}

func (m *Model) confirmPicker() tea.Cmd {
	if m.pickerCursor < 0 || m.pickerCursor >= len(m.pickerItems) {
		return nil
	}
	item := m.pickerItems[m.pickerCursor]
	if item.divider {
		return nil
	}
	wasCalendar := m.overlay == overlayCalendarPick
	m.overlay = overlayNone

	if wasCalendar {
		m.status = "Updating calendar event..."
		return m.setEntryURLCmd(item.entry, m.pendingUpdate.URL)
	}
	m.openURL(item.url, item.label)
	return nil
}

// applyFilterPattern validates and applies a new filter, then rebuilds the
// current frame. An invalid pattern leaves the prior filter active.
func (m *Model) applyFilterPattern(pattern string) tea.Cmd {
	if err := m.filter.Set(pattern); err != nil {
		m.status = "Invalid regex: " + err.Error()
		return nil
	}
	top := m.stack.Current()
	if top.Mode == nav.ModeFavorites {
		return m.showFavorites(-1)
	}
	events, _ := m.caches.CategoryEvents(top.CategoryID)
	return m.showCategory(events, 0, -1)
}

// -- background results -----------------------------------------------------

func (m *Model) applyFavorites(msg favoritesLoadedMsg) (tea.Model, tea.Cmd) {
	m.tableLoading = false
	if msg.err != nil {
		m.status = "Error: " + msg.err.Error()
		return m, nil
	}
	m.favorites = msg.events
	return m, m.showFavorites(m.stack.Root().CursorRow)
}

func (m *Model) applyCategory(msg categoryLoadedMsg) (tea.Model, tea.Cmd) {
	// A successful listing is a valid answer for its category even when this
	// slot has been superseded; cache it so a later return to that frame
	// renders without refetching.
	if msg.err == nil {
		m.caches.SetCategoryEvents(msg.categoryID, msg.events)
	}

	// Superseded or no longer the visible frame: discard.
	if msg.seq != m.categorySeq || !m.topIsCategory(msg.categoryID) {
		appLog.Debug("stale category result discarded", "category_id", msg.categoryID)
		return m, nil
	}
	m.tableLoading = false

	if msg.err != nil {
		// Retract the failed push and restore the previous view.
		name := m.stack.Current().CategoryName
		m.stack.Pop()
		cmd := m.restoreCurrentFrame()
		if api.IsForbidden(msg.err) {
			m.status = fmt.Sprintf("Access denied to category %q", name)
		} else {
			m.status = "Cannot access category: " + msg.err.Error()
		}
		return m, cmd
	}

	cmd := m.showCategory(msg.events, msg.focusID, -1)
	if _, ok := m.caches.CategoryInfo(msg.categoryID); !ok {
		cmd = tea.Batch(cmd, m.fetchCategoryInfoCmd(msg.seq, msg.categoryID))
	}
	return m, cmd
}

func (m *Model) applyCategoryInfo(msg categoryInfoMsg) (tea.Model, tea.Cmd) {
	live := msg.seq == m.categorySeq && m.topIsCategory(msg.categoryID)

	if msg.err != nil {
		if api.IsForbidden(msg.err) && live {
			// Empty event list plus a forbidden info endpoint means the
			// category is restricted, not merely quiet.
			if events, ok := m.caches.CategoryEvents(msg.categoryID); ok && len(events) == 0 {
				name := m.stack.Current().CategoryName
				m.stack.Pop()
				cmd := m.restoreCurrentFrame()
				m.status = fmt.Sprintf("Access denied to category %q", name)
				return m, cmd
			}
		}
		if live {
			m.status = "Category info error: " + msg.err.Error()
		}
		return m, nil
	}

	// Info is valid regardless of staleness; cache it either way.
	m.caches.SetCategoryInfo(msg.categoryID, msg.info)

	if live && len(msg.info.Subcategories) > 0 {
		// Re-render so the subcategory rows appear above the events.
		events, _ := m.caches.CategoryEvents(msg.categoryID)
		return m, m.showCategory(events, m.detailEventID, -1)
	}
	return m, nil
}

func (m *Model) applyTimetable(msg timetableMsg) (tea.Model, tea.Cmd) {
	contribs := msg.contribs
	if msg.err != nil {
		// Degrade to "no contributions" rather than retrying; the cached
		// empty result keeps the slot from refetching forever.
		contribs = []model.Contribution{}
		m.status = "Timetable error: " + msg.err.Error()
	}
	m.caches.SetTimetable(msg.eventID, contribs)

	// Apply only when the panel still targets this event.
	if msg.eventID == m.detailEventID {
		m.setDetail(contribs)
	}
	return m, nil
}

func (m *Model) applyParent(msg parentMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.parentSeq || !m.topIsCategory(msg.from) {
		return m, nil
	}
	m.tableLoading = false

	if msg.infoErr != nil {
		m.status = "Cannot access parent category: " + msg.infoErr.Error()
		return m, nil
	}
	if msg.fetchedInfo {
		m.caches.SetCategoryInfo(msg.from, msg.info)
	}
	if msg.info.ParentID == nil {
		m.status = "Already at top-level category"
		return m, nil
	}
	if msg.parentChecked && msg.parentErr != nil {
		if api.IsForbidden(msg.parentErr) {
			m.status = fmt.Sprintf("Access denied to %q", msg.info.ParentName)
		} else {
			m.status = "Cannot access parent category: " + msg.parentErr.Error()
		}
		return m, nil
	}
	if msg.fetchedParent {
		m.caches.SetCategoryInfo(*msg.info.ParentID, msg.parentInfo)
	}
	return m, m.pushCategory(*msg.info.ParentID, msg.info.ParentName, msg.focusID)
}

func (m *Model) applyExportDone(msg exportDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = "Calendar export error: " + msg.err.Error()
		return m, nil
	}
	if err := open.Open(msg.path); err != nil {
		m.status = "Exported " + msg.path
		return m, nil
	}
	m.status = fmt.Sprintf("Opened %q in calendar", msg.title)
	return m, nil
}

func (m *Model) applyCandidates(msg candidatesMsg) (tea.Model, tea.Cmd) {
	if msg.event.ID != m.pendingUpdate.ID {
		return m, nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, calendar.ErrUnavailable) {
			m.status = "Calendar store unavailable"
		} else {
			m.status = "URL update error: " + msg.err.Error()
		}
		return m, nil
	}
	if len(msg.entries) == 0 {
		m.status = "No calendar events found"
		return m, nil
	}

	m.pickerItems = buildCandidateItems(msg.entries, m.pendingUpdate)
	m.pickerCursor = 0
	m.overlay = overlayCalendarPick
	m.status = ""
	return m, nil
}

// buildCandidateItems labels calendar entries for the picker, inserting a
// divider between exact start-time matches and the rest.
func buildCandidateItems(entries []calendar.Entry, ev model.Event) []pickerItem {
	target := ev.Start.Truncate(time.Minute)
	items := make([]pickerItem, 0, len(entries)+1)
	pastExact := false
	for _, e := range entries {
		if !e.Start.Truncate(time.Minute).Equal(target) && !pastExact {
			pastExact = true
			if len(items) > 0 {
				items = append(items, pickerItem{label: "other events", divider: true})
			}
		}
		label := fmt.Sprintf("%s  %s  [%s]", e.Start.Format("15:04"), e.Title, e.Calendar)
		items = append(items, pickerItem{label: label, entry: e})
	}
	return items
}

func (m *Model) applyURLUpdated(msg urlUpdatedMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err != nil:
		m.status = "URL update error: " + msg.err.Error()
	case !msg.ok:
		m.status = "Failed to update calendar event"
	default:
		m.status = "Updated calendar event URL"
	}
	return m, nil
}

// topIsCategory reports whether the visible frame is the given category.
func (m *Model) topIsCategory(categoryID int) bool {
	top := m.stack.Current()
	return top.Mode == nav.ModeCategory && top.CategoryID == categoryID
}
