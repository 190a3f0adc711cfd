package ui

import (
	"time"

	"indigo/internal/filter"
	"indigo/internal/model"
)

// rowKind discriminates table rows. Separator rows are never selectable;
// cursor movement steps over them in the direction of travel.
type rowKind int

const (
	rowEvent rowKind = iota
	rowSubcat
	rowSeparator
)

// row is one table line plus the data needed to act on it.
type row struct {
	kind rowKind

	event      model.Event
	firstOfDay bool

	sub model.Subcategory
}

// rowSet is the fully built table content for one frame.
type rowSet struct {
	rows []row

	// shown / total count events only, for the status line.
	shown int
	total int

	// focusRow is the index of the row carrying the requested focus event
	// id, -1 when absent or not requested.
	focusRow int
}

// buildFavoritesRows lays out the favorites frame: date-grouped events with
// day separators. Separators only appear between days that both have at
// least one visible event.
func buildFavoritesRows(events []model.Event, f *filter.Filter) rowSet {
	rs := rowSet{total: len(events), focusRow: -1}
	appendEventRows(&rs, events, f, 0)
	return rs
}

// buildCategoryRows lays out a category frame: subcategory rows first (when
// the category's info is cached and reports children), a separator, then
// the date-grouped events. focusID, when non-zero, requests initial cursor
// placement on that event's row.
func buildCategoryRows(info model.CategoryInfo, haveInfo bool, events []model.Event, f *filter.Filter, focusID int) rowSet {
	rs := rowSet{total: len(events), focusRow: -1}

	if haveInfo {
		for _, sub := range info.Subcategories {
			if !f.MatchSubcategory(sub) {
				continue
			}
			rs.rows = append(rs.rows, row{kind: rowSubcat, sub: sub})
		}
		if len(rs.rows) > 0 {
			rs.rows = append(rs.rows, row{kind: rowSeparator})
		}
	}

	appendEventRows(&rs, events, f, focusID)
	return rs
}

func appendEventRows(rs *rowSet, events []model.Event, f *filter.Filter, focusID int) {
	var prevDate string
	havePrev := false
	for _, ev := range events {
		if !f.MatchEvent(ev) {
			continue
		}
		rs.shown++
		date := ev.Start.Format("2006-01-02")
		firstOfDay := date != prevDate
		if havePrev && firstOfDay {
			rs.rows = append(rs.rows, row{kind: rowSeparator})
		}
		prevDate = date
		havePrev = true

		if focusID != 0 && ev.ID == focusID {
			rs.focusRow = len(rs.rows)
		}
		rs.rows = append(rs.rows, row{kind: rowEvent, event: ev, firstOfDay: firstOfDay})
	}
}

// firstSelectable returns the index of the first non-separator row, -1 for
// an empty or all-separator set.
func firstSelectable(rows []row) int {
	for i, r := range rows {
		if r.kind != rowSeparator {
			return i
		}
	}
	return -1
}

// detailLine is one line of the timetable panel: either a contribution or
// a day-boundary label.
type detailLine struct {
	isDay bool
	day   time.Time

	contrib model.Contribution
}

// buildDetailLines inserts day labels between contributions on different
// days. The contribution list is already sorted by start.
func buildDetailLines(contribs []model.Contribution) []detailLine {
	var out []detailLine
	var prev string
	for i, c := range contribs {
		day := c.Start.Format("2006-01-02")
		if i > 0 && day != prev {
			out = append(out, detailLine{isDay: true, day: c.Start})
		}
		prev = day
		out = append(out, detailLine{contrib: c})
	}
	return out
}
