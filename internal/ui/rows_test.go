package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"indigo/internal/filter"
	"indigo/internal/model"
)

func dayEvent(id int, title string, day int, hour int) model.Event {
	return model.Event{
		ID:    id,
		Title: title,
		Start: time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC),
	}
}

func TestFavoritesRowsGroupedByDay(t *testing.T) {
	t.Parallel()

	events := []model.Event{
		dayEvent(1, "Alpha", 10, 9),
		dayEvent(2, "Beta", 10, 14),
		dayEvent(3, "Gamma", 11, 9),
	}

	var f filter.Filter
	rs := buildFavoritesRows(events, &f)

	require.Equal(t, 3, rs.shown)
	require.Len(t, rs.rows, 4) // 2 events, separator, 1 event
	require.Equal(t, rowEvent, rs.rows[0].kind)
	require.True(t, rs.rows[0].firstOfDay)
	require.False(t, rs.rows[1].firstOfDay)
	require.Equal(t, rowSeparator, rs.rows[2].kind)
	require.True(t, rs.rows[3].firstOfDay)
}

func TestSeparatorOnlyBetweenVisibleGroups(t *testing.T) {
	t.Parallel()

	events := []model.Event{
		dayEvent(1, "Alpha", 10, 9),
		dayEvent(2, "Beta", 11, 9),
		dayEvent(3, "Alpha prime", 12, 9),
	}

	var f filter.Filter
	require.NoError(t, f.Set("^Alpha"))
	rs := buildFavoritesRows(events, &f)

	// Beta is filtered out, so exactly one separator remains between the
	// two visible days.
	require.Equal(t, 2, rs.shown)
	require.Len(t, rs.rows, 3)
	require.Equal(t, rowEvent, rs.rows[0].kind)
	require.Equal(t, rowSeparator, rs.rows[1].kind)
	require.Equal(t, rowEvent, rs.rows[2].kind)
}

func TestCategoryRowsSubcategoriesFirst(t *testing.T) {
	t.Parallel()

	info := model.CategoryInfo{
		ID: 5,
		Subcategories: []model.Subcategory{
			{ID: 51, Title: "Detector R&D"},
			{ID: 52, Title: "Accelerators"},
		},
	}
	events := []model.Event{dayEvent(1, "Alpha", 10, 9)}

	var f filter.Filter
	rs := buildCategoryRows(info, true, events, &f, 0)

	require.Equal(t, rowSubcat, rs.rows[0].kind)
	require.Equal(t, rowSubcat, rs.rows[1].kind)
	require.Equal(t, rowSeparator, rs.rows[2].kind)
	require.Equal(t, rowEvent, rs.rows[3].kind)
}

func TestCategoryRowsWithoutInfoOmitSubcategories(t *testing.T) {
	t.Parallel()

	events := []model.Event{dayEvent(1, "Alpha", 10, 9)}
	var f filter.Filter
	rs := buildCategoryRows(model.CategoryInfo{}, false, events, &f, 0)

	require.Len(t, rs.rows, 1)
	require.Equal(t, rowEvent, rs.rows[0].kind)
}

func TestFocusRowPlacement(t *testing.T) {
	t.Parallel()

	events := []model.Event{
		dayEvent(1, "Alpha", 10, 9),
		dayEvent(2, "Beta", 11, 9),
		dayEvent(3, "Gamma", 11, 14),
	}
	var f filter.Filter
	rs := buildCategoryRows(model.CategoryInfo{}, false, events, &f, 3)

	require.GreaterOrEqual(t, rs.focusRow, 0)
	require.Equal(t, rowEvent, rs.rows[rs.focusRow].kind)
	require.Equal(t, 3, rs.rows[rs.focusRow].event.ID)

	// Absent focus id leaves focusRow unset.
	rs = buildCategoryRows(model.CategoryInfo{}, false, events, &f, 999)
	require.Equal(t, -1, rs.focusRow)
}

func TestFilteredSubcategories(t *testing.T) {
	t.Parallel()

	info := model.CategoryInfo{
		Subcategories: []model.Subcategory{
			{ID: 51, Title: "Detector R&D"},
			{ID: 52, Title: "Accelerators"},
		},
	}

	var f filter.Filter
	require.NoError(t, f.Set("detect"))
	rs := buildCategoryRows(info, true, nil, &f, 0)

	// One subcategory visible; no events, so the trailing separator still
	// marks the end of the subcategory block.
	require.Equal(t, rowSubcat, rs.rows[0].kind)
	require.Equal(t, 51, rs.rows[0].sub.ID)
}

func TestDetailLinesDayBoundaries(t *testing.T) {
	t.Parallel()

	contribs := []model.Contribution{
		{Title: "a", Start: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		{Title: "b", Start: time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)},
		{Title: "c", Start: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)},
	}

	lines := buildDetailLines(contribs)
	require.Len(t, lines, 4)
	require.False(t, lines[0].isDay)
	require.False(t, lines[1].isDay)
	require.True(t, lines[2].isDay)
	require.Equal(t, "c", lines[3].contrib.Title)
}

func TestFirstSelectable(t *testing.T) {
	t.Parallel()

	require.Equal(t, -1, firstSelectable(nil))
	require.Equal(t, -1, firstSelectable([]row{{kind: rowSeparator}}))
	require.Equal(t, 1, firstSelectable([]row{{kind: rowSeparator}, {kind: rowEvent}}))
}
