// Package filter implements the session-wide regex filter. One pattern is
// shared across all frames; it matches events on title or category name and
// subcategories on title, case-insensitively. An invalid pattern is
// rejected at entry time and the previously accepted filter stays active.
package filter

import (
	"regexp"

	"indigo/internal/model"
)

// Filter holds the active pattern. The zero value matches everything.
type Filter struct {
	raw string
	re  *regexp.Regexp
}

// Set validates and applies pattern. An empty pattern clears the filter.
// On a compile error the prior filter is left unchanged and the error is
// returned for the status line.
func (f *Filter) Set(pattern string) error {
	if pattern == "" {
		f.raw = ""
		f.re = nil
		return nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return err
	}
	f.raw = pattern
	f.re = re
	return nil
}

// Clear drops the active pattern.
func (f *Filter) Clear() {
	f.raw = ""
	f.re = nil
}

// Active reports whether a pattern is set.
func (f *Filter) Active() bool { return f.re != nil }

// Pattern returns the raw pattern as entered, "" when inactive.
func (f *Filter) Pattern() string { return f.raw }

// MatchEvent reports whether ev is visible under the active filter.
func (f *Filter) MatchEvent(ev model.Event) bool {
	if f.re == nil {
		return true
	}
	return f.re.MatchString(ev.Title) || f.re.MatchString(ev.Category)
}

// MatchSubcategory reports whether sub is visible under the active filter.
func (f *Filter) MatchSubcategory(sub model.Subcategory) bool {
	if f.re == nil {
		return true
	}
	return f.re.MatchString(sub.Title)
}
