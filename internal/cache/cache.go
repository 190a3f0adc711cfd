// Package cache holds the three process-lifetime memo maps behind the
// browsing views. Entries are never evicted: the underlying catalog rarely
// mutates within one interactive session, so staleness is an accepted
// tradeoff. The store is owned and mutated only by the UI event loop.
package cache

import "indigo/internal/model"

// Store memoizes fetch results by integer id.
type Store struct {
	timetables     map[int][]model.Contribution
	categoryEvents map[int][]model.Event
	categoryInfos  map[int]model.CategoryInfo
}

// New returns an empty store.
func New() *Store {
	return &Store{
		timetables:     make(map[int][]model.Contribution),
		categoryEvents: make(map[int][]model.Event),
		categoryInfos:  make(map[int]model.CategoryInfo),
	}
}

// Timetable returns the cached timetable for an event. A cached empty list
// is a valid hit (failed fetches are cached as empty, see the slot error
// policy).
func (s *Store) Timetable(eventID int) ([]model.Contribution, bool) {
	v, ok := s.timetables[eventID]
	return v, ok
}

func (s *Store) SetTimetable(eventID int, contribs []model.Contribution) {
	s.timetables[eventID] = contribs
}

// CategoryEvents returns the cached event list for a category.
func (s *Store) CategoryEvents(categoryID int) ([]model.Event, bool) {
	v, ok := s.categoryEvents[categoryID]
	return v, ok
}

func (s *Store) SetCategoryEvents(categoryID int, events []model.Event) {
	s.categoryEvents[categoryID] = events
}

// CategoryInfo returns the cached tree info for a category.
func (s *Store) CategoryInfo(categoryID int) (model.CategoryInfo, bool) {
	v, ok := s.categoryInfos[categoryID]
	return v, ok
}

func (s *Store) SetCategoryInfo(categoryID int, info model.CategoryInfo) {
	s.categoryInfos[categoryID] = info
}
