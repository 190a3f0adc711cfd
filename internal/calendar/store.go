package calendar

import (
	"context"
	"errors"
	"sort"
	"time"

	"indigo/internal/model"
)

// ErrUnavailable is returned when no native event store can be reached,
// either because the platform has none or because authorization was denied.
var ErrUnavailable = errors.New("calendar: event store unavailable")

// Entry identifies one native-calendar occurrence precisely enough to
// retarget it later: the store-native id plus the occurrence start, since
// recurring events share an id across occurrences.
type Entry struct {
	ID       string
	Title    string
	Calendar string
	Start    time.Time
}

// Store is the native event-store bridge. File export does not go through
// it; only lookup and URL retargeting do.
type Store interface {
	// FindSameDayEntries lists calendar entries on the same day as ev,
	// exact start-time matches first.
	FindSameDayEntries(ctx context.Context, ev model.Event) ([]Entry, error)

	// SetEntryURL writes url into the identified entry. Returns false when
	// the entry cannot be found or saved. Idempotent.
	SetEntryURL(ctx context.Context, entry Entry, url string) (bool, error)
}

// unavailableStore serves platforms without a native calendar store.
type unavailableStore struct{}

func (unavailableStore) FindSameDayEntries(context.Context, model.Event) ([]Entry, error) {
	return nil, ErrUnavailable
}

func (unavailableStore) SetEntryURL(context.Context, Entry, string) (bool, error) {
	return false, ErrUnavailable
}

// orderCandidates sorts entries so that exact start-time matches (to the
// minute) come first, each group ordered by start.
func orderCandidates(entries []Entry, eventStart time.Time) []Entry {
	target := eventStart.Truncate(time.Minute)
	exact := func(e Entry) bool {
		return e.Start.Truncate(time.Minute).Equal(target)
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		ei, ej := exact(out[i]), exact(out[j])
		if ei != ej {
			return ei
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
