package calendar

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	appLog "indigo/internal/log"
	"indigo/internal/model"
)

// NewStore returns the native event-store bridge for this platform. On
// macOS that is Calendar.app driven over osascript; everywhere else lookup
// and retargeting report unavailable and only file export works.
func NewStore() Store {
	if runtime.GOOS == "darwin" {
		if _, err := exec.LookPath("osascript"); err == nil {
			return &appleScriptStore{}
		}
	}
	return unavailableStore{}
}

// appleScriptStore drives Calendar.app through osascript. Access to the
// event store requires a one-time automation grant from the OS; the grant
// check is slow, so a successful probe is cached for the process lifetime.
// A failed probe is never cached: the user may grant access later, and
// every call retries from scratch.
type appleScriptStore struct {
	mu         sync.Mutex
	authorized bool
}

const probeTimeout = 15 * time.Second

func (s *appleScriptStore) ensureAuthorized(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authorized {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := runOsascript(probeCtx, `tell application "Calendar" to count calendars`)
	if err != nil {
		appLog.Error("calendar authorization probe failed", err)
		return ErrUnavailable
	}
	appLog.Info("calendar store authorized", "calendars", strings.TrimSpace(out))
	s.authorized = true
	return nil
}

func (s *appleScriptStore) FindSameDayEntries(ctx context.Context, ev model.Event) ([]Entry, error) {
	if err := s.ensureAuthorized(ctx); err != nil {
		return nil, err
	}

	from, to := sameDayWindow(ev.Start)
	script := fmt.Sprintf(`
set out to ""
tell application "Calendar"
	repeat with c in calendars
		set evts to (every event of c whose start date >= date "%s" and start date < date "%s")
		repeat with e in evts
			set out to out & (uid of e) & tab & (name of c) & tab & (summary of e) & tab & ((start date of e) as «class isot» as string) & linefeed
		end repeat
	end repeat
end tell
return out`, from, to)

	out, err := runOsascript(ctx, script)
	if err != nil {
		appLog.Error("calendar lookup failed", err, "event_id", ev.ID)
		return nil, fmt.Errorf("calendar: lookup: %w", err)
	}

	var entries []Entry
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) != 4 {
			continue
		}
		start, perr := time.ParseInLocation("2006-01-02T15:04:05", fields[3], ev.Start.Location())
		if perr != nil {
			continue
		}
		entries = append(entries, Entry{
			ID:       fields[0],
			Calendar: fields[1],
			Title:    fields[2],
			Start:    start,
		})
	}
	return orderCandidates(entries, ev.Start), nil
}

func (s *appleScriptStore) SetEntryURL(ctx context.Context, entry Entry, url string) (bool, error) {
	if err := s.ensureAuthorized(ctx); err != nil {
		return false, err
	}

	script := fmt.Sprintf(`
set found to false
tell application "Calendar"
	repeat with c in calendars
		try
			set e to (first event of c whose uid is %q)
			set url of e to %q
			set found to true
			exit repeat
		end try
	end repeat
end tell
return found`, entry.ID, url)

	out, err := runOsascript(ctx, script)
	if err != nil {
		return false, fmt.Errorf("calendar: set url: %w", err)
	}
	return strings.Contains(strings.ToLower(out), "true"), nil
}

// sameDayWindow returns AppleScript date literals bounding start's calendar
// day: its own midnight and midnight of the following day, so an event in
// the day's last second is still inside the window. The literals use
// English month names; Calendar scripting on a non-English macOS locale may
// fail to parse them and the lookup then degrades to an error.
func sameDayWindow(start time.Time) (from, to string) {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	const layout = "January 2, 2006 15:04:05"
	return day.Format(layout), day.AddDate(0, 0, 1).Format(layout)
}

func runOsascript(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
