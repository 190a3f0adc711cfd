// Package nav holds the navigation stack: an ordered sequence of view
// frames the user has drilled into. Frame 0 is always the favorites view;
// every frame above it is one category level. Each frame remembers its own
// cursor row so that popping back restores the exact position the user
// left.
package nav

// Mode identifies what a frame displays.
type Mode int

const (
	ModeFavorites Mode = iota
	ModeCategory
)

func (m Mode) String() string {
	if m == ModeFavorites {
		return "favorites"
	}
	return "category"
}

// Frame is one level of the navigation stack.
type Frame struct {
	Mode         Mode
	CategoryID   int
	CategoryName string
	CursorRow    int
}

// Stack is a non-empty ordered sequence of frames. Only the top frame is
// rendered; the rest keep their last-known cursor rows for restoration.
// Stack is not safe for concurrent use; all mutation happens on the UI
// event loop.
type Stack struct {
	frames []Frame
}

// New returns a stack holding the favorites root frame.
func New() *Stack {
	return &Stack{frames: []Frame{{Mode: ModeFavorites}}}
}

// Depth returns the number of frames, always >= 1.
func (s *Stack) Depth() int { return len(s.frames) }

// Current returns the top frame. The pointer stays valid until the next
// Push/Pop/Reset.
func (s *Stack) Current() *Frame { return &s.frames[len(s.frames)-1] }

// Root returns frame 0, the favorites frame.
func (s *Stack) Root() *Frame { return &s.frames[0] }

// FrameAt returns the frame at depth i (0 is the root).
func (s *Stack) FrameAt(i int) *Frame { return &s.frames[i] }

// Push appends a category frame and makes it current. The caller is
// responsible for saving the outgoing frame's cursor first (SaveCursor).
func (s *Stack) Push(categoryID int, categoryName string) {
	s.frames = append(s.frames, Frame{
		Mode:         ModeCategory,
		CategoryID:   categoryID,
		CategoryName: categoryName,
	})
}

// Pop removes the top frame and reports whether anything was removed.
// Frame 0 is never removed.
func (s *Stack) Pop() bool {
	if len(s.frames) <= 1 {
		return false
	}
	s.frames = s.frames[:len(s.frames)-1]
	return true
}

// Reset collapses the stack to the favorites root, preserving the root's
// saved cursor row.
func (s *Stack) Reset() {
	s.frames = s.frames[:1]
}

// SaveCursor records row into the current frame.
func (s *Stack) SaveCursor(row int) {
	s.Current().CursorRow = row
}
