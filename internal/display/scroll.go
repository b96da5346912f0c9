package display

// Scroll geometry.
const (
	// Step is the horizontal scroll distance in pixels.
	Step = 20
	// Margin is the slack allowed past the widest value when scrolling right.
	Margin = 10
)

// Command is a scroll request from an input source.
type Command int

// Scroll commands.
const (
	ScrollUp Command = iota + 1
	ScrollDown
	ScrollLeft
	ScrollRight
)

// String returns the command name for logs.
func (c Command) String() string {
	switch c {
	case ScrollUp:
		return "up"
	case ScrollDown:
		return "down"
	case ScrollLeft:
		return "left"
	case ScrollRight:
		return "right"
	default:
		return "unknown"
	}
}

// State is the viewport position: Row is the first visible line and X is the
// horizontal pixel offset. Only the render loop mutates it.
type State struct {
	Row int
	X   int
}

// MaxRow is the largest first-visible-line index for total lines shown
// height at a time.
func MaxRow(total, height int) int {
	if height < 1 {
		height = 1
	}
	if total <= height {
		return 0
	}
	return total - height
}

// MaxScrollX is how far right the viewport may scroll before the widest
// value has fully passed, plus Margin.
//
// Content no wider than the viewport cannot scroll at all. This takes
// precedence over the Margin slack, so content 1 to Margin-1 pixels
// narrower than the viewport also yields 0 and Right stays a no-op.
func MaxScrollX(contentWidth, viewportWidth int) int {
	maxX := contentWidth - viewportWidth + Margin
	if maxX < 0 || contentWidth <= viewportWidth {
		return 0
	}
	return maxX
}

// Up moves the viewport one line up, stopping at the first line.
func (s *State) Up(total, height int) {
	s.Row--
	s.clampRow(total, height)
}

// Down moves the viewport one line down, stopping when the last line is at
// the bottom of the viewport.
func (s *State) Down(total, height int) {
	s.Row++
	s.clampRow(total, height)
}

// Left scrolls back by Step, stopping at 0.
func (s *State) Left() {
	s.X -= Step
	if s.X < 0 {
		s.X = 0
	}
}

// Right scrolls forward by Step, stopping at maxX.
func (s *State) Right(maxX int) {
	s.X += Step
	if s.X > maxX {
		s.X = maxX
	}
	if s.X < 0 {
		s.X = 0
	}
}

// Apply performs cmd against the current content size.
func (s *State) Apply(cmd Command, total, height, maxX int) {
	switch cmd {
	case ScrollUp:
		s.Up(total, height)
	case ScrollDown:
		s.Down(total, height)
	case ScrollLeft:
		s.Left()
	case ScrollRight:
		s.Right(maxX)
	}
}

// Clamp pulls both offsets back into range after the content changed size.
func (s *State) Clamp(total, height, maxX int) {
	s.clampRow(total, height)
	if s.X > maxX {
		s.X = maxX
	}
	if s.X < 0 {
		s.X = 0
	}
}

func (s *State) clampRow(total, height int) {
	if m := MaxRow(total, height); s.Row > m {
		s.Row = m
	}
	if s.Row < 0 {
		s.Row = 0
	}
}

// Visible returns the slice of lines the viewport shows.
func (s State) Visible(lines []Line, height int) []Line {
	if s.Row >= len(lines) {
		return nil
	}
	end := s.Row + height
	if end > len(lines) {
		end = len(lines)
	}
	return lines[s.Row:end]
}

// ContentWidth is the widest value among lines, in pixels. Labels are not
// counted since they are always shorter than the viewport on real panels.
func ContentWidth(lines []Line, m Measurer) int {
	widest := 0
	for _, l := range lines {
		if w := m.Measure(l.Value); w > widest {
			widest = w
		}
	}
	return widest
}
