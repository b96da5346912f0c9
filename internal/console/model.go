package console

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rpint/rpint/internal/display"
	"github.com/rpint/rpint/internal/input"
	"github.com/rpint/rpint/internal/power"
	"github.com/rpint/rpint/internal/ui"
)

// CellWidth is how many panel pixels one terminal column stands for.
const CellWidth = 7

// sparkWidth is the number of battery samples drawn in the header.
const sparkWidth = 16

// frameMsg carries a frame from the render loop.
type frameMsg display.Frame

// handledMsg reports the outcome of a dispatched event.
type handledMsg struct {
	ev  input.Event
	err error
}

// Model is the Bubble Tea model for the console view. It shows the same
// frames the panel would and forwards keys as button events.
type Model struct {
	ctx      context.Context
	handler  input.Handler
	history  *power.History
	help     help.Model
	frame    display.Frame
	status   string
	width    int
	showHelp bool
	quitting bool
}

// NewModel creates a console model. history may be nil.
func NewModel(ctx context.Context, h input.Handler, history *power.History) Model {
	return Model{
		ctx:     ctx,
		handler: h,
		history: history,
		help:    help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil
		}
		if ev, ok := eventFor(msg); ok {
			return m, m.dispatch(ev)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case frameMsg:
		m.frame = display.Frame(msg)

	case handledMsg:
		switch {
		case msg.err != nil:
			m.status = msg.ev.String() + " failed: " + firstLine(msg.err.Error())
		case msg.ev == input.EventRefresh:
			m.status = "neighbor refresh requested"
		case msg.ev == input.EventShutdown:
			m.status = "shutting down"
		}
	}

	return m, nil
}

// dispatch hands ev to the handler off the UI goroutine.
func (m Model) dispatch(ev input.Event) tea.Cmd {
	if m.handler == nil {
		return nil
	}
	h, ctx := m.handler, m.ctx
	return func() tea.Msg {
		return handledMsg{ev: ev, err: h.Handle(ctx, ev)}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	battery, rows := renderFrame(m.frame)

	var b strings.Builder
	header := titleStyle.Render("rpint")
	if battery != "" {
		header += "  " + styleFor(display.ColorYellow).Render(battery)
	}
	if m.history != nil {
		if spark := ui.RenderBatterySparkline(m.history.Last(sparkWidth), sparkWidth); spark != "" {
			header += " " + spark
		}
	}
	b.WriteString(header)
	b.WriteString("\n")

	cols := m.frame.Width / CellWidth
	if cols < 1 {
		cols = 1
	}
	b.WriteString(screenStyle.Width(cols + 2).Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render(m.help.View(keys)))
	return b.String()
}

// renderFrame converts draw operations to terminal rows. The battery header
// is returned separately so it stays outside the scrolled area.
func renderFrame(f display.Frame) (battery string, rows []string) {
	cols := f.Width / CellWidth
	for _, op := range f.Ops {
		if op.Y == 0 && op.Color == display.ColorYellow {
			battery = op.Text
			continue
		}
		rows = append(rows, styleFor(op.Color).Render(place(op.Text, op.X, cols)))
	}
	return battery, rows
}

// place shifts text by x pixels and cuts it to cols columns.
func place(text string, x, cols int) string {
	runes := []rune(text)
	shift := (x - display.LeftMargin) / CellWidth
	if shift < 0 {
		if -shift >= len(runes) {
			return ""
		}
		runes = runes[-shift:]
	} else if shift > 0 {
		runes = append([]rune(strings.Repeat(" ", shift)), runes...)
	}
	if cols > 0 && len(runes) > cols {
		runes = runes[:cols]
	}
	return string(runes)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
