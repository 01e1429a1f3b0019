// Package tui is the terminal front end: the alarm table, the add/edit form
// and the ring view shown when an alarm fires.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bsid.es/despierta"
	"bsid.es/despierta/notify"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	bulletStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	onStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	offStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	ringStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(1, 4)
)

const statusTTL = 5 * time.Second

// firingMsg carries one firing from the clock subscription into the UI loop.
type firingMsg despierta.Firing

// subClosedMsg means the clock dropped our subscription; we resubscribe.
type subClosedMsg struct{}

type Model struct {
	list   *despierta.List
	clock  despierta.Clock
	snooze time.Duration

	ctx context.Context
	sub despierta.ClockSubscription

	tbl     table.Model
	editing bool
	editID  string // empty while adding
	inputs  []textinput.Model
	field   int

	// ringing queues fired alarms; the front one is on screen.
	ringing []despierta.Firing

	status       string
	statusWarn   bool
	statusExpiry time.Time

	width, height int
}

// New builds the UI over an already-loaded list and a running clock. warning
// is shown in the status line at startup, e.g. after a corrupt data file.
func New(list *despierta.List, clock despierta.Clock, snooze time.Duration, warning string) Model {
	ctx := context.Background()
	m := Model{
		list:   list,
		clock:  clock,
		snooze: snooze,
		ctx:    ctx,
		sub:    clock.Subscribe(ctx),
	}

	m.tbl = table.New(
		table.WithColumns([]table.Column{
			{Title: "Label", Width: 24},
			{Title: "Time", Width: 7},
			{Title: "Days", Width: 15},
			{Title: "State", Width: 6},
		}),
		table.WithRows(m.rows()),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("86"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	m.tbl.SetStyles(s)

	if warning != "" {
		m.status = warning
		m.statusWarn = true
		m.statusExpiry = time.Now().Add(30 * time.Second)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.waitForFiring()
}

// waitForFiring blocks on the subscription channel and feeds the next firing
// into the update loop.
func (m Model) waitForFiring() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		firing, ok := <-sub.C()
		if !ok {
			return subClosedMsg{}
		}
		return firingMsg(firing)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case firingMsg:
		m.ringing = append(m.ringing, despierta.Firing(msg))
		notify.Fire(despierta.Firing(msg))
		return m, m.waitForFiring()

	case subClosedMsg:
		m.sub = m.clock.Subscribe(m.ctx)
		return m, m.waitForFiring()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := m.height - 8; h >= 5 {
			m.tbl.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case len(m.ringing) > 0:
			return m.handleRingKeys(msg)
		case m.editing:
			return m.handleEditKeys(msg)
		default:
			return m.handleListKeys(msg)
		}
	}

	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "a", "n":
		m.startEdit("")
	case "e":
		if a, ok := m.selected(); ok {
			m.startEdit(a.ID)
		}
	case "d", "delete":
		if a, ok := m.selected(); ok {
			m.persisted(m.list.Remove(a.ID))
			m.tbl.SetRows(m.rows())
		}
	case " ", "enter":
		if a, ok := m.selected(); ok {
			m.persisted(m.list.Toggle(a.ID))
			m.tbl.SetRows(m.rows())
		}
	default:
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.inputs = nil
	case "enter":
		if m.saveEdit() {
			m.editing = false
			m.inputs = nil
			m.tbl.SetRows(m.rows())
		}
	case "tab", "shift+tab", "up", "down":
		step := 1
		if msg.String() == "shift+tab" || msg.String() == "up" {
			step = len(m.inputs) - 1
		}
		m.field = (m.field + step) % len(m.inputs)
		for i := range m.inputs {
			m.inputs[i].Blur()
		}
		m.inputs[m.field].Focus()
	default:
		var cmd tea.Cmd
		m.inputs[m.field], cmd = m.inputs[m.field].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleRingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	firing := m.ringing[0]
	switch msg.String() {
	case "enter", "esc", "d":
		m.ringing = m.ringing[1:]
	case "s":
		m.persisted(m.list.Snooze(firing.Alarm.ID, time.Now(), m.snooze))
		m.ringing = m.ringing[1:]
	case "ctrl+c":
		return m, tea.Quit
	}
	m.tbl.SetRows(m.rows())
	return m, nil
}

func (m *Model) startEdit(id string) {
	m.editing = true
	m.editID = id
	m.field = 0

	m.inputs = make([]textinput.Model, 3)
	for i := range m.inputs {
		m.inputs[i] = textinput.New()
	}
	m.inputs[1].Placeholder = "07:30"
	m.inputs[2].Placeholder = "mon,tue,wed (empty = once)"

	if id != "" {
		if a, ok := m.list.Get(id); ok {
			m.inputs[0].SetValue(a.Label)
			m.inputs[1].SetValue(a.Time.String())
			m.inputs[2].SetValue(a.Repeat.String())
		}
	}
	m.inputs[0].Focus()
}

// saveEdit validates the form and applies it. It reports whether the form
// can be closed; validation failures keep it open with a status message.
func (m *Model) saveEdit() bool {
	label := strings.TrimSpace(m.inputs[0].Value())

	t, err := despierta.ParseTimeOfDay(strings.TrimSpace(m.inputs[1].Value()))
	if err != nil {
		m.setStatus(despierta.ErrorDescription(err), true)
		return false
	}
	repeat, err := despierta.ParseWeekdays(m.inputs[2].Value())
	if err != nil {
		m.setStatus(despierta.ErrorDescription(err), true)
		return false
	}

	if m.editID == "" {
		_, err = m.list.Add(t, label, repeat)
	} else {
		err = m.list.Update(m.editID, t, label, repeat)
	}
	m.persisted(err)
	return true
}

// persisted reports a failed save in the status line. The mutation itself
// survives in memory, so the message is a warning, not a rollback.
func (m *Model) persisted(err error) {
	if err != nil {
		m.setStatus("save failed: "+despierta.ErrorDescription(err), true)
	}
}

func (m *Model) setStatus(msg string, warn bool) {
	m.status = msg
	m.statusWarn = warn
	m.statusExpiry = time.Now().Add(statusTTL)
}

func (m Model) selected() (despierta.Alarm, bool) {
	alarms := m.list.Alarms()
	cursor := m.tbl.Cursor()
	if cursor < 0 || cursor >= len(alarms) {
		return despierta.Alarm{}, false
	}
	return alarms[cursor], true
}

func (m Model) rows() []table.Row {
	var rows []table.Row
	for _, a := range m.list.Alarms() {
		state := offStyle.Render("off")
		if a.Enabled {
			state = onStyle.Render("on")
		}
		rows = append(rows, table.Row{a.Label, a.Time.String(), dayCell(a.Repeat), state})
	}
	return rows
}

// dayCell renders the repeat set monday-first, one letter per day, the way
// the table header row reads.
func dayCell(d despierta.Weekdays) string {
	if d == 0 {
		return "once"
	}
	letters := [...]string{"M", "T", "W", "T", "F", "S", "S"}
	cells := make([]string, 7)
	for i := 0; i < 7; i++ {
		wd := time.Weekday((i + 1) % 7)
		if d.Has(wd) {
			cells[i] = letters[i]
		} else {
			cells[i] = "-"
		}
	}
	return strings.Join(cells, " ")
}

func (m Model) View() string {
	switch {
	case len(m.ringing) > 0:
		return m.ringView()
	case m.editing:
		return m.editView()
	}
	return m.listView()
}

func (m Model) listView() string {
	header := headerStyle.Render("despierta")

	commands := []string{
		keyStyle.Render("a") + ": " + actionStyle.Render("add"),
		keyStyle.Render("e") + ": " + actionStyle.Render("edit"),
		keyStyle.Render("d") + ": " + actionStyle.Render("delete"),
		keyStyle.Render("space") + ": " + actionStyle.Render("toggle"),
		keyStyle.Render("q") + ": " + actionStyle.Render("quit"),
	}
	footer := strings.Join(commands, bulletStyle.Render(" | "))

	return lipgloss.JoinVertical(lipgloss.Top,
		header,
		"",
		m.tbl.View(),
		"",
		footer+m.statusLine(),
	)
}

func (m Model) editView() string {
	title := "New alarm"
	if m.editID != "" {
		title = "Edit alarm"
	}
	labels := []string{"Label:", "Time (HH:MM):", "Repeat days:"}

	var fields []string
	for i, input := range m.inputs {
		label := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Render(labels[i])
		fields = append(fields, label+"\n"+input.View())
	}

	footer := keyStyle.Render("tab") + ": " + actionStyle.Render("next field") +
		bulletStyle.Render(" | ") + keyStyle.Render("enter") + ": " + actionStyle.Render("save") +
		bulletStyle.Render(" | ") + keyStyle.Render("esc") + ": " + actionStyle.Render("cancel")

	return lipgloss.JoinVertical(lipgloss.Top,
		headerStyle.Render(title),
		"",
		lipgloss.JoinVertical(lipgloss.Top, fields...),
		"",
		footer+m.statusLine(),
	)
}

func (m Model) ringView() string {
	firing := m.ringing[0]
	label := firing.Alarm.Label
	if label == "" {
		label = "Alarm"
	}
	box := ringStyle.Render(label + "\n" + firing.Alarm.Time.String())

	footer := keyStyle.Render("enter") + ": " + actionStyle.Render("dismiss") +
		bulletStyle.Render(" | ") + keyStyle.Render("s") + ": " + actionStyle.Render("snooze")
	if len(m.ringing) > 1 {
		footer += bulletStyle.Render(" | ") + warnStyle.Render("more alarms waiting")
	}

	return lipgloss.JoinVertical(lipgloss.Top,
		headerStyle.Render("despierta"),
		"",
		box,
		"",
		footer,
	)
}

func (m Model) statusLine() string {
	if m.status == "" || time.Now().After(m.statusExpiry) {
		return ""
	}
	style := actionStyle
	if m.statusWarn {
		style = warnStyle
	}
	return "\n> " + style.Render(m.status)
}
