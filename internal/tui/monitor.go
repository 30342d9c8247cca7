package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stokradar/internal/app"
	"stokradar/internal/live"
)

const reportPollInterval = 30 * time.Second

// MonitorModel is the live session view: one streaming connection, one
// reducer, a report snapshot refreshed on a poll timer and on stream_end.
type MonitorModel struct {
	app   *app.Application
	theme Theme

	mgr *live.Manager
	red *live.Reducer

	input   textinput.Model
	spinner spinner.Model

	connState live.ConnState
	attempt   int
	gaveUp    bool

	reports   []app.AnalysisReport
	resetGen  int
	skus      []string
	toasts    []toast
	toastID   int
	lastError string

	width  int
	height int
}

func NewMonitorModel(application *app.Application, theme Theme, skus []string) *MonitorModel {
	input := textinput.New()
	input.Placeholder = "Analiz talebinizi yazın..."
	input.Prompt = "> "
	input.CharLimit = 500
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = theme.Spinner

	return &MonitorModel{
		app:       application,
		theme:     theme,
		mgr:       live.NewManager(application.Config.StreamURL, application.Log),
		red:       live.NewReducer(),
		input:     input,
		spinner:   sp,
		connState: live.StateDisconnected,
		skus:      skus,
		width:     100,
		height:    30,
	}
}

func (m *MonitorModel) Init() tea.Cmd {
	m.mgr.Connect()
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitStream(m.mgr.Events()),
		m.fetchReports(),
		pollTick(),
	)
}

// waitStream delivers exactly one manager event per command, preserving the
// queue's arrival order inside the update loop.
func waitStream(ch <-chan live.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		return streamMsg{ev: ev, ok: ok}
	}
}

func pollTick() tea.Cmd {
	return tea.Tick(reportPollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func (m *MonitorModel) fetchReports() tea.Cmd {
	return func() tea.Msg {
		reports, err := m.app.Backend.Reports(context.Background())
		return reportsSnapshotMsg{reports: reports, err: err}
	}
}

// Close tears down the streaming connection; called when the view is left.
func (m *MonitorModel) Close() {
	_ = m.mgr.Close()
}

func (m *MonitorModel) Update(msg tea.Msg) (*MonitorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case streamMsg:
		if !msg.ok {
			return m, nil
		}
		cmd := m.handleStreamEvent(msg.ev)
		return m, tea.Batch(cmd, waitStream(m.mgr.Events()))

	case reportsSnapshotMsg:
		if msg.err == nil {
			m.reports = msg.reports
		}
		return m, nil

	case pollTickMsg:
		return m, tea.Batch(m.fetchReports(), pollTick())

	case idleResetMsg:
		// A new exchange bumps the generation; stale resets are dropped.
		if msg.gen == m.resetGen {
			m.red.ResetLiveState()
		}
		return m, nil

	case toastExpireMsg:
		for i, t := range m.toasts {
			if t.id == msg.id {
				m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.red.Replying() || m.connState == live.StateConnecting {
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *MonitorModel) handleStreamEvent(ev live.Event) tea.Cmd {
	switch ev := ev.(type) {
	case live.StateEvent:
		m.connState = ev.State
		m.attempt = ev.Attempt
		m.gaveUp = ev.GaveUp
		if ev.State == live.StateConnected {
			m.lastError = ""
			return m.spinner.Tick
		}
		return nil

	case live.ErrEvent:
		m.lastError = ev.Err.Error()
		return nil

	case live.FrameEvent:
		return m.runEffects(m.red.Apply(ev.Frame))
	}
	return nil
}

func (m *MonitorModel) runEffects(effects []live.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range effects {
		switch eff := eff.(type) {
		case live.EffectRefreshReports:
			cmds = append(cmds, m.fetchReports())
		case live.EffectScheduleIdleReset:
			m.resetGen++
			gen := m.resetGen
			cmds = append(cmds, tea.Tick(live.IdleResetDelay, func(time.Time) tea.Msg {
				return idleResetMsg{gen: gen}
			}))
		case live.EffectNotify:
			cmds = append(cmds, m.pushToast(eff.Level, eff.Message))
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *MonitorModel) handleKey(msg tea.KeyMsg) (*MonitorModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		if m.connState != live.StateConnected {
			return m, m.pushToast("warning", "Bağlantı yok, mesaj gönderilemedi")
		}
		// A new message supersedes any in-flight exchange.
		m.resetGen++
		m.red.BeginExchange(m.skus)
		if err := m.mgr.SendMessage(text, m.app.Config.Profile, m.red.SessionID()); err != nil {
			return m, m.pushToast("error", fmt.Sprintf("Gönderilemedi: %v", err))
		}
		m.input.Reset()
		return m, m.spinner.Tick
	case "ctrl+r":
		if m.gaveUp || m.connState == live.StateDisconnected {
			m.mgr.Connect()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *MonitorModel) pushToast(level, message string) tea.Cmd {
	m.toastID++
	id := m.toastID
	m.toasts = append(m.toasts, toast{id: id, level: level, message: message})
	return tea.Tick(toastLifetime, func(time.Time) tea.Msg {
		return toastExpireMsg{id: id}
	})
}

func (m *MonitorModel) View() string {
	var b strings.Builder
	b.WriteString(m.header() + "\n\n")

	paneWidth := (m.width - 6) / 2
	if paneWidth < 30 {
		paneWidth = 30
	}

	left := m.renderProgressPane(paneWidth)
	right := m.renderEventPane(paneWidth)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right) + "\n")

	if reply := m.red.Reply(); reply != "" || m.red.Replying() {
		b.WriteString(m.renderReplyPane(reply) + "\n")
	}

	for _, t := range m.toasts {
		style := m.theme.Toast
		if t.level == "error" {
			style = m.theme.ToastErr
		}
		b.WriteString(style.Render("▸ "+t.message) + "\n")
	}

	b.WriteString("\n" + m.theme.InputBoxF.Width(m.width-4).Render(m.input.View()) + "\n")
	b.WriteString(m.theme.Footer.Render("enter gönder  ctrl+r yeniden bağlan  esc geri"))
	return b.String()
}

func (m *MonitorModel) header() string {
	title := m.theme.TopBarTitle.Render("Canlı İzleme")

	var badge string
	switch m.connState {
	case live.StateConnected:
		badge = m.theme.OK.Render("● bağlı")
	case live.StateConnecting:
		badge = m.theme.StockWarning.Render(m.spinner.View() + fmt.Sprintf(" bağlanıyor (%d)", m.attempt))
	default:
		if m.gaveUp {
			badge = m.theme.ERR.Render("● bağlantı kesildi, ctrl+r ile tekrar deneyin")
		} else {
			badge = m.theme.ERR.Render("● bağlantı yok")
		}
	}

	parts := []string{title, badge}
	if sid := m.red.SessionID(); sid != "" {
		parts = append(parts, m.theme.TopBarMeta.Render("oturum "+shortID(sid)))
	}
	if m.lastError != "" {
		parts = append(parts, m.theme.ERR.Render(m.lastError))
	}
	return strings.Join(parts, "  ")
}

func (m *MonitorModel) renderProgressPane(width int) string {
	var b strings.Builder
	items := m.red.Items()
	if len(items) == 0 {
		b.WriteString(m.theme.Neutral.Render("Henüz aktif bir analiz yok."))
	}
	for _, item := range items {
		b.WriteString(m.renderItem(item) + "\n")
	}
	return m.theme.Pane.Width(width).Render(
		m.theme.PaneTitle.Render("Analiz Durumu") + "\n" + strings.TrimRight(b.String(), "\n"))
}

func (m *MonitorModel) renderItem(item live.ItemProgress) string {
	var mark string
	switch item.Status {
	case live.ItemDone:
		mark = m.theme.OK.Render("✓")
	case live.ItemError:
		mark = m.theme.ERR.Render("✗")
	case live.ItemPending:
		mark = m.theme.Neutral.Render("·")
	default:
		mark = m.theme.Spinner.Render(m.spinner.View())
	}
	line := fmt.Sprintf("%s %s", mark, item.SKU)
	if item.Message != "" {
		msg := item.Message
		if len(msg) > 48 {
			msg = msg[:47] + "…"
		}
		line += m.theme.Neutral.Render("  " + msg)
	}
	return line
}

func (m *MonitorModel) renderEventPane(width int) string {
	var b strings.Builder

	for _, t := range m.red.ActiveTools() {
		b.WriteString(m.theme.Spinner.Render(m.spinner.View()) + " " +
			m.theme.Selected.Render(t.Name) +
			m.theme.Neutral.Render("  çalışıyor") + "\n")
	}
	for _, t := range m.red.CompletedTools() {
		dur := ""
		if t.EndedAt != nil {
			dur = fmt.Sprintf("  %s", t.EndedAt.Sub(t.StartedAt).Round(time.Millisecond))
		}
		b.WriteString(m.theme.OK.Render("✓") + " " + t.Name + m.theme.Neutral.Render(dur) + "\n")
	}

	log := m.red.EventLog()
	maxLines := m.height / 2
	if maxLines < 5 {
		maxLines = 5
	}
	if len(log) > maxLines {
		log = log[len(log)-maxLines:]
	}
	for _, e := range log {
		ts := m.theme.Neutral.Render(e.Time.Format("15:04:05"))
		b.WriteString(ts + " " + e.Message + "\n")
	}
	if b.Len() == 0 {
		b.WriteString(m.theme.Neutral.Render("Olay akışı boş."))
	}
	return m.theme.Pane.Width(width).Render(
		m.theme.PaneTitle.Render("Olay Akışı") + "\n" + strings.TrimRight(b.String(), "\n"))
}

func (m *MonitorModel) renderReplyPane(reply string) string {
	title := m.theme.PaneTitle.Render("Yanıt")
	if m.red.Replying() {
		title += " " + m.theme.Spinner.Render(m.spinner.View())
	}
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	return m.theme.Pane.Width(w).Render(title + "\n" + reply)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
