// Package tui is the terminal front end: a selection screen, a batch
// results screen and a live monitoring screen, each a bubbletea model
// routed by a thin root.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"stokradar/internal/app"
)

type screen int

const (
	screenProducts screen = iota
	screenResults
	screenMonitor
)

// Model is the root: it routes messages to the active screen and handles
// navigation between them.
type Model struct {
	app   *app.Application
	theme Theme

	active   screen
	products *ProductsModel
	results  *ResultsModel
	monitor  *MonitorModel

	width  int
	height int
}

func NewModel(application *app.Application) Model {
	theme := NewTheme()
	return Model{
		app:      application,
		theme:    theme,
		active:   screenProducts,
		products: NewProductsModel(application, theme),
	}
}

func (m Model) Init() tea.Cmd {
	return m.products.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Every screen tracks its own copy of the size.
		var cmds []tea.Cmd
		if m.products != nil {
			var cmd tea.Cmd
			m.products, cmd = m.products.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.results != nil {
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.monitor != nil {
			var cmd tea.Cmd
			m.monitor, cmd = m.monitor.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case startBatchMsg:
		m.results = NewResultsModel(m.app, m.theme, msg.skus)
		m.active = screenResults
		return m, m.results.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.teardown()
			return m, tea.Quit
		case "q":
			// Plain q only quits outside text entry.
			if m.active == screenProducts && !m.products.search.Focused() {
				m.teardown()
				return m, tea.Quit
			}
		case "esc":
			switch m.active {
			case screenMonitor:
				if m.monitor != nil {
					m.monitor.Close()
					m.monitor = nil
				}
				m.active = screenResults
				return m, nil
			case screenResults:
				m.active = screenProducts
				// Back on the selection screen, resume report enrichment.
				return m, m.products.Init()
			}
		case "m":
			if m.active == screenResults && m.results != nil {
				m.monitor = NewMonitorModel(m.app, m.theme, m.results.SKUs())
				m.active = screenMonitor
				return m, m.monitor.Init()
			}
		}
	}

	return m.route(msg)
}

func (m Model) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.active {
	case screenProducts:
		m.products, cmd = m.products.Update(msg)
	case screenResults:
		if m.results != nil {
			m.results, cmd = m.results.Update(msg)
		}
	case screenMonitor:
		if m.monitor != nil {
			m.monitor, cmd = m.monitor.Update(msg)
		}
	}
	return m, cmd
}

func (m Model) teardown() {
	if m.monitor != nil {
		m.monitor.Close()
	}
	m.app.Reports.Cancel()
}

func (m Model) View() string {
	switch m.active {
	case screenResults:
		if m.results != nil {
			return m.results.View()
		}
	case screenMonitor:
		if m.monitor != nil {
			return m.monitor.View()
		}
	}
	return m.products.View()
}
