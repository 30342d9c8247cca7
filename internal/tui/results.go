package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"stokradar/internal/app"
)

const toastLifetime = 4 * time.Second

// ResultsModel runs one analysis batch: every selected SKU is requested in
// parallel and the cards resolve independently.
type ResultsModel struct {
	app   *app.Application
	theme Theme

	batch   *app.Batch
	spinner spinner.Model
	cursor  int

	toasts  []toast
	toastID int

	width  int
	height int
}

func NewResultsModel(application *app.Application, theme Theme, skus []string) *ResultsModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = theme.Spinner
	return &ResultsModel{
		app:     application,
		theme:   theme,
		batch:   app.NewBatch(skus),
		spinner: sp,
		width:   100,
		height:  30,
	}
}

func (m *ResultsModel) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.batch.SKUs)+1)
	cmds = append(cmds, m.spinner.Tick)
	for _, sku := range m.batch.SKUs {
		cmds = append(cmds, m.analyzeCmd(sku))
	}
	return tea.Batch(cmds...)
}

func (m *ResultsModel) analyzeCmd(sku string) tea.Cmd {
	return func() tea.Msg {
		report, err := m.app.Backend.Analyze(context.Background(), sku)
		return analyzedMsg{sku: sku, report: report, err: err}
	}
}

func (m *ResultsModel) orderCmd(sku string) tea.Cmd {
	return func() tea.Msg {
		message, err := m.app.Backend.PlaceOrder(context.Background(), sku)
		return orderedMsg{sku: sku, message: message, err: err}
	}
}

// SKUs exposes the batch members so the monitor screen can seed its
// progress list from the same set.
func (m *ResultsModel) SKUs() []string {
	return m.batch.SKUs
}

func (m *ResultsModel) Update(msg tea.Msg) (*ResultsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case analyzedMsg:
		m.batch.Resolve(msg.sku, msg.report, msg.err)
		return m, nil

	case orderedMsg:
		status := m.batch.ResolveOrder(msg.sku, msg.err)
		switch status {
		case app.OrderDone:
			text := msg.message
			if text == "" {
				text = fmt.Sprintf("%s için sipariş oluşturuldu", msg.sku)
			}
			return m, m.pushToast("success", text)
		case app.OrderAlreadyOrdered:
			text := msg.message
			if text == "" {
				text = fmt.Sprintf("%s için zaten aktif bir sipariş var", msg.sku)
			}
			return m, m.pushToast("warning", text)
		default:
			return m, m.pushToast("error", fmt.Sprintf("Sipariş başarısız: %v", msg.err))
		}

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
		if m.anyPending() {
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *ResultsModel) anyPending() bool {
	if m.batch.DoneCount() < m.batch.Total() {
		return true
	}
	for _, sku := range m.batch.SKUs {
		if m.batch.OrderStatus(sku) == app.OrderLoading {
			return true
		}
	}
	return false
}

func (m *ResultsModel) handleKey(msg tea.KeyMsg) (*ResultsModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.batch.SKUs)-1 {
			m.cursor++
		}
	case "r":
		sku := m.currentSKU()
		if sku == "" {
			return m, nil
		}
		res, ok := m.batch.Result(sku)
		if !ok || res.Status != app.AnalysisError {
			return m, nil
		}
		m.batch.Retry(sku)
		return m, tea.Batch(m.spinner.Tick, m.analyzeCmd(sku))
	case "o", "enter":
		sku := m.currentSKU()
		if sku == "" {
			return m, nil
		}
		res, ok := m.batch.Result(sku)
		if !ok || res.Status != app.AnalysisDone {
			return m, nil
		}
		if !m.batch.BeginOrder(sku) {
			return m, nil
		}
		return m, tea.Batch(m.spinner.Tick, m.orderCmd(sku))
	}
	return m, nil
}

func (m *ResultsModel) currentSKU() string {
	if m.cursor < 0 || m.cursor >= len(m.batch.SKUs) {
		return ""
	}
	return m.batch.SKUs[m.cursor]
}

func (m *ResultsModel) pushToast(level, message string) tea.Cmd {
	m.toastID++
	id := m.toastID
	m.toasts = append(m.toasts, toast{id: id, level: level, message: message})
	return tea.Tick(toastLifetime, func(time.Time) tea.Msg {
		return toastExpireMsg{id: id}
	})
}

func (m *ResultsModel) View() string {
	var b strings.Builder
	done, total := m.batch.DoneCount(), m.batch.Total()
	header := m.theme.TopBarTitle.Render("Analiz Sonuçları") + "  " +
		m.theme.TopBarMeta.Render(fmt.Sprintf("%d/%d tamamlandı", done, total))
	b.WriteString(header + "\n")
	b.WriteString(m.progressBar(done, total) + "\n\n")

	for i, sku := range m.batch.SKUs {
		b.WriteString(m.renderCard(sku, i == m.cursor) + "\n")
	}

	for _, t := range m.toasts {
		style := m.theme.Toast
		if t.level == "error" {
			style = m.theme.ToastErr
		}
		b.WriteString(style.Render("▸ "+t.message) + "\n")
	}

	b.WriteString("\n" + m.theme.Footer.Render("o sipariş  r tekrar dene  m canlı izleme  esc geri"))
	return b.String()
}

func (m *ResultsModel) progressBar(done, total int) string {
	width := m.width - 10
	if width < 10 {
		width = 10
	}
	if width > 60 {
		width = 60
	}
	filled := 0
	if total > 0 {
		filled = width * done / total
	}
	bar := m.theme.Selected.Render(strings.Repeat("█", filled)) +
		m.theme.Neutral.Render(strings.Repeat("░", width-filled))
	return bar
}

func (m *ResultsModel) renderCard(sku string, focused bool) string {
	res, _ := m.batch.Result(sku)
	pane := m.theme.Pane
	if focused {
		pane = m.theme.PaneFocused
	}

	var body string
	switch res.Status {
	case app.AnalysisLoading:
		body = m.theme.Spinner.Render(m.spinner.View()) + " " + m.theme.Neutral.Render("analiz ediliyor...")
	case app.AnalysisError:
		body = m.theme.ERR.Render("Hata: "+res.Err) + "\n" +
			m.theme.Neutral.Render("r: Tekrar Dene")
	default:
		body = m.renderReport(sku, res.Report)
	}

	title := m.theme.PaneTitle.Render(sku)
	if focused {
		title = m.theme.PaneTitleF.Render(sku)
	}
	inner := title + "\n" + body
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	return pane.Width(w).Render(inner)
}

func (m *ResultsModel) renderReport(sku string, r *app.AnalysisReport) string {
	if r == nil {
		return m.theme.Neutral.Render("rapor yok")
	}
	var b strings.Builder

	badge := m.theme.DemandLow.Render("Düşük Talep")
	switch r.DemandLevel {
	case app.DemandHigh:
		badge = m.theme.DemandHigh.Render("Yüksek Talep")
	case app.DemandMedium:
		badge = m.theme.DemandMedium.Render("Orta Talep")
	}
	b.WriteString(badge)

	trend := fmt.Sprintf("%+.1f%%", r.WeeklyTrendPct)
	b.WriteString(m.theme.Neutral.Render("  haftalık trend ") + trend + "\n")

	b.WriteString(fmt.Sprintf("Günlük ort. satış: %.1f   Kritik stok: %d   Kalan gün: %d\n",
		r.AvgDailyQuantity, r.CriticalStockValue, r.StockRemainingDay))
	b.WriteString(fmt.Sprintf("Önerilen fiyat: ₺%.2f (%%%.0f indirim)   Toplam ciro: ₺%.2f\n",
		r.RecommendedPrice, r.RecommendedDiscount, r.TotalRevenue))

	if len(r.ActionPlan) > 0 {
		b.WriteString(m.theme.PaneTitle.Render("Aksiyon Planı") + "\n")
		for _, step := range r.ActionPlan {
			b.WriteString("  • " + step + "\n")
		}
	}

	if r.NeedsOrder {
		b.WriteString(m.theme.StockWarning.Render(
			fmt.Sprintf("Sipariş önerisi: %d adet / 30 gün", r.RecommendedOrderQty())) + "\n")
	}

	switch m.batch.OrderStatus(sku) {
	case app.OrderLoading:
		b.WriteString(m.theme.Spinner.Render(m.spinner.View()) + " sipariş veriliyor...")
	case app.OrderDone:
		b.WriteString(m.theme.OK.Render("✓ Sipariş oluşturuldu"))
	case app.OrderAlreadyOrdered:
		b.WriteString(m.theme.StockWarning.Render("Zaten sipariş verilmiş"))
	case app.OrderError:
		b.WriteString(m.theme.ERR.Render("Sipariş başarısız") + m.theme.Neutral.Render("  o: tekrar dene"))
	default:
		if r.NeedsOrder {
			b.WriteString(m.theme.Selected.Render("o: Sipariş Ver"))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
