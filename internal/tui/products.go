package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"stokradar/internal/app"
)

type sortMode int

const (
	sortDefault sortMode = iota
	sortCritical
	sortNameAsc
	sortNameDesc
	sortStockAsc
	sortStockDesc
)

var sortLabels = map[sortMode]string{
	sortDefault:   "Varsayılan",
	sortCritical:  "Kritik Stok",
	sortNameAsc:   "İsim A-Z",
	sortNameDesc:  "İsim Z-A",
	sortStockAsc:  "Stok ↑",
	sortStockDesc: "Stok ↓",
}

// ProductsModel is the selection screen: catalog list with live report
// enrichment streaming in from the fetch pool.
type ProductsModel struct {
	app   *app.Application
	theme Theme

	spinner spinner.Model
	search  textinput.Model

	products []app.Product
	reports  map[string]app.AnalysisReport
	enriched []app.Product

	loading  bool
	loadErr  string
	sort     sortMode
	selected map[string]bool
	cursor   int

	reportCh <-chan app.ReportResult

	width  int
	height int
}

func NewProductsModel(application *app.Application, theme Theme) *ProductsModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	search := textinput.New()
	search.Placeholder = "Ürün adı veya ID ile ara..."
	search.Prompt = "/ "
	search.CharLimit = 64

	return &ProductsModel{
		app:      application,
		theme:    theme,
		spinner:  sp,
		search:   search,
		reports:  make(map[string]app.AnalysisReport),
		loading:  true,
		selected: make(map[string]bool),
		width:    100,
		height:   30,
	}
}

func (m *ProductsModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchProducts())
}

func (m *ProductsModel) fetchProducts() tea.Cmd {
	return func() tea.Msg {
		products, err := m.app.Products.Fetch(context.Background())
		return productsMsg{products: products, err: err}
	}
}

func waitReport(ch <-chan app.ReportResult) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		return reportMsg{res: res, ok: ok}
	}
}

func (m *ProductsModel) Update(msg tea.Msg) (*ProductsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case productsMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			return m, nil
		}
		m.products = msg.products
		m.enriched = app.Enrich(m.products, m.reports)

		skus := make([]string, len(m.products))
		for i, p := range m.products {
			skus[i] = p.ProductID
		}
		m.reportCh = m.app.Reports.Start(context.Background(), skus)
		return m, waitReport(m.reportCh)

	case reportMsg:
		if !msg.ok {
			return m, nil
		}
		if msg.res.Err == nil && msg.res.Report != nil {
			m.reports[msg.res.SKU] = *msg.res.Report
			m.enriched = app.Enrich(m.products, m.reports)
		}
		// A failed or missing report leaves the base record untouched.
		return m, waitReport(m.reportCh)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loading {
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			switch msg.Type {
			case tea.KeyEsc, tea.KeyEnter:
				m.search.Blur()
				return m, nil
			default:
				var cmd tea.Cmd
				m.search, cmd = m.search.Update(msg)
				m.cursor = 0
				return m, cmd
			}
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *ProductsModel) handleKey(msg tea.KeyMsg) (*ProductsModel, tea.Cmd) {
	visible := m.visibleProducts()
	switch msg.String() {
	case "/":
		m.search.Focus()
		return m, textinput.Blink
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case " ":
		if m.cursor < len(visible) {
			id := visible[m.cursor].ProductID
			if m.selected[id] {
				delete(m.selected, id)
			} else {
				m.selected[id] = true
			}
		}
	case "a":
		all := true
		for _, p := range visible {
			if !m.selected[p.ProductID] {
				all = false
				break
			}
		}
		for _, p := range visible {
			if all {
				delete(m.selected, p.ProductID)
			} else {
				m.selected[p.ProductID] = true
			}
		}
	case "c":
		// Toggle every critical-stock product, matching the web shortcut.
		criticals := make([]string, 0)
		for _, p := range m.enriched {
			if app.IsCritical(p) {
				criticals = append(criticals, p.ProductID)
			}
		}
		all := len(criticals) > 0
		for _, id := range criticals {
			if !m.selected[id] {
				all = false
				break
			}
		}
		for _, id := range criticals {
			if all {
				delete(m.selected, id)
			} else {
				m.selected[id] = true
			}
		}
	case "s":
		m.sort = (m.sort + 1) % 6
		m.cursor = 0
	case "enter":
		if len(m.selected) == 0 {
			return m, nil
		}
		skus := make([]string, 0, len(m.selected))
		for _, p := range m.enriched {
			if m.selected[p.ProductID] {
				skus = append(skus, p.ProductID)
			}
		}
		// Leaving the selection view cancels every outstanding report fetch.
		m.app.Reports.Cancel()
		return m, func() tea.Msg { return startBatchMsg{skus: skus} }
	}
	return m, nil
}

func (m *ProductsModel) visibleProducts() []app.Product {
	list := filterProducts(m.enriched, m.search.Value())
	return sortProducts(list, m.sort)
}

// filterProducts matches title or id, case-insensitive.
func filterProducts(list []app.Product, query string) []app.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	out := make([]app.Product, 0, len(list))
	for _, p := range list {
		if strings.Contains(strings.ToLower(p.Title), query) ||
			strings.Contains(strings.ToLower(p.ProductID), query) {
			out = append(out, p)
		}
	}
	return out
}

func sortProducts(list []app.Product, mode sortMode) []app.Product {
	out := make([]app.Product, len(list))
	copy(out, list)
	switch mode {
	case sortCritical:
		sort.SliceStable(out, func(i, j int) bool {
			si, sj := app.StockSeverity(out[i]), app.StockSeverity(out[j])
			if si != sj {
				return si > sj
			}
			return out[i].Stock < out[j].Stock
		})
	case sortNameAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	case sortNameDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title > out[j].Title })
	case sortStockAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	case sortStockDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Stock > out[j].Stock })
	default:
		// Products with report data first, as the web app orders them.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CriticalStockValue != nil && out[j].CriticalStockValue == nil
		})
	}
	return out
}

func (m *ProductsModel) View() string {
	if m.loading {
		return m.theme.Spinner.Render(m.spinner.View() + " Ürünler yükleniyor...")
	}
	if m.loadErr != "" {
		return m.theme.ERR.Render("Ürünler alınamadı: "+m.loadErr) + "\n" +
			m.theme.Neutral.Render("q: çık")
	}

	var b strings.Builder
	title := m.theme.TopBarTitle.Render("Ürün Seçimi")
	meta := m.theme.TopBarMeta.Render(fmt.Sprintf("sıralama: %s", sortLabels[m.sort]))
	b.WriteString(title + "  " + meta + "\n")
	b.WriteString(m.search.View() + "\n\n")

	visible := m.visibleProducts()
	if len(visible) == 0 {
		b.WriteString(m.theme.Neutral.Render("Aramanızla eşleşen ürün bulunamadı.") + "\n")
	}

	maxRows := m.height - 8
	if maxRows < 4 {
		maxRows = 4
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := start + maxRows
	if end > len(visible) {
		end = len(visible)
	}

	for i := start; i < end; i++ {
		b.WriteString(m.renderProductLine(visible[i], i == m.cursor) + "\n")
	}

	b.WriteString("\n" + m.footer(len(visible)))
	return b.String()
}

func (m *ProductsModel) renderProductLine(p app.Product, focused bool) string {
	check := "[ ]"
	if m.selected[p.ProductID] {
		check = m.theme.Selected.Render("[x]")
	}
	prefix := "  "
	if focused {
		prefix = m.theme.Selected.Render("> ")
	}

	var stockStyle = m.theme.StockHealthy
	switch app.StockSeverity(p) {
	case app.SeverityCritical:
		stockStyle = m.theme.StockCritical
	case app.SeverityWarning:
		stockStyle = m.theme.StockWarning
	}
	stock := stockStyle.Render(fmt.Sprintf("stok %4d", p.Stock))

	report := ""
	if p.StockRemainingDay != nil {
		report = m.theme.Neutral.Render(fmt.Sprintf("  %d gün kaldı", *p.StockRemainingDay))
	}

	title := p.Title
	if len(title) > 40 {
		title = title[:39] + "…"
	}
	return fmt.Sprintf("%s%s %-42s %s  ₺%s%s", prefix, check, title, stock, p.Price, report)
}

func (m *ProductsModel) footer(visible int) string {
	parts := []string{
		fmt.Sprintf("%d ürün", visible),
		fmt.Sprintf("%d seçili", len(m.selected)),
		"space seç  a tümü  c kritik  s sırala  / ara",
	}
	if len(m.selected) > 0 {
		parts = append(parts, m.theme.Selected.Render(fmt.Sprintf("enter: Analiz Et (%d)", len(m.selected))))
	}
	return m.theme.Footer.Render(strings.Join(parts, "  ·  "))
}
