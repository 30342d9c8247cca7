package live

import (
	"regexp"
	"strconv"
	"strings"
)

// Per-item analysis stage. Within one batch the stage only moves forward;
// see stageRank.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemFetching  ItemStatus = "fetching"
	ItemAnalyzing ItemStatus = "analyzing"
	ItemDone      ItemStatus = "done"
	ItemError     ItemStatus = "error"
)

func stageRank(s ItemStatus) int {
	switch s {
	case ItemPending:
		return 0
	case ItemFetching:
		return 1
	case ItemAnalyzing:
		return 2
	case ItemDone, ItemError:
		return 3
	}
	return -1
}

// ProgressUpdate is the structured reading of one status message.
type ProgressUpdate struct {
	SKU     string
	Status  ItemStatus
	Message string
	Count   int // k of "k/n", 0 when absent
	Total   int // n of "k/n", 0 when absent
}

var (
	countRe = regexp.MustCompile(`\b(\d+)\s*/\s*(\d+)\b`)
	skuRe   = regexp.MustCompile(`\b[A-Z0-9][A-Z0-9_-]{3,}\b`)
)

// Stage keywords observed in backend status prose, English and Turkish.
// Order matters: terminal stages are checked first so "analiz tamamlandı"
// reads as done, not analyzing.
var stageKeywords = []struct {
	status ItemStatus
	words  []string
}{
	{ItemError, []string{"error", "failed", "hata", "başarısız"}},
	{ItemDone, []string{"done", "completed", "tamamlandı", "bitti"}},
	{ItemAnalyzing, []string{"analyzing", "analiz"}},
	{ItemFetching, []string{"fetching", "loading", "veri", "yükleniyor", "getiriliyor"}},
}

// ParseProgress is the best-effort adapter from human-readable status text to
// a structured per-item update. The backend encodes progress inside prose;
// there is no formal schema, so unmatched text simply reports no update.
func ParseProgress(text string) (ProgressUpdate, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ProgressUpdate{}, false
	}

	update := ProgressUpdate{Message: text}

	if m := countRe.FindStringSubmatch(text); m != nil {
		update.Count, _ = strconv.Atoi(m[1])
		update.Total, _ = strconv.Atoi(m[2])
	}
	if m := skuRe.FindString(text); m != "" {
		update.SKU = m
	}

	lower := strings.ToLower(text)
	for _, stage := range stageKeywords {
		for _, w := range stage.words {
			if strings.Contains(lower, w) {
				update.Status = stage.status
				break
			}
		}
		if update.Status != "" {
			break
		}
	}

	// A count or a bare SKU without a stage keyword still tells us nothing
	// actionable about an item; only a SKU plus a stage updates progress.
	if update.SKU == "" || update.Status == "" {
		return ProgressUpdate{}, false
	}
	return update, true
}
