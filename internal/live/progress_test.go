package live

import "testing"

func TestParseProgressStages(t *testing.T) {
	cases := []struct {
		text   string
		sku    string
		status ItemStatus
	}{
		{"Fetching sales data for SKU-1234", "SKU-1234", ItemFetching},
		{"PINAR-SUT-1LT için veri yükleniyor", "PINAR-SUT-1LT", ItemFetching},
		{"Analyzing SKU-1234 demand patterns", "SKU-1234", ItemAnalyzing},
		{"SKU-1234 analiz ediliyor", "SKU-1234", ItemAnalyzing},
		{"SKU-1234 analysis completed", "SKU-1234", ItemDone},
		{"PINAR-SUT-1LT analizi tamamlandı", "PINAR-SUT-1LT", ItemDone},
		{"SKU-1234 analysis failed", "SKU-1234", ItemError},
		{"PINAR-SUT-1LT için analiz başarısız", "PINAR-SUT-1LT", ItemError},
	}
	for _, tc := range cases {
		update, ok := ParseProgress(tc.text)
		if !ok {
			t.Fatalf("ParseProgress(%q) reported no update", tc.text)
		}
		if update.SKU != tc.sku {
			t.Fatalf("ParseProgress(%q) sku = %q, want %q", tc.text, update.SKU, tc.sku)
		}
		if update.Status != tc.status {
			t.Fatalf("ParseProgress(%q) status = %q, want %q", tc.text, update.Status, tc.status)
		}
	}
}

func TestParseProgressTerminalBeatsAnalyzing(t *testing.T) {
	// "analiz tamamlandı" contains both an analyzing and a done keyword; the
	// terminal stage must win.
	update, ok := ParseProgress("SKU-9 analiz tamamlandı")
	if !ok || update.Status != ItemDone {
		t.Fatalf("got %+v ok=%v, want done", update, ok)
	}
}

func TestParseProgressCount(t *testing.T) {
	update, ok := ParseProgress("Analyzing SKU-1234 (2/5)")
	if !ok {
		t.Fatal("expected an update")
	}
	if update.Count != 2 || update.Total != 5 {
		t.Fatalf("count = %d/%d, want 2/5", update.Count, update.Total)
	}
}

func TestParseProgressRejectsUnstructuredText(t *testing.T) {
	for _, text := range []string{
		"",
		"Thinking about the request",
		"SKU-1234",            // sku without stage
		"analyzing something", // stage without sku
	} {
		if _, ok := ParseProgress(text); ok {
			t.Fatalf("ParseProgress(%q) unexpectedly produced an update", text)
		}
	}
}
