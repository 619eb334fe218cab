package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"dbudget/internal/aggregate"
	"dbudget/internal/core"
)

// wordSplitter wraps on spaces, treating one unit of width as one character.
type wordSplitter struct{}

func (wordSplitter) SplitText(txt string, w float64) []string {
	var lines []string
	var cur string
	for _, word := range strings.Fields(txt) {
		switch {
		case cur == "":
			cur = word
		case float64(len(cur)+1+len(word)) <= w:
			cur += " " + word
		default:
			lines = append(lines, cur)
			cur = word
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func TestLayoutRowsWrapsDescriptions(t *testing.T) {
	l := tableLayout{firstY: 100, pageTopY: 30, bottom: 280, lineHeight: 7, descWidth: 10}
	rows := layoutRows(wordSplitter{}, []string{
		"short",
		"one two three four five",
		"",
		"x",
	}, l)

	wantY := []float64{100, 107, 128, 135}
	wantLines := []int{1, 3, 1, 1}
	for i, r := range rows {
		if r.Page != 0 || r.Y != wantY[i] || len(r.Lines) != wantLines[i] {
			t.Fatalf("row %d: got page=%d y=%v lines=%v", i, r.Page, r.Y, r.Lines)
		}
	}
}

func TestLayoutRowsBreaksPages(t *testing.T) {
	l := tableLayout{firstY: 250, pageTopY: 30, bottom: 280, lineHeight: 10, descWidth: 100}
	descs := make([]string, 30)
	for i := range descs {
		descs[i] = fmt.Sprintf("row %d", i)
	}
	descs[3] = strings.Repeat("word ", 60) // three lines at width 100

	rows := layoutRows(wordSplitter{}, descs, l)

	// 250, 260, 270 fit the first page; 280 + 10 would not.
	for i := 0; i < 3; i++ {
		if rows[i].Page != 0 {
			t.Fatalf("row %d should be on the first page: %+v", i, rows[i])
		}
	}
	if rows[3].Page != 1 || rows[3].Y != 30 || len(rows[3].Lines) != 3 {
		t.Fatalf("wrapped row should open page 2 at the top: %+v", rows[3])
	}
	if rows[4].Y != 60 {
		t.Fatalf("row after a three-line row should advance 30: %+v", rows[4])
	}
	for i := 1; i < len(rows); i++ {
		prev, r := rows[i-1], rows[i]
		if r.Page == prev.Page && r.Y != prev.Y+10*float64(len(prev.Lines)) {
			t.Fatalf("row %d overlaps row %d", i, i-1)
		}
		if r.Page < prev.Page || r.Page > prev.Page+1 {
			t.Fatalf("row %d jumped pages: %d -> %d", i, prev.Page, r.Page)
		}
		if r.Y+10*float64(len(r.Lines)) > l.bottom {
			t.Fatalf("row %d crosses the bottom edge: %+v", i, r)
		}
	}
}

func TestLayoutRowsTallRowStaysOnFreshPage(t *testing.T) {
	l := tableLayout{firstY: 30, pageTopY: 30, bottom: 50, lineHeight: 10, descWidth: 4}
	rows := layoutRows(wordSplitter{}, []string{"a b c d e f"}, l)
	if rows[0].Page != 0 || rows[0].Y != 30 {
		t.Fatalf("an oversized first row should not force a blank page: %+v", rows[0])
	}
}

func TestPDFExport(t *testing.T) {
	u := testUser()
	expenses := testExpenses()
	for i := 0; i < 80; i++ {
		expenses = append(expenses, core.Expense{
			ID:          fmt.Sprint("bulk", i),
			UserID:      u.ID,
			Category:    core.CategoryGrocery,
			Amount:      core.Money{Cents: int64(1000 + i)},
			Description: strings.Repeat("vegetables and fruit ", i%5+1),
			Date:        core.NewDate(2025, 3, 1+i%28),
		})
	}
	in := Input{User: u, Expenses: expenses, Summary: aggregate.Summarize(u, expenses), GeneratedAt: generated}

	art, err := PDFExporter{Currency: "INR"}.Export(in)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.HasPrefix(art.Data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", art.Data[:min(16, len(art.Data))])
	}
	if art.Name != "DBudget_Report_1742031000000.pdf" || art.ContentType != ContentTypePDF {
		t.Fatalf("unexpected artifact metadata: %s %s", art.Name, art.ContentType)
	}
}

func TestPDFMoney(t *testing.T) {
	tests := []struct {
		cents    int64
		currency string
		want     string
	}{
		{123456789, "INR", "INR 1,234,567.89"},
		{50, "", "0.50"},
		{-150000, "INR", "INR -1,500.00"},
		{-5, "", "-0.05"},
		{900719925474099199, "", "9,007,199,254,740,991.99"},
		{math.MinInt64, "", "-92,233,720,368,547,758.08"},
	}
	for _, tt := range tests {
		if got := (PDFExporter{Currency: tt.currency}).money(core.Money{Cents: tt.cents}); got != tt.want {
			t.Errorf("money(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
