package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"

	"dbudget/internal/core"
)

// A4 portrait, millimetres.
const (
	pageHeight   = 297.0
	margin       = 15.0
	topMargin    = 20.0
	lineHeight   = 7.0
	headerHeight = 10.0

	colDate     = margin
	colCategory = margin + 30
	colAmount   = margin + 75
	colDesc     = margin + 130
	amountWidth = 50.0
	descWidth   = 50.0
)

// PDFExporter renders a paginated A4 report.
type PDFExporter struct {
	// Currency labels amounts, e.g. "INR".
	Currency string
}

type textSplitter interface {
	SplitText(txt string, w float64) []string
}

// placedRow is where one table row lands: its page (0-based), the baseline
// of its first line, and the wrapped description.
type placedRow struct {
	Page  int
	Y     float64
	Lines []string
}

type tableLayout struct {
	firstY     float64 // first row on the first page
	pageTopY   float64 // first row on later pages, below the repeated header
	bottom     float64
	lineHeight float64
	descWidth  float64
}

// layoutRows places each description, wrapping it to the description column.
// A row that would cross the bottom edge moves to a new page unless it is
// already the first row there.
func layoutRows(s textSplitter, descs []string, l tableLayout) []placedRow {
	out := make([]placedRow, 0, len(descs))
	page, y, top := 0, l.firstY, l.firstY
	for _, d := range descs {
		lines := s.SplitText(d, l.descWidth)
		if len(lines) == 0 {
			lines = []string{""}
		}
		h := l.lineHeight * float64(len(lines))
		if y+h > l.bottom && y > top {
			page++
			y, top = l.pageTopY, l.pageTopY
		}
		out = append(out, placedRow{Page: page, Y: y, Lines: lines})
		y += h
	}
	return out
}

func (x PDFExporter) money(m core.Money) string {
	sign, abs := "", uint64(m.Cents)
	if m.Cents < 0 {
		sign, abs = "-", uint64(-(m.Cents+1))+1
	}
	s := fmt.Sprintf("%s%s.%02d", sign, humanize.Comma(int64(abs/100)), abs%100)
	if x.Currency == "" {
		return s
	}
	return x.Currency + " " + s
}

func (x PDFExporter) Export(in Input) (Artifact, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, topMargin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle("DBudget Expense Report", true)
	pdf.SetCreator("dbudget", true)
	pdf.SetCreationDate(in.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	y := topMargin
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(margin, y, "DBudget Expense Report")
	y += 10

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		"Name: " + in.User.Name,
		"Monthly Income: " + x.money(in.User.MonthlyIncome),
		"Generated: " + in.GeneratedAt.Format("2006-01-02 15:04"),
	} {
		pdf.Text(margin, y, tr(line))
		y += lineHeight
	}
	y += 3

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Text(margin, y, "Summary")
	y += lineHeight
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		"Total Expenses: " + x.money(in.Summary.Total),
		"Balance: " + x.money(in.Summary.Balance),
		"Transactions: " + strconv.Itoa(in.Summary.Count),
		"Average per day: " + x.money(in.Summary.AverageDaily),
	} {
		pdf.Text(margin, y, tr(line))
		y += lineHeight
	}
	y += 5

	header := func(y float64) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Text(colDate, y, "Date")
		pdf.Text(colCategory, y, "Category")
		pdf.Text(colAmount+amountWidth-pdf.GetStringWidth("Amount")-5, y, "Amount")
		pdf.Text(colDesc, y, "Description")
		pdf.Line(margin, y+2, margin+180, y+2)
		pdf.SetFont("Helvetica", "", 10)
	}
	header(y)

	descs := make([]string, len(in.Expenses))
	for i, e := range in.Expenses {
		descs[i] = tr(e.Description)
		if descs[i] == "" {
			descs[i] = "-"
		}
	}
	rows := layoutRows(pdf, descs, tableLayout{
		firstY:     y + headerHeight,
		pageTopY:   topMargin + headerHeight,
		bottom:     pageHeight - margin,
		lineHeight: lineHeight,
		descWidth:  descWidth,
	})

	page := 0
	for i, row := range rows {
		if row.Page != page {
			pdf.AddPage()
			header(topMargin)
			page = row.Page
		}
		e := in.Expenses[i]
		amount := x.money(e.Amount)
		pdf.Text(colDate, row.Y, e.Date.String())
		pdf.Text(colCategory, row.Y, tr(e.Category.String()))
		pdf.Text(colAmount+amountWidth-pdf.GetStringWidth(amount)-5, row.Y, amount)
		for j, line := range row.Lines {
			pdf.Text(colDesc, row.Y+float64(j)*lineHeight, line)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Artifact{}, fmt.Errorf("render pdf: %w", err)
	}
	return Artifact{
		Name:        reportName(in.GeneratedAt, "pdf"),
		ContentType: ContentTypePDF,
		Data:        buf.Bytes(),
	}, nil
}
