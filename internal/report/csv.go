package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter writes the expense table plus a summary block.
type CSVExporter struct{}

func (CSVExporter) Export(in Input) (Artifact, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// csv.Writer has no notion of an empty record, so blank lines go
	// straight to the buffer between flushes.
	blank := func() error {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		buf.WriteByte('\n')
		return nil
	}

	records := [][]string{
		{"DBudget Expense Report - " + in.User.Name},
		{"Generated: " + in.GeneratedAt.Format("2006-01-02 15:04:05")},
	}
	if err := w.WriteAll(records); err != nil {
		return Artifact{}, fmt.Errorf("write csv header: %w", err)
	}
	if err := blank(); err != nil {
		return Artifact{}, fmt.Errorf("write csv: %w", err)
	}

	rows := make([][]string, 0, len(in.Expenses)+1)
	rows = append(rows, []string{"Date", "Category", "Amount", "Description"})
	for _, e := range in.Expenses {
		desc := e.Description
		if desc == "" {
			desc = "-"
		}
		rows = append(rows, []string{e.Date.String(), e.Category.String(), e.Amount.String(), desc})
	}
	if err := w.WriteAll(rows); err != nil {
		return Artifact{}, fmt.Errorf("write csv rows: %w", err)
	}
	if err := blank(); err != nil {
		return Artifact{}, fmt.Errorf("write csv: %w", err)
	}

	summary := [][]string{
		{"Summary"},
		{"Monthly Income", "", in.Summary.Income.String()},
		{"Total Expenses", "", in.Summary.Total.String()},
		{"Balance", "", in.Summary.Balance.String()},
	}
	if err := w.WriteAll(summary); err != nil {
		return Artifact{}, fmt.Errorf("write csv summary: %w", err)
	}

	return Artifact{
		Name:        reportName(in.GeneratedAt, "csv"),
		ContentType: ContentTypeCSV,
		Data:        buf.Bytes(),
	}, nil
}
