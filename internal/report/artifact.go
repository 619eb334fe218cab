// Package report renders the ledger into shareable files: CSV and PDF
// reports of an expense list, and PNG captures of named chart regions.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dbudget/internal/aggregate"
	"dbudget/internal/core"
)

const (
	ContentTypeCSV = "text/csv"
	ContentTypePDF = "application/pdf"
	ContentTypePNG = "image/png"
)

var ErrNoActiveUser = errors.New("no active user")

// Artifact is a rendered export, ready to be written or shared.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Save writes the artifact into dir, creating it if needed, and returns the
// full path.
func (a Artifact) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", a.Name, err)
	}
	return path, nil
}

// Input is everything a document exporter reads. It is never modified.
type Input struct {
	User        core.User
	Expenses    []core.Expense
	Summary     aggregate.Summary
	GeneratedAt time.Time
}

// NewInput captures the active user and the given expenses, in the order
// supplied, together with their summary.
func NewInput(engine *aggregate.Engine, expenses []core.Expense) (Input, error) {
	snap := engine.Snapshot()
	if snap.User == nil {
		return Input{}, ErrNoActiveUser
	}
	return Input{
		User:        *snap.User,
		Expenses:    append([]core.Expense(nil), expenses...),
		Summary:     aggregate.Summarize(*snap.User, expenses),
		GeneratedAt: engine.Now(),
	}, nil
}

func reportName(at time.Time, ext string) string {
	return "DBudget_Report_" + strconv.FormatInt(at.UnixMilli(), 10) + "." + ext
}

func imageName(region string, at time.Time) string {
	return region + "_" + strconv.FormatInt(at.UnixMilli(), 10) + ".png"
}
