package report

import (
	"fmt"
	"image"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"dbudget/internal/aggregate"
)

// Built-in chart regions.
const (
	RegionDaily    = "daily-chart"
	RegionCategory = "category-chart"
	RegionMonthly  = "monthly-chart"
	RegionBudget   = "budget-chart"
)

// ChartSurface draws the dashboard charts from the aggregation engine.
// Daily, category and budget charts cover the current month; the monthly
// chart covers the last six months with spending.
type ChartSurface struct {
	engine        *aggregate.Engine
	Width, Height int
}

func NewChartSurface(engine *aggregate.Engine) *ChartSurface {
	return &ChartSurface{engine: engine, Width: 800, Height: 400}
}

func (s *ChartSurface) Region(name string) (Region, bool) {
	switch name {
	case RegionDaily:
		return regionFunc(s.daily), true
	case RegionCategory:
		return regionFunc(s.category), true
	case RegionMonthly:
		return regionFunc(s.monthly), true
	case RegionBudget:
		return regionFunc(s.budget), true
	default:
		return nil, false
	}
}

// Regions lists the names Region resolves.
func (s *ChartSurface) Regions() []string {
	return []string{RegionDaily, RegionCategory, RegionMonthly, RegionBudget}
}

type regionFunc func() (image.Image, error)

func (f regionFunc) Capture() (image.Image, error) { return f() }

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func rasterize(r renderable) (image.Image, error) {
	collector := &chart.ImageWriter{}
	if err := r.Render(chart.PNG, collector); err != nil {
		return nil, err
	}
	return collector.Image()
}

func (s *ChartSurface) daily() (image.Image, error) {
	days := aggregate.DailyTotals(s.engine.CurrentMonth())
	if len(days) == 0 {
		return nil, fmt.Errorf("no spending this month")
	}
	bars := make([]chart.Value, 0, len(days))
	for _, d := range days {
		bars = append(bars, chart.Value{Label: d.Date.Format("02"), Value: d.Total.Float64()})
	}
	return rasterize(s.barChart("Daily spending", bars))
}

func (s *ChartSurface) category() (image.Image, error) {
	cats := aggregate.CategoryBreakdown(s.engine.CurrentMonth())
	if len(cats) == 0 {
		return nil, fmt.Errorf("no spending this month")
	}
	values := make([]chart.Value, 0, len(cats))
	for _, c := range cats {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.0f%%", c.Category, c.Percent),
			Value: c.Total.Float64(),
		})
	}
	return rasterize(chart.PieChart{
		Title:  "Spending by category",
		Width:  s.Width,
		Height: s.Height,
		Values: values,
	})
}

func (s *ChartSurface) monthly() (image.Image, error) {
	months := aggregate.MonthlyTotals(s.engine.Snapshot().Expenses)
	if len(months) == 0 {
		return nil, fmt.Errorf("no spending recorded")
	}
	if len(months) > 6 {
		months = months[len(months)-6:]
	}
	bars := make([]chart.Value, 0, len(months))
	for _, m := range months {
		label := time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 06")
		bars = append(bars, chart.Value{Label: label, Value: m.Total.Float64()})
	}
	return rasterize(s.barChart("Monthly spending", bars))
}

func (s *ChartSurface) budget() (image.Image, error) {
	snap := s.engine.Snapshot()
	if snap.User == nil || snap.User.MonthlyIncome.Cents == 0 {
		return nil, fmt.Errorf("no income to compare against")
	}
	now := s.engine.Now()
	spent := s.engine.MonthlyTotal(int(now.Month()), now.Year())
	remaining := s.engine.RemainingBudget()
	values := []chart.Value{{Label: "Spent " + spent.String(), Value: spent.Float64()}}
	if remaining.Cents > 0 {
		values = append(values, chart.Value{Label: "Remaining " + remaining.String(), Value: remaining.Float64()})
	}
	if spent.Cents == 0 {
		values = values[1:]
	}
	return rasterize(chart.PieChart{
		Title:  fmt.Sprintf("Budget used %.0f%%", s.engine.SpentPercentage()),
		Width:  s.Width,
		Height: s.Height,
		Values: values,
	})
}

func (s *ChartSurface) barChart(title string, bars []chart.Value) chart.BarChart {
	width := 40
	if n := len(bars); n > 0 && s.Width/(n*2) < width {
		width = max(s.Width/(n*2), 4)
	}
	top := 0.0
	for _, b := range bars {
		top = max(top, b.Value)
	}
	return chart.BarChart{
		Title:    title,
		Width:    s.Width,
		Height:   s.Height,
		BarWidth: width,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}
}
