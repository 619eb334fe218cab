package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"dbudget/internal/aggregate"
	"dbudget/internal/core"
	"dbudget/internal/log"
	"dbudget/internal/report"
	"dbudget/internal/trace"
)

var ErrUsage = errors.New("usage")

const usage = `usage: dbudget <command> [flags]

commands:
  onboard     -name NAME -income AMOUNT
  add         -category CAT -amount AMOUNT [-desc TEXT] [-date YYYY-MM-DD]
  update      -id ID [-category CAT] [-amount AMOUNT] [-desc TEXT] [-date YYYY-MM-DD]
  delete      -id ID
  list        [-month YYYY-MM | -date YYYY-MM-DD] [-sort date|amount]
  summary
  categories
  export      -format csv|pdf|png [-month YYYY-MM] [-region NAME]
  logout
`

// Run executes one command against app, writing human output to out.
func Run(ctx context.Context, app *App, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]
	ctx = trace.WithRunID(ctx)
	app.Logger.DebugContext(ctx, "Running command", "command", cmd)
	switch cmd {
	case "onboard":
		return runOnboard(ctx, app, rest, out)
	case "add":
		return runAdd(ctx, app, rest, out)
	case "update":
		return runUpdate(ctx, app, rest, out)
	case "delete":
		return runDelete(ctx, app, rest, out)
	case "list":
		return runList(app, rest, out)
	case "summary":
		return runSummary(app, out)
	case "categories":
		for _, c := range core.Categories() {
			fmt.Fprintln(out, c)
		}
		return nil
	case "export":
		return runExport(ctx, app, rest, out)
	case "logout":
		return runLogout(ctx, app, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func runOnboard(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := newFlagSet("onboard", out)
	name := fs.String("name", "", "display name")
	income := fs.String("income", "", "monthly income")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := core.NewUser(core.UserInput{Name: *name, MonthlyIncome: *income}, time.Now())
	if err != nil {
		return err
	}
	if err := app.Store.SetUser(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(out, "Welcome, %s. Monthly income set to %s %s.\n", user.Name, app.Config.Currency, user.MonthlyIncome)
	return nil
}

func activeUser(app *App) (core.User, error) {
	u, ok := app.Store.User()
	if !ok {
		return core.User{}, fmt.Errorf("no active user, run 'dbudget onboard' first")
	}
	return u, nil
}

func runAdd(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := newFlagSet("add", out)
	var in core.ExpenseInput
	fs.StringVar(&in.Category, "category", "", "expense category")
	fs.StringVar(&in.Amount, "amount", "", "amount")
	fs.StringVar(&in.Description, "desc", "", "optional description")
	fs.StringVar(&in.Date, "date", app.Engine.Now().Format(time.DateOnly), "expense date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := activeUser(app)
	if err != nil {
		return err
	}
	e, err := core.NewExpense(u.ID, in, time.Now())
	if err != nil {
		return err
	}
	if err := app.Store.AddExpense(ctx, e); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %s %s (%s) on %s [%s]\n", app.Config.Currency, e.Amount, e.Category, e.Date, e.ID)
	return nil
}

func runUpdate(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := newFlagSet("update", out)
	id := fs.String("id", "", "expense id")
	category := fs.String("category", "", "new category")
	amount := fs.String("amount", "", "new amount")
	desc := fs.String("desc", "", "new description")
	date := fs.String("date", "", "new date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := activeUser(app); err != nil {
		return err
	}
	prev, ok := app.Store.Expense(*id)
	if !ok {
		return fmt.Errorf("expense %q not found", *id)
	}

	in := core.ExpenseInput{
		Category:    prev.Category.String(),
		Amount:      prev.Amount.String(),
		Description: prev.Description,
		Date:        prev.Date.String(),
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "category":
			in.Category = *category
		case "amount":
			in.Amount = *amount
		case "desc":
			in.Description = *desc
		case "date":
			in.Date = *date
		}
	})
	e, err := core.EditExpense(prev, in)
	if err != nil {
		return err
	}
	if err := app.Store.UpdateExpense(ctx, prev.ID, e); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated %s\n", e.ID)
	return nil
}

func runDelete(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := newFlagSet("delete", out)
	id := fs.String("id", "", "expense id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("%w: -id is required", ErrUsage)
	}
	if err := app.Store.DeleteExpense(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s\n", *id)
	return nil
}

// selectExpenses applies the -month / -date filters shared by list and export.
func selectExpenses(app *App, month, date string) ([]core.Expense, error) {
	switch {
	case month != "" && date != "":
		return nil, fmt.Errorf("%w: use either -month or -date", ErrUsage)
	case month != "":
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return nil, fmt.Errorf("invalid month %q: want YYYY-MM", month)
		}
		return app.Engine.ByMonth(int(t.Month()), t.Year()), nil
	case date != "":
		t, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
		}
		return app.Engine.ByCalendarDate(core.DateOf(t)), nil
	default:
		return app.Store.Expenses(), nil
	}
}

func runList(app *App, args []string, out io.Writer) error {
	fs := newFlagSet("list", out)
	month := fs.String("month", "", "only this month (YYYY-MM)")
	date := fs.String("date", "", "only this day (YYYY-MM-DD)")
	sortBy := fs.String("sort", "date", "date or amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	mode, err := aggregate.ParseSortMode(*sortBy)
	if err != nil {
		return err
	}
	if _, err := activeUser(app); err != nil {
		return err
	}
	expenses, err := selectExpenses(app, *month, *date)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, e := range aggregate.Sorted(expenses, mode) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Category, e.Amount, e.Description)
	}
	fmt.Fprintf(tw, "\t\tTOTAL\t%s\t\n", aggregate.Sum(expenses))
	return tw.Flush()
}

func runSummary(app *App, out io.Writer) error {
	u, err := activeUser(app)
	if err != nil {
		return err
	}
	now := app.Engine.Now()
	cur := app.Config.Currency
	fmt.Fprintf(out, "%s, %s\n", u.Name, now.Format("January 2006"))
	fmt.Fprintf(out, "  Income:     %s %s\n", cur, u.MonthlyIncome)
	fmt.Fprintf(out, "  Spent:      %s %s (%.1f%%)\n", cur, app.Engine.MonthlyTotal(int(now.Month()), now.Year()), app.Engine.SpentPercentage())
	fmt.Fprintf(out, "  Remaining:  %s %s\n", cur, app.Engine.RemainingBudget())
	fmt.Fprintf(out, "  Today:      %s %s\n", cur, aggregate.Sum(app.Engine.ByCalendarDate(core.DateOf(now))))
	fmt.Fprintf(out, "  All time:   %s %s\n", cur, app.Engine.TotalAll())

	cats := aggregate.CategoryBreakdown(app.Engine.CurrentMonth())
	if len(cats) == 0 {
		return nil
	}
	fmt.Fprintln(out, "By category:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, c := range cats {
		fmt.Fprintf(tw, "  %s\t%s\t%.1f%%\n", c.Category, c.Total, c.Percent)
	}
	return tw.Flush()
}

func runExport(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := newFlagSet("export", out)
	format := fs.String("format", "csv", "csv, pdf or png")
	month := fs.String("month", "", "only this month (YYYY-MM)")
	region := fs.String("region", report.RegionCategory, "chart region for png")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := activeUser(app); err != nil {
		return err
	}

	var (
		art report.Artifact
		err error
	)
	switch strings.ToLower(*format) {
	case "csv", "pdf":
		expenses, serr := selectExpenses(app, *month, "")
		if serr != nil {
			return serr
		}
		in, ierr := report.NewInput(app.Engine, aggregate.Sorted(expenses, aggregate.ByDateDesc))
		if ierr != nil {
			return ierr
		}
		if strings.ToLower(*format) == "csv" {
			art, err = report.CSVExporter{}.Export(in)
		} else {
			art, err = report.PDFExporter{Currency: app.Config.Currency}.Export(in)
		}
	case "png":
		exporter := report.NewImageExporter(report.NewChartSurface(app.Engine), app.Logger)
		art, err = exporter.Export(ctx, *region)
	default:
		return fmt.Errorf("%w: unknown format %q", ErrUsage, *format)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", *format, err)
	}

	path, err := art.Save(app.Config.ExportDir)
	if err != nil {
		return err
	}
	app.Logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport, log.FieldFormat, *format,
		log.FieldFilename, art.Name, log.FieldBytes, len(art.Data))
	fmt.Fprintf(out, "Saved %s\n", path)
	return nil
}

// runLogout detaches the user and removes their stored records, so the next
// run starts at onboarding.
func runLogout(ctx context.Context, app *App, out io.Writer) error {
	u, err := activeUser(app)
	if err != nil {
		return err
	}
	app.Store.Clear()
	if err := app.Store.Erase(ctx, u.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Logged out %s, stored data removed\n", u.Name)
	return nil
}
