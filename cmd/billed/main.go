package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.uber.org/zap"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/employee"
	"github.com/zombor/billed/internal/logger"
	"github.com/zombor/billed/internal/store"
	"github.com/zombor/billed/internal/view"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// config is shared by every subcommand
type config struct {
	api      *string
	email    *string
	locale   *string
	timeout  *time.Duration
	logLevel *string
}

func (c config) client() *store.HTTPClient {
	return store.NewHTTPClient(*c.api, *c.timeout)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// .env is optional
	_ = godotenv.Load()

	rootFlags := ff.NewFlagSet("billed")
	cfg := config{
		api:      rootFlags.StringLong("api", "http://localhost:8080", "Bill store API base URL"),
		email:    rootFlags.StringLong("email", "", "Employee email"),
		locale:   rootFlags.StringLong("locale", "fr", "Locale used to display dates"),
		timeout:  rootFlags.DurationLong("timeout", 10*time.Second, "Store request timeout"),
		logLevel: rootFlags.StringLong("log-level", "warn", "Log level: debug, info, warn or error"),
	}
	root := &ff.Command{
		Name:      "billed",
		Usage:     "billed [FLAGS] <SUBCOMMAND>",
		ShortHelp: "manage expense bills",
		Flags:     rootFlags,
	}

	var log *zap.Logger
	withLogger := func(exec func(context.Context, []string) error) func(context.Context, []string) error {
		return func(ctx context.Context, args []string) error {
			var err error
			log, err = logger.New(*cfg.logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()
			return exec(ctx, args)
		}
	}

	listFlags := ff.NewFlagSet("list").SetParent(rootFlags)
	listCmd := &ff.Command{
		Name:      "list",
		Usage:     "billed list [FLAGS]",
		ShortHelp: "show submitted bills, latest first",
		Flags:     listFlags,
		Exec: withLogger(func(ctx context.Context, _ []string) error {
			return listBills(ctx, stdout, cfg, log)
		}),
	}

	newFlags := ff.NewFlagSet("new").SetParent(rootFlags)
	form := struct {
		kind, name, date, amount, vat, pct, commentary, file *string
	}{
		kind:       newFlags.StringLong("type", "", "Expense type, e.g. Transports"),
		name:       newFlags.StringLong("name", "", "Expense name"),
		date:       newFlags.StringLong("date", "", "Expense date (YYYY-MM-DD)"),
		amount:     newFlags.StringLong("amount", "", "Amount including VAT, in euros"),
		vat:        newFlags.StringLong("vat", "", "VAT amount"),
		pct:        newFlags.StringLong("pct", "20", "VAT percentage"),
		commentary: newFlags.StringLong("commentary", "", "Free commentary"),
		file:       newFlags.StringLong("file", "", "Justification file (JPEG or PNG)"),
	}
	newCmd := &ff.Command{
		Name:      "new",
		Usage:     "billed new --file FILE [FLAGS]",
		ShortHelp: "submit a new bill with its justification",
		Flags:     newFlags,
		Exec: withLogger(func(ctx context.Context, _ []string) error {
			return submitBill(ctx, stdout, cfg, log, *form.file, employee.Form{
				Type:       *form.kind,
				Name:       *form.name,
				Date:       *form.date,
				Amount:     *form.amount,
				VAT:        *form.vat,
				Pct:        *form.pct,
				Commentary: *form.commentary,
			})
		}),
	}

	root.Subcommands = append(root.Subcommands, listCmd, newCmd)

	err := root.ParseAndRun(ctx, args, ff.WithEnvVarPrefix("BILLED"))
	switch {
	case errors.Is(err, ff.ErrHelp), errors.Is(err, ff.ErrNoExec):
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		if errors.Is(err, ff.ErrHelp) {
			return nil
		}
		return err
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func listBills(ctx context.Context, w io.Writer, cfg config, log *zap.Logger) error {
	if err := view.BillsPage(w, view.BillsPageData{Loading: true}); err != nil {
		return err
	}

	bills, err := employee.NewBills(cfg.client(), bill.NewFormatter(*cfg.locale), log).GetBills(ctx)
	if renderErr := view.BillsPage(w, view.BillsPageData{Bills: bills, Err: err}); renderErr != nil {
		return renderErr
	}
	return err
}

func submitBill(ctx context.Context, w io.Writer, cfg config, log *zap.Logger, path string, form employee.Form) error {
	if path == "" {
		return errors.New("--file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading justification file: %w", err)
	}

	navigated := false
	newBill := employee.NewNewBill(cfg.client(), func(route string) {
		navigated = route == employee.RouteBills
	}, employee.Identity{Email: *cfg.email}, log)

	render := func(err error) {
		staged, _ := newBill.Staged()
		view.NewBillPage(w, view.NewBillPageData{
			State:             newBill.State().String(),
			FileName:          staged.FileName,
			ValidationMessage: newBill.ValidationMessage(),
			Err:               err,
		})
	}

	// the declared type is left empty so it is resolved from the extension
	if err := newBill.ChangeFile(ctx, employee.File{Name: filepath.Base(path), Data: data}); err != nil {
		render(err)
		return err
	}
	if err := newBill.Submit(ctx, form); err != nil {
		render(err)
		return err
	}
	render(nil)

	if navigated {
		return listBills(ctx, w, cfg, log)
	}
	return nil
}
