package employee

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/logger"
	"github.com/zombor/billed/internal/store"
)

// Bills lists the bills of the store for display
type Bills struct {
	store     store.Bills
	formatter *bill.Formatter
	log       *zap.Logger
}

// NewBills creates a Bills orchestrator. A nil formatter formats for French.
func NewBills(client store.Client, formatter *bill.Formatter, log *zap.Logger) *Bills {
	if formatter == nil {
		formatter = bill.NewFormatter("fr")
	}
	return &Bills{
		store:     client.Bills(),
		formatter: formatter,
		log:       logger.OrNop(log),
	}
}

// formatError records a field that could not be formatted
type formatError struct {
	field string
	value string
	err   error
}

// formatResult is one formatted bill and the fields that fell back to their raw value
type formatResult struct {
	bill bill.DisplayBill
	errs []formatError
}

// GetBills returns every bill latest first, with display dates and status labels.
// Store errors are returned as is. A field that cannot be formatted keeps its raw
// value and is logged; the bill is never dropped.
func (b *Bills) GetBills(ctx context.Context) ([]bill.DisplayBill, error) {
	records, err := b.store.List(ctx)
	if err != nil {
		return nil, err
	}

	display := make([]bill.DisplayBill, 0, len(records))
	for _, record := range sortLatestFirst(records) {
		result := b.format(record)
		for _, ferr := range result.errs {
			b.log.Warn("bill field formatting fallback",
				zap.String("bill_id", record.ID),
				zap.String("field", ferr.field),
				zap.String("value", ferr.value),
				zap.Error(ferr.err),
			)
		}
		display = append(display, result.bill)
	}
	return display, nil
}

func (b *Bills) format(record bill.Bill) formatResult {
	result := formatResult{bill: bill.DisplayBill{Bill: record}}

	date, err := b.formatter.Date(record.Date)
	if err != nil {
		result.errs = append(result.errs, formatError{field: "date", value: record.Date, err: err})
	}
	result.bill.Date = date

	status, err := b.formatter.Status(record.Status)
	if err != nil {
		result.errs = append(result.errs, formatError{field: "status", value: string(record.Status), err: err})
	}
	result.bill.Status = status

	return result
}

// sortLatestFirst orders bills by date, latest first. Bills with the same date
// keep the store order, and bills without a parseable date come last.
func sortLatestFirst(records []bill.Bill) []bill.Bill {
	type dated struct {
		record bill.Bill
		date   time.Time
		ok     bool
	}

	entries := make([]dated, len(records))
	for i, record := range records {
		date, err := bill.ParseDate(record.Date)
		entries[i] = dated{record: record, date: date, ok: err == nil}
	}

	slices.SortStableFunc(entries, func(a, b dated) int {
		switch {
		case a.ok && b.ok:
			return b.date.Compare(a.date)
		case a.ok:
			return -1
		case b.ok:
			return 1
		default:
			return 0
		}
	})

	sorted := make([]bill.Bill, len(entries))
	for i, entry := range entries {
		sorted[i] = entry.record
	}
	return sorted
}
