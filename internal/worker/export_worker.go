package worker

import (
	"context"
	"fmt"

	"coinjar/internal/amqp"
	"coinjar/internal/core"
	"coinjar/internal/log"
	"coinjar/internal/sheets"
)

// EventSource delivers ledger events until ctx is cancelled.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// ExportWorker mirrors ledger events into a spreadsheet.
type ExportWorker struct {
	source   EventSource
	exporter sheets.LedgerExporter
	logger   *log.Logger
}

func NewExportWorker(source EventSource, exporter sheets.LedgerExporter, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		source:   source,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes events until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Export worker started")
	return w.source.ConsumeLedgerEvents(ctx, w.HandleEvent)
}

// HandleEvent exports the rows an event produces. A returned error makes
// the event be redelivered.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	rows := RowsForEvent(ev)
	if len(rows) == 0 {
		w.logger.DebugContext(ctx, "Ledger event has nothing to export",
			log.FieldEvent, string(ev.Type),
			log.FieldAccountID, ev.Account.ID.String())
		return nil
	}

	refs, err := w.exporter.AppendRows(ctx, rows)
	if err != nil {
		return fmt.Errorf("export %s event %s: %w", ev.Type, ev.ID, err)
	}

	w.logger.InfoContext(ctx, "Exported ledger event",
		log.FieldEvent, string(ev.Type),
		log.FieldAccountID, ev.Account.ID.String(),
		"rows", len(rows),
		"refs", refs)
	return nil
}

// RowsForEvent maps an event to spreadsheet rows. New accounts with a
// non-zero balance get an opening row; deleted transactions are written as
// reversals so the sheet stays append-only.
func RowsForEvent(ev *amqp.LedgerEvent) []sheets.Row {
	acct := ev.Account
	switch ev.Type {
	case amqp.EventAccountCreated:
		balance, ok := acct.Balance()
		if !ok || balance.IsZero() {
			return nil
		}
		return []sheets.Row{{
			Date:        core.DayOf(acct.CreatedAt),
			Account:     acct.Name,
			AccountType: acct.Type(),
			Source:      "Opening balance",
			Amount:      balance,
			Event:       string(ev.Type),
		}}

	case amqp.EventTransactionAdded, amqp.EventTransactionDeleted:
		if ev.Transaction == nil {
			return nil
		}
		t := *ev.Transaction
		row := sheets.Row{
			Date:          t.Day(),
			Account:       acct.Name,
			AccountType:   acct.Type(),
			Source:        t.Source,
			Amount:        t.Amount,
			Note:          t.Note,
			Event:         string(ev.Type),
			TransactionID: t.ID.String(),
		}
		if ev.Type == amqp.EventTransactionDeleted {
			row.Date = core.DayOf(ev.Timestamp)
			row.Amount = t.Amount.Neg()
			row.Note = fmt.Sprintf("Reversal of %s entry on %s", t.Source, t.Day())
		}
		return []sheets.Row{row}
	}
	return nil
}
