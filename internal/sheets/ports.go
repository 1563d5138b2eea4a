package sheets

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"coinjar/internal/core"
)

// Row is one exported ledger line.
type Row struct {
	Date          civil.Date
	Account       string
	AccountType   core.AccountType
	Source        string
	Amount        decimal.Decimal
	Note          string
	Event         string
	TransactionID string
}

// Header names the exported columns, in order.
var Header = []string{"Date", "Account", "Type", "Source", "Amount", "Note", "Event", "Transaction"}

// Values renders the row in Header order. Amounts keep two decimals so the
// spreadsheet parses them as numbers.
func (r Row) Values() []any {
	return []any{
		r.Date.String(),
		r.Account,
		string(r.AccountType),
		r.Source,
		core.FormatAmount(r.Amount),
		r.Note,
		r.Event,
		r.TransactionID,
	}
}

// Ports for outbound adapters.
type (
	// LedgerExporter appends ledger rows to an external spreadsheet.
	LedgerExporter interface {
		// AppendRows writes rows in order and returns a reference to each
		// written range.
		AppendRows(ctx context.Context, rows []Row) (refs []string, err error)
	}
)
