package memory

import (
	"context"
	"fmt"
	"sync"

	ports "coinjar/internal/sheets"
)

var _ ports.LedgerExporter = (*Exporter)(nil)

// Exporter keeps exported rows in memory. Used by tests and when no
// spreadsheet is configured.
type Exporter struct {
	mu   sync.Mutex
	rows []ports.Row
	err  error
}

func New() *Exporter {
	return &Exporter{}
}

// AppendRows stores rows and returns one synthetic reference per row.
func (e *Exporter) AppendRows(_ context.Context, rows []ports.Row) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	refs := make([]string, 0, len(rows))
	for _, r := range rows {
		e.rows = append(e.rows, r)
		refs = append(refs, fmt.Sprintf("mem:%d", len(e.rows)))
	}
	return refs, nil
}

// Rows returns a copy of everything exported so far.
func (e *Exporter) Rows() []ports.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.Row(nil), e.rows...)
}

// FailWith makes subsequent appends return err; nil restores normal operation.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}
