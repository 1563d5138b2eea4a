package amqp

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"coinjar/internal/core"
)

// EventType names a ledger mutation.
type EventType string

const (
	EventAccountCreated     EventType = "account.created"
	EventAccountDeleted     EventType = "account.deleted"
	EventTransactionAdded   EventType = "transaction.added"
	EventTransactionDeleted EventType = "transaction.deleted"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventAccountCreated, EventAccountDeleted, EventTransactionAdded, EventTransactionDeleted:
		return true
	}
	return false
}

// LedgerEvent describes one committed change to the ledger. Account carries
// the account state after the change; Transaction is set for transaction
// events only.
type LedgerEvent struct {
	ID          uuid.UUID         `json:"id"`
	Type        EventType         `json:"type"`
	Account     core.Account      `json:"account"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewLedgerEvent stamps a new event with a fresh ID and the current time.
func NewLedgerEvent(typ EventType, account core.Account, txn *core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		ID:          uuid.New(),
		Type:        typ,
		Account:     account,
		Transaction: txn,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Validate checks that the event can be acted on by a consumer.
func (e *LedgerEvent) Validate() error {
	if !e.Type.IsValid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Account.ID == uuid.Nil {
		return errors.New("event has no account")
	}
	switch e.Type {
	case EventTransactionAdded, EventTransactionDeleted:
		if e.Transaction == nil {
			return fmt.Errorf("%s event has no transaction", e.Type)
		}
	}
	return nil
}

// LedgerEventFromJSON decodes and validates an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}
