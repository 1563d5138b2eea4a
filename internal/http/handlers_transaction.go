package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"coinjar/internal/core"
	"coinjar/internal/ledger"
)

type transactionListResponse struct {
	Success      bool               `json:"success"`
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
}

// handleListTransactions returns the most recent transactions, oldest
// first, optionally scoped to ?account=.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := ledger.TransactionFilter{Limit: parseLimit(r)}
	if v := strings.TrimSpace(r.URL.Query().Get("account")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeServiceError(w, r, errInvalidID)
			return
		}
		filter.AccountID = id
	}

	txns, err := s.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionListResponse{Success: true, Transactions: txns, Count: len(txns)})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req AddTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	txn, err := req.Transaction()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	created, _, err := s.ledger.AddTransaction(r.Context(), txn)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if _, _, err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
