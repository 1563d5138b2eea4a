package http

import (
	"net/http"

	"github.com/google/uuid"

	"coinjar/internal/core"
	"coinjar/internal/log"
)

type accountListResponse struct {
	Success  bool           `json:"success"`
	Accounts []core.Account `json:"accounts"`
	Count    int            `json:"count"`
}

type accountCreatedResponse struct {
	Message string       `json:"message"`
	Account core.Account `json:"account"`
}

type deletedAccount struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type accountDeletedResponse struct {
	Success             bool           `json:"success"`
	Message             string         `json:"message"`
	DeletedAccount      deletedAccount `json:"deleted_account"`
	DeletedTransactions int            `json:"deleted_transactions"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	writeJSON(w, http.StatusOK, accountListResponse{Success: true, Accounts: accounts, Count: len(accounts)})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	account, err := req.Account()
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected account",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err.Error())
		writeServiceError(w, r, err)
		return
	}

	created, err := s.ledger.CreateAccount(r.Context(), account)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountCreatedResponse{Message: "Account created", Account: created})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	account, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	del, err := s.ledger.DeleteAccount(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountDeletedResponse{
		Success:             true,
		Message:             "Account deleted",
		DeletedAccount:      deletedAccount{ID: del.Account.ID, Name: del.Account.Name},
		DeletedTransactions: del.Transactions,
	})
}
