package http

import (
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"coinjar/internal/history"
)

type pointResponse struct {
	Date    civil.Date `json:"date"`
	Balance string     `json:"balance"`
	Label   string     `json:"label"`
}

type windowResponse struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

type historyResponse struct {
	Title     string          `json:"title"`
	AccountID string          `json:"account_id,omitempty"`
	Window    windowResponse  `json:"window"`
	Points    []pointResponse `json:"points"`
	Count     int             `json:"count"`
}

type netWorthResponse struct {
	NetWorth    string `json:"net_worth"`
	Formatted   string `json:"formatted"`
	Assets      string `json:"assets"`
	Liabilities string `json:"liabilities"`
	Accounts    int    `json:"accounts"`
}

// window resolves ?period=, ?start= and ?end= against today.
func (s *Server) window(r *http.Request) (history.Window, error) {
	q := r.URL.Query()
	return history.ParseWindow(q.Get("period"), q.Get("start"), q.Get("end"), s.ledger.Today(), s.opts.HistoryMaxDays)
}

func newHistoryResponse(title string, w history.Window, points []history.Point) historyResponse {
	out := historyResponse{
		Title:  title,
		Window: windowResponse{Start: w.Start, End: w.End},
		Points: make([]pointResponse, len(points)),
		Count:  len(points),
	}
	for i, p := range points {
		out.Points[i] = pointResponse{Date: p.Date, Balance: p.Balance.String(), Label: axisLabel(p.Balance)}
	}
	return out
}

func (s *Server) handleAccountHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	win, err := s.window(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	account, points, err := s.ledger.AccountHistory(r.Context(), id, win)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	title := account.Name
	if b, ok := account.Balance(); ok {
		title = dollars(b) + " " + account.Name
	}
	resp := newHistoryResponse(title, win, points)
	resp.AccountID = account.ID.String()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	nw, err := s.ledger.NetWorth(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, netWorthResponse{
		NetWorth:    nw.Total.String(),
		Formatted:   dollars(nw.Total),
		Assets:      nw.Assets.String(),
		Liabilities: nw.Liabilities.String(),
		Accounts:    nw.Accounts,
	})
}

func (s *Server) handleNetWorthHistory(w http.ResponseWriter, r *http.Request) {
	win, err := s.window(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	points, err := s.ledger.NetWorthHistory(r.Context(), win)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Titled with the balance at the end of the window.
	current := decimal.Zero
	if len(points) > 0 {
		current = points[len(points)-1].Balance
	}
	writeJSON(w, http.StatusOK, newHistoryResponse(dollars(current)+" Net Worth", win, points))
}
