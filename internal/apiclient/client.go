// Package apiclient is a typed client for the coinjar JSON API.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"coinjar/internal/core"
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Err        string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, e.Err, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// New creates a client for the API rooted at baseURL, e.g.
// "http://localhost:3000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{baseURL: u, httpClient: newPooledHTTPClient()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newPooledHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 30 * time.Second,
	}
}

type (
	// CreateAccountInput mirrors the create account payload. Amounts are
	// decimal strings.
	CreateAccountInput struct {
		Name         string           `json:"name"`
		Type         core.AccountType `json:"type,omitempty"`
		Category     core.Category    `json:"category,omitempty"`
		Balance      string           `json:"balance,omitempty"`
		InterestRate string           `json:"interest_rate,omitempty"`
		Compounding  int              `json:"compounding,omitempty"`
		Positions    []core.Position  `json:"positions,omitempty"`
	}

	AddTransactionInput struct {
		AccountID uuid.UUID `json:"account_id"`
		Source    string    `json:"source"`
		Amount    string    `json:"amount"`
		Date      string    `json:"date,omitempty"` // YYYY-MM-DD or RFC 3339; empty means now
		Note      string    `json:"note,omitempty"`
	}

	DeletedAccount struct {
		ID                  uuid.UUID
		Name                string
		DeletedTransactions int
	}

	NetWorth struct {
		NetWorth    string `json:"net_worth"`
		Formatted   string `json:"formatted"`
		Assets      string `json:"assets"`
		Liabilities string `json:"liabilities"`
		Accounts    int    `json:"accounts"`
	}

	Point struct {
		Date    civil.Date `json:"date"`
		Balance string     `json:"balance"`
		Label   string     `json:"label"`
	}

	History struct {
		Title     string `json:"title"`
		AccountID string `json:"account_id,omitempty"`
		Window    struct {
			Start civil.Date `json:"start"`
			End   civil.Date `json:"end"`
		} `json:"window"`
		Points []Point `json:"points"`
		Count  int     `json:"count"`
	}

	// HistoryQuery selects a window: either a period name or explicit
	// bounds. Zero values are omitted.
	HistoryQuery struct {
		Period string
		Start  civil.Date
		End    civil.Date
	}
)

func (q HistoryQuery) values() url.Values {
	v := url.Values{}
	if q.Period != "" {
		v.Set("period", q.Period)
	}
	if q.Start.IsValid() {
		v.Set("start", q.Start.String())
	}
	if q.End.IsValid() {
		v.Set("end", q.End.String())
	}
	return v
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) ListAccounts(ctx context.Context) ([]core.Account, error) {
	var out struct {
		Accounts []core.Account `json:"accounts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/account", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

func (c *Client) GetAccount(ctx context.Context, id uuid.UUID) (core.Account, error) {
	var out core.Account
	err := c.do(ctx, http.MethodGet, "/api/v1/account/"+id.String(), nil, nil, &out)
	return out, err
}

func (c *Client) CreateAccount(ctx context.Context, in CreateAccountInput) (core.Account, error) {
	var out struct {
		Account core.Account `json:"account"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/account", nil, in, &out); err != nil {
		return core.Account{}, err
	}
	return out.Account, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id uuid.UUID) (DeletedAccount, error) {
	var out struct {
		DeletedAccount struct {
			ID   uuid.UUID `json:"id"`
			Name string    `json:"name"`
		} `json:"deleted_account"`
		DeletedTransactions int `json:"deleted_transactions"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/v1/account/"+id.String(), nil, nil, &out); err != nil {
		return DeletedAccount{}, err
	}
	return DeletedAccount{
		ID:                  out.DeletedAccount.ID,
		Name:                out.DeletedAccount.Name,
		DeletedTransactions: out.DeletedTransactions,
	}, nil
}

// ListTransactions returns up to limit recent transactions, oldest first.
// A nil accountID lists every account; limit <= 0 uses the server default.
func (c *Client) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]core.Transaction, error) {
	q := url.Values{}
	if accountID != uuid.Nil {
		q.Set("account", accountID.String())
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Transactions []core.Transaction `json:"transactions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/transaction", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

func (c *Client) AddTransaction(ctx context.Context, in AddTransactionInput) (core.Transaction, error) {
	var out core.Transaction
	err := c.do(ctx, http.MethodPost, "/api/v1/transaction/add", nil, in, &out)
	return out, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/transaction/delete/"+id.String(), nil, nil, nil)
}

func (c *Client) AccountHistory(ctx context.Context, id uuid.UUID, q HistoryQuery) (History, error) {
	var out History
	err := c.do(ctx, http.MethodGet, "/api/v1/account/"+id.String()+"/history", q.values(), nil, &out)
	return out, err
}

func (c *Client) NetWorth(ctx context.Context) (NetWorth, error) {
	var out NetWorth
	err := c.do(ctx, http.MethodGet, "/api/v1/networth", nil, nil, &out)
	return out, err
}

func (c *Client) NetWorthHistory(ctx context.Context, q HistoryQuery) (History, error) {
	var out History
	err := c.do(ctx, http.MethodGet, "/api/v1/networth/history", q.values(), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
