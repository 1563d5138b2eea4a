package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "coinjar/internal/sheets"
)

// Client appends ledger rows to year-prefixed tabs of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Ledger"); rows land in "<year> <base>".
	sheetBase string
}

// Ensure interface conformance
var _ ports.LedgerExporter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account key.
func New(ctx context.Context, spreadsheetID, sheetBase string, credentialsJSON []byte) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	creds, err := oauthgoogle.CredentialsFromJSON(ctx, credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	// Authorized client on top of the pooled transport
	base := newHTTPClientWithPooling()
	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), creds.TokenSource)
	httpClient.Timeout = base.Timeout

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetBase,
		"scope", gsheet.SpreadsheetsScope)

	return NewWithOptions(ctx, spreadsheetID, sheetBase, goption.WithHTTPClient(httpClient))
}

// NewWithOptions creates a client from explicit API options, e.g. a custom
// endpoint and token source.
func NewWithOptions(ctx context.Context, spreadsheetID, sheetBase string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = "Ledger"
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}, nil
}

// newHTTPClientWithPooling creates an HTTP client optimized for Google Sheets API
// with connection pooling, proper timeouts, and keep-alive settings
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// AppendRows appends rows to the tab of their calendar year, one API call
// per year, in year order.
func (c *Client) AppendRows(ctx context.Context, rows []ports.Row) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	byYear := map[int][][]any{}
	for _, r := range rows {
		byYear[r.Date.Year] = append(byYear[r.Date.Year], r.Values())
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	refs := make([]string, 0, len(years))
	for _, year := range years {
		sheet := yearPrefixedName(c.sheetBase, year)
		rng := fmt.Sprintf("%s!A:H", sheet)
		vr := &gsheet.ValueRange{Values: byYear[year]}

		resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return refs, fmt.Errorf("append %d rows to sheet %s: %w", len(vr.Values), sheet, err)
		}

		ref := rng
		if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
			ref = resp.Updates.UpdatedRange
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
