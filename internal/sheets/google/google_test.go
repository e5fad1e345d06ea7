package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bankrecon/internal/core"
)

type fakeSheets struct {
	metaCalls   atomic.Int32
	valuesCalls atomic.Int32
	lastRange   atomic.Value
	values      [][]any
	status      int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.status != 0 {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, f.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if i := strings.Index(r.URL.Path, "/values/"); i >= 0 {
		f.valuesCalls.Add(1)
		f.lastRange.Store(r.URL.Path[i+len("/values/"):])
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "x", "values": f.values})
		return
	}
	f.metaCalls.Add(1)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sheets": []any{
			map[string]any{"properties": map[string]any{
				"title":          "Other",
				"gridProperties": map[string]any{"rowCount": 5, "columnCount": 2},
			}},
			map[string]any{"properties": map[string]any{
				"title":          "Ledger 2025",
				"gridProperties": map[string]any{"rowCount": 1000, "columnCount": 28},
			}},
		},
	})
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, time.Hour, nil)
}

func TestFetchRows(t *testing.T) {
	f := &fakeSheets{values: [][]any{
		{"ACCOUNT_NUMBER", "AMOUNT", "NOTICE"},
		{"11773016-1", "1,234.50"},
		{"", "", ""},
		{"11773016-2", 12.5, "n"},
	}}
	c := newTestClient(t, f)

	rows, err := c.FetchRows(context.Background(), "sheet-id", "Ledger 2025")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["AMOUNT"] != "1,234.50" || rows[0]["NOTICE"] != "" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[1]["AMOUNT"] != "12.5" {
		t.Fatalf("numbers should be stringified, got %q", rows[1]["AMOUNT"])
	}
	if got := f.lastRange.Load().(string); got != "'Ledger 2025'!A1:AB1000" {
		t.Fatalf("unexpected range %q", got)
	}
}

func TestFetchRowsCachesGridMetadata(t *testing.T) {
	f := &fakeSheets{values: [][]any{{"A"}, {"1"}}}
	c := newTestClient(t, f)

	for i := 0; i < 3; i++ {
		if _, err := c.FetchRows(context.Background(), "sheet-id", "Other"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if n := f.metaCalls.Load(); n != 1 {
		t.Fatalf("metadata should be fetched once, got %d", n)
	}
	if n := f.valuesCalls.Load(); n != 3 {
		t.Fatalf("values should be fetched every time, got %d", n)
	}
}

func TestFetchRowsUnknownSheet(t *testing.T) {
	c := newTestClient(t, &fakeSheets{})
	_, err := c.FetchRows(context.Background(), "sheet-id", "Missing")
	if err == nil || !strings.Contains(err.Error(), `"Missing" not found`) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestFetchRowsServerError(t *testing.T) {
	c := newTestClient(t, &fakeSheets{status: http.StatusInternalServerError})
	_, err := c.FetchRows(context.Background(), "sheet-id", "Other")
	if !errors.Is(err, core.ErrExternalIO) {
		t.Fatalf("expected external I/O error, got %v", err)
	}
}

func TestColumnName(t *testing.T) {
	cases := map[int64]string{1: "A", 26: "Z", 27: "AA", 28: "AB", 52: "AZ", 53: "BA", 702: "ZZ", 703: "AAA"}
	for in, want := range cases {
		if got := columnName(in); got != want {
			t.Errorf("columnName(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestA1RangeQuotesTitle(t *testing.T) {
	if got := a1Range("Bob's sheet", gridSize{rows: 2, cols: 3}); got != "'Bob''s sheet'!A1:C2" {
		t.Fatalf("unexpected range %q", got)
	}
	if got := a1Range("Empty", gridSize{}); got != "'Empty'" {
		t.Fatalf("unexpected range %q", got)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing Google credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestNewWithInvalidOAuthClient(t *testing.T) {
	dir := t.TempDir()
	clientFile := filepath.Join(dir, "client.json")
	tokenFile := filepath.Join(dir, "token.json")
	if err := os.WriteFile(clientFile, []byte("invalid-json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tokenFile, []byte(`{"access_token":"test"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := New(context.Background(), Config{OAuthClientFile: clientFile, OAuthTokenFile: tokenFile}, nil)
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got %v", err)
	}
}

func TestReadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte(`{"access_token":"abc","token_type":"Bearer","refresh_token":"r"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	tok, err := readToken(path)
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if tok.AccessToken != "abc" || tok.RefreshToken != "r" {
		t.Fatalf("unexpected token %+v", tok)
	}
}
