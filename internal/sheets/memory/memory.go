// Package memory is a ledger backend without Google: sheets are held in
// memory and optionally seeded from CSV files on disk.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"bankrecon/internal/core"
	ports "bankrecon/internal/sheets"
)

var _ ports.RowFetcher = (*Store)(nil)

// Store serves sheets by spreadsheet id and sheet name.
type Store struct {
	mu     sync.Mutex
	base   string
	sheets map[string][][]string
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{sheets: make(map[string][][]string)}
}

// NewFromDir returns a store that reads <base>/<spreadsheetID>/<sheet>.csv
// for sheets that were not put in memory.
func NewFromDir(base string) *Store {
	s := New()
	s.base = base
	return s
}

// Put replaces the content of a sheet. The first row is the header.
func (s *Store) Put(spreadsheetID, sheet string, values [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[key(spreadsheetID, sheet)] = cloneValues(values)
}

// FetchRows implements sheets.RowFetcher.
func (s *Store) FetchRows(ctx context.Context, spreadsheetID, sheet string) ([]map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	values, err := s.values(spreadsheetID, sheet)
	if err != nil {
		return nil, err
	}
	rows, err := ports.RowMaps(values)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func (s *Store) values(spreadsheetID, sheet string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.sheets[key(spreadsheetID, sheet)]; ok {
		return cloneValues(v), nil
	}
	if s.base == "" {
		return nil, fmt.Errorf("sheet %q not found in spreadsheet %s", sheet, spreadsheetID)
	}

	path := filepath.Join(s.base, spreadsheetID, sheet+".csv")
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("sheet %q not found in spreadsheet %s", sheet, spreadsheetID)
	}
	if err != nil {
		return nil, core.ExternalIO("open sheet file", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	values, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrMalformedRecord, path, err)
	}
	return values, nil
}

func key(spreadsheetID, sheet string) string {
	return spreadsheetID + "\x00" + sheet
}

func cloneValues(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
	}
	return out
}
