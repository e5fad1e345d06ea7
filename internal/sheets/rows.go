package sheets

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoHeader is returned for a sheet without a header row.
var ErrNoHeader = errors.New("sheet has no header row")

// RowMaps turns a value matrix whose first row is the header into rows keyed
// by header name. Header cells are trimmed and blank header columns are
// dropped. Short rows are padded with blanks and rows blank in every kept
// column are left out.
func RowMaps(values [][]string) ([]map[string]string, error) {
	if len(values) == 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(values[0]))
	seen := make(map[string]struct{}, len(values[0]))
	kept := 0
	for i, h := range values[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("duplicate header %q", h)
		}
		seen[h] = struct{}{}
		header[i] = h
		kept++
	}
	if kept == 0 {
		return nil, ErrNoHeader
	}

	rows := make([]map[string]string, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make(map[string]string, kept)
		blank := true
		for i, h := range header {
			if h == "" {
				continue
			}
			var v string
			if i < len(raw) {
				v = raw[i]
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			row[h] = v
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
