package settlement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/text/encoding"

	"bankrecon/internal/charset"
	"bankrecon/internal/core"
)

// Header is the fixed column header of a settlement file.
var Header = []string{
	"Source account", "Target account", "Beneficiary", "Amount",
	"Currency", "Notice", "Transfer date", "Item",
}

const (
	numFields      = 8
	colSource      = 0
	colTarget      = 1
	colBeneficiary = 2
	colAmount      = 3
	colCurrency    = 4
	colNotice      = 5
	colDate        = 6
	colItem        = 7

	fileDateFormat = "20060102"
)

// DefaultPrefix names settlement files when no prefix is configured.
const DefaultPrefix = "transfers"

// WriterConfig configures a Writer.
type WriterConfig struct {
	Dir           string
	Separator     rune
	Charset       string
	SourceAccount string
	Prefix        string
}

// Writer produces settlement files in one target directory.
type Writer struct {
	cfg WriterConfig
	enc encoding.Encoding
}

// NewWriter validates cfg and resolves its charset.
func NewWriter(cfg WriterConfig) (*Writer, error) {
	if cfg.Dir == "" {
		return nil, errors.New("settlement target directory is required")
	}
	if cfg.Separator == 0 {
		cfg.Separator = ';'
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	enc, err := charset.Lookup(cfg.Charset)
	if err != nil {
		return nil, err
	}
	return &Writer{cfg: cfg, enc: enc}, nil
}

// Dir returns the target directory.
func (w *Writer) Dir() string { return w.cfg.Dir }

// Reset removes the target directory with everything in it and creates it
// again empty.
func (w *Writer) Reset() error {
	dir := filepath.Clean(w.cfg.Dir)
	if dir == "." || dir == string(filepath.Separator) {
		return fmt.Errorf("refusing to reset target directory %q", w.cfg.Dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return core.ExternalIO("remove target directory", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.ExternalIO("create target directory", err)
	}
	return nil
}

// FileName returns the base name of the file for date and currency.
func (w *Writer) FileName(date time.Time, currency string) string {
	return fmt.Sprintf("%s_%s_%s.csv", w.cfg.Prefix, date.Format(fileDateFormat), currency)
}

// Write stores rows as the settlement file of date and returns its path. The
// file appears under its final name only once completely written.
func (w *Writer) Write(date time.Time, currency string, rows []core.Transfer) (string, error) {
	path := filepath.Join(w.cfg.Dir, w.FileName(date, currency))

	tmp, err := os.CreateTemp(w.cfg.Dir, ".settlement-*.tmp")
	if err != nil {
		return "", core.ExternalIO("create settlement file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := w.encode(tmp, date, rows); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return "", core.ExternalIO("close settlement file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", core.ExternalIO("rename settlement file", err)
	}
	return path, nil
}

func (w *Writer) encode(out io.Writer, date time.Time, rows []core.Transfer) error {
	ew := charset.NewWriter(out, w.enc)
	cw := csv.NewWriter(ew)
	cw.Comma = w.cfg.Separator

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range rows {
		if err := cw.Write(w.marshal(date, i+1, t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("encoding as %s: %w", w.cfg.Charset, err)
	}
	if err := ew.Close(); err != nil {
		return fmt.Errorf("encoding as %s: %w", w.cfg.Charset, err)
	}
	return nil
}

func (w *Writer) marshal(date time.Time, item int, t core.Transfer) []string {
	row := make([]string, numFields)
	row[colSource] = w.cfg.SourceAccount
	row[colTarget] = t.TargetAccount
	row[colBeneficiary] = t.Beneficiary
	row[colAmount] = core.FormatAmount(t.Amount)
	row[colCurrency] = t.Currency
	row[colNotice] = t.Notice
	row[colDate] = date.Format(core.DateLayout)
	row[colItem] = strconv.Itoa(item)
	return row
}

// ReadFile parses a settlement file written with the same configuration and
// returns its source account and transfers.
func (w *Writer) ReadFile(path string) (string, []core.Transfer, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, core.ExternalIO("open settlement file", err)
	}
	defer f.Close()
	return Read(f, w.cfg.Separator, w.enc)
}

// Read parses settlement rows from r.
func Read(r io.Reader, sep rune, enc encoding.Encoding) (string, []core.Transfer, error) {
	cr := csv.NewReader(charset.NewReader(r, enc))
	cr.Comma = sep
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("%w: reading settlement file: %v", core.ErrMalformedRecord, err)
	}
	if len(records) == 0 {
		return "", nil, nil
	}

	var (
		source    string
		transfers []core.Transfer
	)
	for i, rec := range records[1:] {
		t, err := unmarshal(rec)
		if err != nil {
			return "", nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		source = rec[colSource]
		transfers = append(transfers, t)
	}
	return source, transfers, nil
}

func unmarshal(rec []string) (core.Transfer, error) {
	amount, err := core.ParseDecimal(rec[colAmount], core.LedgerDecimalMark)
	if err != nil {
		return core.Transfer{}, err
	}
	date, err := core.ParseDate(rec[colDate], core.DateLayout)
	if err != nil {
		return core.Transfer{}, err
	}
	return core.Transfer{
		TargetAccount: rec[colTarget],
		Beneficiary:   rec[colBeneficiary],
		Amount:        amount,
		Currency:      rec[colCurrency],
		Notice:        rec[colNotice],
		TransferDate:  date,
	}, nil
}
