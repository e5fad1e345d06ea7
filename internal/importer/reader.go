// Package importer reads bank CSV exports into transaction records.
package importer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"

	"bankrecon/internal/charset"
	"bankrecon/internal/core"
	"bankrecon/internal/log"
)

const maxLineSize = 1 << 20

// LineError ties a parse failure to its 1-based line in the bank file.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// Config selects and decodes the bank export files.
type Config struct {
	Dir         string
	Pattern     string
	Charset     string
	Separator   rune
	Concurrency int
}

// File is the parsed content of one export file.
type File struct {
	Path    string
	Records []core.TransactionRecord
}

// Reader parses bank export files.
type Reader struct {
	cfg    Config
	enc    encoding.Encoding
	logger *log.Logger
}

func NewReader(cfg Config, logger *log.Logger) (*Reader, error) {
	if cfg.Pattern == "" {
		cfg.Pattern = "*.csv"
	}
	if cfg.Separator == 0 {
		cfg.Separator = ';'
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", cfg.Pattern, err)
	}
	enc, err := charset.Lookup(cfg.Charset)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Reader{cfg: cfg, enc: enc, logger: logger.WithComponent(log.ComponentImporter)}, nil
}

// Files lists the export files in the configured directory, sorted by name.
func (r *Reader) Files() ([]string, error) {
	if _, err := os.Stat(r.cfg.Dir); err != nil {
		return nil, core.ExternalIO("stat import directory", err)
	}
	paths, err := filepath.Glob(filepath.Join(r.cfg.Dir, r.cfg.Pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadAll parses paths concurrently and returns the files in the order given.
func (r *Reader) ReadAll(ctx context.Context, paths []string) ([]File, error) {
	files := make([]File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, p := range paths {
		g.Go(func() error {
			recs, err := r.ReadFile(ctx, p)
			if err != nil {
				return err
			}
			files[i] = File{Path: p, Records: recs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// ReadFile decodes and parses one export file.
func (r *Reader) ReadFile(ctx context.Context, path string) ([]core.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, core.ExternalIO("open bank file", err)
	}
	defer f.Close()

	recs, err := Parse(charset.NewReader(f, r.enc), r.cfg.Separator)
	if err != nil {
		var le *LineError
		if errors.As(err, &le) {
			r.logger.WarnContext(ctx, "Rejected bank file line",
				log.FieldOperation, log.OpParse, log.FieldFile, path,
				log.FieldLine, le.Line, log.FieldError, le.Err.Error())
		}
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	r.logger.DebugContext(ctx, "Parsed bank file", log.FieldFile, path, "records", len(recs))
	return recs, nil
}

// Parse reads bank export lines from rd. The first line is the header; it and
// every later line identical to it are skipped, as are empty lines.
func Parse(rd io.Reader, sep rune) ([]core.TransactionRecord, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		header string
		recs   []core.TransactionRecord
	)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if lineNo == 1 {
			header = strings.TrimPrefix(line, "\ufeff")
			continue
		}
		if line == header || strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := core.FromBankLine(line, sep)
		if err != nil {
			return nil, &LineError{Line: lineNo, Err: err}
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, core.ExternalIO("read bank file", err)
	}
	return recs, nil
}
