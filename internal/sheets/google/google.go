package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bankrecon/internal/cache"
	"bankrecon/internal/core"
	"bankrecon/internal/log"
	ports "bankrecon/internal/sheets"
)

var _ ports.RowFetcher = (*Client)(nil)

// Config selects how the client authenticates. Service account credentials
// win over an OAuth client/token pair when both are set.
type Config struct {
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
	MetadataTTL        time.Duration
}

type gridSize struct {
	rows, cols int64
}

// Client reads ledger sheets through the Sheets v4 API.
type Client struct {
	svc    *gsheet.Service
	grids  *cache.LRUCache[gridSize]
	logger *log.Logger
}

// New creates a Sheets client authenticated according to cfg.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, core.ExternalIO("create sheets service", err)
	}
	return NewWithService(svc, cfg.MetadataTTL, logger), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, metadataTTL time.Duration, logger *log.Logger) *Client {
	if metadataTTL <= 0 {
		metadataTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:    svc,
		grids:  cache.NewLRUCache[gridSize](64, metadataTTL),
		logger: logger.WithComponent(log.ComponentSheets),
	}
}

func clientOptions(ctx context.Context, cfg Config) ([]goption.ClientOption, error) {
	scope := goption.WithScopes(gsheet.SpreadsheetsReadonlyScope)
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []goption.ClientOption{goption.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)), scope}, nil
	case cfg.ServiceAccountFile != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return []goption.ClientOption{goption.WithCredentialsJSON(b), scope}, nil
	case cfg.OAuthClientFile != "" && cfg.OAuthTokenFile != "":
		b, err := os.ReadFile(cfg.OAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		oc, err := goauth.ConfigFromJSON(b, gsheet.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("oauth config: %w", err)
		}
		tok, err := readToken(cfg.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		return []goption.ClientOption{goption.WithHTTPClient(oc.Client(ctx, tok))}, nil
	default:
		return nil, errors.New("missing Google credentials (service account JSON/file or OAuth client and token files)")
	}
}

func readToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token file: %w", err)
	}
	return &tok, nil
}

// FetchRows reads the whole used grid of a sheet and returns its rows keyed
// by the header row.
func (c *Client) FetchRows(ctx context.Context, spreadsheetID, sheet string) ([]map[string]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	grid, err := c.gridSize(ctx, spreadsheetID, sheet)
	if err != nil {
		return nil, err
	}

	rng := a1Range(sheet, grid)
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, core.ExternalIO("read "+rng, err)
	}

	values := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		values[i] = toStrings(row)
	}
	rows, err := ports.RowMaps(values)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	c.logger.DebugContext(ctx, "Fetched sheet rows",
		log.FieldOperation, log.OpFetch,
		log.FieldSpreadsheet, spreadsheetID, log.FieldSheet, sheet, "rows", len(rows))
	return rows, nil
}

func (c *Client) gridSize(ctx context.Context, spreadsheetID, sheet string) (gridSize, error) {
	return c.grids.GetOrLoad(spreadsheetID+"\x00"+sheet, func() (gridSize, error) {
		ss, err := c.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
		if err != nil {
			return gridSize{}, core.ExternalIO("read spreadsheet "+spreadsheetID, err)
		}
		for _, s := range ss.Sheets {
			if s.Properties == nil || s.Properties.Title != sheet {
				continue
			}
			var g gridSize
			if gp := s.Properties.GridProperties; gp != nil {
				g = gridSize{rows: gp.RowCount, cols: gp.ColumnCount}
			}
			return g, nil
		}
		return gridSize{}, fmt.Errorf("sheet %q not found in spreadsheet %s", sheet, spreadsheetID)
	})
}

// a1Range quotes the sheet title and bounds the range by the grid size when
// it is known.
func a1Range(sheet string, g gridSize) string {
	title := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if g.rows <= 0 || g.cols <= 0 {
		return title
	}
	return title + "!A1:" + columnName(g.cols) + strconv.FormatInt(g.rows, 10)
}

// columnName converts a 1-based column index to its letters (1 -> A, 27 -> AA).
func columnName(n int64) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
