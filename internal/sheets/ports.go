package sheets

import "context"

// Ports for the spreadsheet collaborator.
type (
	// RowFetcher returns the data rows of one sheet keyed by header name.
	RowFetcher interface {
		FetchRows(ctx context.Context, spreadsheetID, sheet string) ([]map[string]string, error)
	}
)
