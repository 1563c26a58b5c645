package sheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

// GoogleSheets is a Store backed by one Google Sheets spreadsheet; every
// logical sheet is a tab of that spreadsheet.
type GoogleSheets struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewGoogleSheets authenticates with a service account credentials file.
// Extra client options (endpoint, HTTP client) are appended for tests.
func NewGoogleSheets(ctx context.Context, spreadsheetID, credentialsFile string, opts ...option.ClientOption) (*GoogleSheets, error) {
	if spreadsheetID == "" {
		return nil, jarvisErrors.InvalidInput("store.spreadsheet_id is required for the google backend")
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, jarvisErrors.External("sheets client", err)
	}
	return &GoogleSheets{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (g *GoogleSheets) Rows(ctx context.Context, sheet string) (*Table, error) {
	values, err := g.values(ctx, sheet)
	if err != nil {
		return nil, err
	}
	return NewTable(sheet, values), nil
}

func (g *GoogleSheets) FindRow(ctx context.Context, sheet, key string) (*Row, error) {
	values, err := g.values(ctx, sheet)
	if err != nil {
		return nil, err
	}
	row := findInValues(values, key)
	if row == nil {
		return nil, jarvisErrors.NotFound(fmt.Sprintf("row %q in %s", key, sheet))
	}
	return row, nil
}

func (g *GoogleSheets) UpdateCell(ctx context.Context, sheet string, row, col int, value string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, A1(sheet, row, col), vr).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return jarvisErrors.External("sheets update "+sheet, err)
	}
	return nil
}

func (g *GoogleSheets) AppendRow(ctx context.Context, sheet string, values []string) (int, error) {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}

	resp, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, RowRange(sheet, 1, len(values)), &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, jarvisErrors.External("sheets append "+sheet, err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return rowFromRange(resp.Updates.UpdatedRange), nil
}

func (g *GoogleSheets) EnsureSheet(ctx context.Context, sheet string, header []string) error {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return jarvisErrors.External("sheets get", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheet}},
	}}}
	if _, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return jarvisErrors.External("sheets add "+sheet, err)
	}

	_, err = g.AppendRow(ctx, sheet, header)
	return err
}

func (g *GoogleSheets) values(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, quoteSheet(sheet)).Context(ctx).Do()
	if err != nil {
		if isMissingTab(err) {
			return nil, jarvisErrors.NotFound("sheet " + sheet)
		}
		return nil, jarvisErrors.External("sheets read "+sheet, err)
	}

	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = fmt.Sprint(cell)
		}
	}
	return out, nil
}

// isMissingTab reports the 400 the API answers for a range on a tab that
// does not exist yet. Tabs are created on first write.
func isMissingTab(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadRequest {
		return false
	}
	return strings.Contains(apiErr.Message, "Unable to parse range") || strings.Contains(apiErr.Body, "Unable to parse range")
}

var updatedRowPattern = regexp.MustCompile(`![A-Z]+(\d+)`)

// rowFromRange extracts the first row number of an A1 range such as "diet!A12:I12".
func rowFromRange(rng string) int {
	m := updatedRowPattern.FindStringSubmatch(rng)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
