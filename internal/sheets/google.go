package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

// GoogleClient talks to one spreadsheet through the Sheets v4 API
type GoogleClient struct {
	service       *gsheets.Service
	spreadsheetID string
}

// NewGoogleClient creates a client for spreadsheetID. Options are passed to the Sheets service.
func NewGoogleClient(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*GoogleClient, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}

	return &GoogleClient{
		service:       srv,
		spreadsheetID: spreadsheetID,
	}, nil
}

// NewServiceAccountClient authenticates with a service-account key
func NewServiceAccountClient(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*GoogleClient, error) {
	conf, err := google.JWTConfigFromJSON(credentialsJSON, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	return NewGoogleClient(ctx, spreadsheetID, option.WithHTTPClient(conf.Client(ctx)))
}

// LoadCredentials returns the service-account key from path when the file exists
// (local development) and falls back to inline JSON (hosted secret store).
func LoadCredentials(path, inline string) ([]byte, error) {
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("unable to read credentials file: %w", err)
		}
	}

	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}

	return nil, fmt.Errorf("no service account credentials: %s not found and no inline credentials set", path)
}

// Values reads the whole worksheet as formatted strings
func (c *GoogleClient) Values(ctx context.Context, tab string) ([][]string, error) {
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, TabRange(tab)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError(tab, "read", err)
	}

	values := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		values[i] = make([]string, len(row))
		for j, v := range row {
			if v != nil {
				values[i][j] = fmt.Sprint(v)
			}
		}
	}
	return values, nil
}

// AppendRows appends rows below the existing data in one request
func (c *GoogleClient) AppendRows(ctx context.Context, tab string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	vr := &gsheets.ValueRange{Values: toInterfaces(rows)}
	_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, TabRange(tab), vr).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return wrapAPIError(tab, "append to", err)
	}
	return nil
}

// UpdateCells writes every cell in a single batch request
func (c *GoogleClient) UpdateCells(ctx context.Context, tab string, cells []Cell) error {
	if len(cells) == 0 {
		return nil
	}

	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: valueInputOption}
	for _, cell := range cells {
		if cell.Row < 1 || cell.Col < 1 {
			return fmt.Errorf("invalid cell position %d,%d", cell.Row, cell.Col)
		}
		req.Data = append(req.Data, &gsheets.ValueRange{
			Range:  CellRange(tab, cell.Row, cell.Col),
			Values: [][]interface{}{{cell.Value}},
		})
	}

	if _, err := c.service.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return wrapAPIError(tab, "update", err)
	}
	return nil
}

func toInterfaces(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}

// wrapAPIError maps "Unable to parse range" responses, which the API returns for unknown
// worksheet names, onto ErrTabNotFound.
func wrapAPIError(tab, action string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest &&
		strings.Contains(apiErr.Message, "Unable to parse range") {
		return fmt.Errorf("%w: %s", ErrTabNotFound, tab)
	}
	return fmt.Errorf("failed to %s %s: %w", action, tab, err)
}
