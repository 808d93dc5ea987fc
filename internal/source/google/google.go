package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"vendas/internal/core"
	"vendas/internal/loader"
	"vendas/internal/source"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultRange is read when no range is configured.
const DefaultRange = "Vendas!A:Z"

var _ source.RecordSource = (*Client)(nil)

// Client reads the sales table from a Google Sheets range whose first row
// is the header.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	readRange     string
}

// New creates a Sheets source. Without opts it authenticates with the user
// token in GOOGLE_OAUTH_TOKEN_FILE when set, otherwise with service account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, readRange string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	readRange = strings.TrimSpace(readRange)
	if readRange == "" {
		readRange = DefaultRange
	}

	if len(opts) == 0 {
		var err error
		if opts, err = defaultOptions(ctx); err != nil {
			return nil, err
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, readRange: readRange}, nil
}

// defaultOptions prefers a user token from GOOGLE_OAUTH_TOKEN_FILE and falls
// back to service account credentials.
func defaultOptions(ctx context.Context) ([]goption.ClientOption, error) {
	if tokenFile := strings.TrimSpace(os.Getenv(EnvOAuthTokenFile)); tokenFile != "" {
		slog.DebugContext(ctx, "Using OAuth user token", "path", tokenFile)
		opt, err := oauthOption(ctx, tokenFile)
		if err != nil {
			return nil, err
		}
		return []goption.ClientOption{opt}, nil
	}

	creds, err := credentialsJSON(ctx)
	if err != nil {
		return nil, err
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope),
	}, nil
}

// credentialsJSON resolves service account credentials from the environment.
func credentialsJSON(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case path != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", path)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// Records reads the configured range and normalizes it like the sales file.
func (c *Client) Records(ctx context.Context) (core.Table, error) {
	if c.svc == nil {
		return core.Table{}, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return core.Table{}, fmt.Errorf("read %s: %w", c.readRange, err)
	}
	table, err := loader.FromRows(toRows(resp.Values))
	if err != nil {
		return core.Table{}, fmt.Errorf("parse %s: %w", c.readRange, err)
	}
	return table, nil
}

func (c *Client) Name() string {
	return "sheets:" + c.spreadsheetID
}

func toRows(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = toStrings(row)
	}
	return out
}

// toStrings renders cells as text. Numbers keep a plain decimal form so the
// amount parser accepts them.
func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}
