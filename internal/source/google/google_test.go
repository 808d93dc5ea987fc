package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	goption "google.golang.org/api/option"
)

func TestToStrings(t *testing.T) {
	got := toStrings([]interface{}{"  Yangon ", 548.9715, float64(1000000), nil, true})
	want := []string{"Yangon", "548.9715", "1000000", "", "true"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("toStrings[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), " ", "")
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	for _, k := range []string{"GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS", EnvOAuthTokenFile} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Records(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "Vendas!A1:F4",
			"majorDimension": "ROWS",
			"values": [
				["Date", "City", "Product line", "Payment", "Total", "Rating"],
				["01/05/2024", "Yangon", "Food and beverages", "Cash", 100.5, 9.1],
				[],
				["01/06/2024", "Mandalay", "Health and beauty", "Ewallet", "99,50", "x"]
			]
		}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), "sheet-id", "Vendas!A:F",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Name() != "sheets:sheet-id" {
		t.Fatalf("unexpected name %q", c.Name())
	}

	table, err := c.Records(context.Background())
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if !strings.Contains(gotPath, "sheet-id") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", table.Len())
	}
	if table.Records[0].Total.String() != "100.50" || table.Records[1].Total.String() != "99.50" {
		t.Fatalf("unexpected totals %q %q", table.Records[0].Total, table.Records[1].Total)
	}
	if table.Records[1].Rating.Valid {
		t.Fatalf("bad rating must be missing")
	}
}

func TestClient_RecordsNilService(t *testing.T) {
	c := &Client{spreadsheetID: "x", readRange: DefaultRange}
	if _, err := c.Records(context.Background()); err == nil {
		t.Fatal("expected error with nil service")
	}
}
