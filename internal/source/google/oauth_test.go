package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

const testOAuthClient = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestOAuthConfig(t *testing.T) {
	t.Setenv(EnvOAuthClientJSON, "")
	t.Setenv(EnvOAuthClientFile, "")
	if _, err := OAuthConfig(); err == nil {
		t.Fatal("expected error without client credentials")
	}

	path := filepath.Join(t.TempDir(), "client.json")
	if err := os.WriteFile(path, []byte(testOAuthClient), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvOAuthClientFile, path)
	cfg, err := OAuthConfig()
	if err != nil {
		t.Fatalf("OAuthConfig: %v", err)
	}
	if cfg.ClientID != "id.apps.googleusercontent.com" {
		t.Errorf("unexpected client id %q", cfg.ClientID)
	}
	if len(cfg.Scopes) != 1 || !strings.HasSuffix(cfg.Scopes[0], "spreadsheets.readonly") {
		t.Errorf("unexpected scopes %v", cfg.Scopes)
	}
}

func TestSaveAndReadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	want := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour).Round(time.Second)}
	if err := SaveToken(path, want); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v", info.Mode().Perm())
	}

	got, err := ReadToken(path)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if got.RefreshToken != "r" || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("unexpected token %+v", got)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadToken(empty); err == nil {
		t.Error("expected error for a token without credentials")
	}
}

func TestNew_OAuthToken(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token.json")
	if err := SaveToken(tokenFile, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvOAuthClientJSON, testOAuthClient)
	t.Setenv(EnvOAuthTokenFile, tokenFile)

	c, err := New(context.Background(), "sheet-id", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.readRange != DefaultRange {
		t.Errorf("unexpected range %q", c.readRange)
	}

	t.Setenv(EnvOAuthTokenFile, filepath.Join(dir, "missing.json"))
	if _, err := New(context.Background(), "sheet-id", ""); err == nil {
		t.Error("expected error for a missing token file")
	}
}
