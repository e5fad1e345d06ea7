package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bankrecon/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		Google: config.GoogleConfig{OAuthClientFile: "c.json", OAuthTokenFile: "t.json"},
		Ledger: config.LedgerConfig{Backend: "sheets", DataDir: "d"},
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SheetsBackend || cfg.GoogleOAuthClientFile != "c.json" || cfg.DataDirectory != "d" {
		t.Errorf("unexpected backend config %+v", cfg)
	}

	app.Ledger.Backend = "excel"
	if _, err := FromAppConfig(app); err == nil {
		t.Error("FromAppConfig() should reject unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) should fail")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sheets with service account", Config{Type: SheetsBackend, GoogleServiceAccountJSON: "{}"}, false},
		{"sheets with oauth", Config{Type: SheetsBackend, GoogleOAuthClientFile: "c", GoogleOAuthTokenFile: "t"}, false},
		{"sheets without credentials", Config{Type: SheetsBackend, GoogleOAuthClientFile: "c"}, true},
		{"unknown", Config{Type: "sqlite"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "ledger"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ledger", "2025.csv"), []byte("A,B\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	rows, err := res.Ledger.FetchRows(context.Background(), "ledger", "2025")
	if err != nil {
		t.Fatalf("FetchRows() error = %v", err)
	}
	if len(rows) != 1 || rows[0]["B"] != "2" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestCreateSheetsBackendWithoutCredentials(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SheetsBackend})
	if err == nil || !strings.Contains(err.Error(), "sheets backend") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}
