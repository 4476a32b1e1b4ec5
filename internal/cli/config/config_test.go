package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "http://localhost:8080", want: "http://localhost:8080"},
		{in: "https://api.wanderlust.com/", want: "https://api.wanderlust.com"},
		{in: "api.wanderlust.com", want: "https://api.wanderlust.com"},
		{in: "  http://10.0.0.1:8080  ", want: "http://10.0.0.1:8080"},
		{in: "", wantErr: true},
		{in: "ftp://files.example.com", wantErr: true},
		{in: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddServer(t *testing.T) {
	cfg := &Config{}

	first, added, err := cfg.AddServer("http://localhost:8080")
	if err != nil || !added {
		t.Fatalf("expected first server to be added, added=%v err=%v", added, err)
	}
	if first.Alias != "production" {
		t.Errorf("expected alias 'production', got '%s'", first.Alias)
	}

	second, added, err := cfg.AddServer("https://staging.example.com")
	if err != nil || !added {
		t.Fatalf("expected second server to be added, added=%v err=%v", added, err)
	}
	if second.Alias != "server-2" {
		t.Errorf("expected alias 'server-2', got '%s'", second.Alias)
	}

	dup, added, err := cfg.AddServer("http://localhost:8080/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added {
		t.Error("duplicate URL should not be added")
	}
	if dup.Alias != "production" {
		t.Errorf("expected existing server, got '%s'", dup.Alias)
	}
	if len(cfg.Servers) != 2 {
		t.Errorf("expected 2 servers, got %d", len(cfg.Servers))
	}
}

func TestLookups(t *testing.T) {
	cfg := &Config{Servers: []Server{
		{URL: "http://localhost:8080", Alias: "local"},
		{URL: "https://api.wanderlust.com", Alias: "production"},
	}}

	if s, err := cfg.GetServerByAlias("production"); err != nil || s.URL != "https://api.wanderlust.com" {
		t.Errorf("GetServerByAlias: got %v, %v", s, err)
	}
	if _, err := cfg.GetServerByAlias("missing"); err == nil {
		t.Error("expected error for unknown alias")
	}
	if s, err := cfg.GetServerByURL("http://localhost:8080/"); err != nil || s.Alias != "local" {
		t.Errorf("GetServerByURL: got %v, %v", s, err)
	}
	if s, err := cfg.GetDefaultServer(); err != nil || s.Alias != "local" {
		t.Errorf("GetDefaultServer: got %v, %v", s, err)
	}
	if _, err := (&Config{}).GetDefaultServer(); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestSaveLoadAndFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if err := Save(filepath.Join(root, ConfigFileName), DefaultConfig()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromCurrentDir()
	if err != nil {
		t.Fatalf("expected config to be found from a subdirectory: %v", err)
	}
	if len(cfg.Servers) != 1 || cfg.Servers[0].Alias != "local" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadFromCurrentDir_Missing(t *testing.T) {
	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(t.TempDir())

	if _, err := LoadFromCurrentDir(); err == nil {
		t.Error("expected error when no config exists")
	}
}
