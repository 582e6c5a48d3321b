package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"CD_PORT", "SAVE_BACKEND", "PAYLOAD_CODEC", "AUTOSAVE_SLOT"} {
		t.Setenv(key, "") // восстановится после теста
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SaveBackend != BackendSQLite {
		t.Errorf("SaveBackend = %q, want %q", cfg.SaveBackend, BackendSQLite)
	}
	if cfg.PayloadCodec != "json" {
		t.Errorf("PayloadCodec = %q, want json", cfg.PayloadCodec)
	}
	if cfg.AutosaveSlot != "autosave" {
		t.Errorf("AutosaveSlot = %q, want autosave", cfg.AutosaveSlot)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CD_PORT", "9090")
	t.Setenv("SAVE_BACKEND", "FILE")
	t.Setenv("PAYLOAD_CODEC", "cbor")
	t.Setenv("LEVEL_PATH", "/tmp/level.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.SaveBackend != BackendFile {
		t.Errorf("SaveBackend = %q, want %q", cfg.SaveBackend, BackendFile)
	}
	if cfg.PayloadCodec != "cbor" {
		t.Errorf("PayloadCodec = %q, want cbor", cfg.PayloadCodec)
	}
	if cfg.LevelPath != "/tmp/level.json" {
		t.Errorf("LevelPath = %q", cfg.LevelPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantError bool
	}{
		{"sqlite json", Config{SaveBackend: "sqlite", PayloadCodec: "json"}, false},
		{"file cbor", Config{SaveBackend: " File ", PayloadCodec: "CBOR"}, false},
		{"unknown backend", Config{SaveBackend: "redis", PayloadCodec: "json"}, true},
		{"unknown codec", Config{SaveBackend: "file", PayloadCodec: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantError && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
