package aurigad

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "aurigad.toml")
	data := []byte("" +
		"[server]\n" +
		"broker = \"mqtt://localhost\"\n" +
		"identity = \"aurigad-test\"\n" +
		"\n" +
		"[catalog]\n" +
		"base_url = \"http://localhost:8080\"\n" +
		"\n" +
		"[modules.zone_player]\n" +
		"enabled = true\n" +
		"zone_id = \"zone-1\"\n" +
		"duck_volume = 0.25\n" +
		"\n" +
		"[modules.embedded_broker]\n" +
		"enabled = true\n" +
		"listen = \"127.0.0.1:1883\"\n" +
		"allow_anonymous = true\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Broker != "mqtt://localhost" {
		t.Fatalf("expected broker")
	}
	if cfg.Catalog.BaseURL != "http://localhost:8080" {
		t.Fatalf("expected catalog base url")
	}
	if !cfg.Modules.ZonePlayer.Enabled || cfg.Modules.ZonePlayer.ZoneID != "zone-1" {
		t.Fatalf("expected zone player config")
	}
	if cfg.Modules.ZonePlayer.DuckVolume != 0.25 {
		t.Fatalf("expected duck volume")
	}
	if !cfg.Modules.EmbeddedBroker.AllowAnonymous {
		t.Fatalf("expected anonymous broker")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("default config path: %v", err)
	}
	if path == "" {
		t.Fatalf("expected path")
	}
}
