package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec("flat:/var/data/ticks.flat")
	if err != nil {
		t.Fatalf("ParseSpec error: %v", err)
	}
	if spec.Type != "flat" || spec.Path != "/var/data/ticks.flat" {
		t.Fatalf("spec = %+v", spec)
	}
}

func TestParseSpecKeepsColonsInPath(t *testing.T) {
	spec, err := ParseSpec("ws_mtgox:" + MtgoxWebsocketURL)
	if err != nil {
		t.Fatalf("ParseSpec error: %v", err)
	}
	if spec.Type != "ws_mtgox" || spec.Path != MtgoxWebsocketURL {
		t.Fatalf("spec = %+v", spec)
	}
}

func TestParseSpecInvalid(t *testing.T) {
	for _, s := range []string{"no-colon", ":path-only", ""} {
		if _, err := ParseSpec(s); err == nil {
			t.Errorf("ParseSpec(%q) should fail", s)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"connection": {
			"websocket": {"conn_timeout_sec": 3, "read_timeout_sec": 60},
			"mysql": {"trade_commit_buffer": 50}
		},
		"log": {"level": "debug"}
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Log("ERROR : not able to write config file :", err)
		t.FailNow()
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Connection.WS.ConnTimeoutSec != 3 || cfg.Connection.WS.ReadTimeoutSec != 60 {
		t.Fatalf("websocket config = %+v", cfg.Connection.WS)
	}
	if cfg.Connection.MySQL.TradeCommitBuf != 50 {
		t.Fatalf("mysql config = %+v", cfg.Connection.MySQL)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log config = %+v", cfg.Log)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("loading a missing config file must fail")
	}
}
