package logger

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"trace", TRACE, false},
		{"DEBUG", DEBUG, false},
		{"", INFO, false},
		{"warning", WARN, false},
		{"Error", ERROR, false},
		{"loud", INFO, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %v, %v", f, err)
	}
	if f, err := ParseFormat("colored"); err != nil || f != FormatColor {
		t.Errorf("ParseFormat(colored) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml format")
	}
}

func TestToLoggerConfig(t *testing.T) {
	lc := DefaultLogConfig()
	lc.Level = "debug"
	lc.Format = "json"
	lc.Output = "null"

	cfg, err := lc.ToLoggerConfig()
	if err != nil {
		t.Fatalf("ToLoggerConfig: %v", err)
	}
	if cfg.Level != DEBUG || cfg.Format != FormatJSON {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Output != io.Discard {
		t.Error("null output should map to io.Discard")
	}
	if !cfg.Components[ComponentFetcher] {
		t.Error("fetcher component should be enabled by default")
	}
}

func TestLoadAndSaveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	lc := DefaultLogConfig()
	lc.Level = "WARN"
	lc.Components["dataapi"] = true
	if err := lc.SaveConfigToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Level != "WARN" {
		t.Errorf("Expected level WARN, got %s", loaded.Level)
	}
	if !loaded.Components["dataapi"] {
		t.Error("dataapi component should be enabled")
	}
}

func TestLoadConfigFromFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFromFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvLevel:      "trace",
		EnvFormat:     "color",
		EnvTimestamp:  "1",
		EnvComponents: "query, client",
	}
	lc := DefaultLogConfig()
	lc.ApplyEnv(func(k string) string { return env[k] })

	if lc.Level != "trace" || lc.Format != "color" || !lc.Timestamp {
		t.Errorf("env not applied: %+v", lc)
	}
	if len(lc.Components) != 2 || !lc.Components["query"] || !lc.Components["client"] {
		t.Errorf("unexpected components %v", lc.Components)
	}
}

func TestValidateConfig(t *testing.T) {
	lc := DefaultLogConfig()
	if err := lc.ValidateConfig(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	lc.Output = "syslog"
	if err := lc.ValidateConfig(); err == nil {
		t.Error("expected invalid output error")
	}
}
