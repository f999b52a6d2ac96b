package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestFlagValue(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	c.Flags().Bool("json", false, "")
	c.Flags().Int("concurrency", 2, "")
	c.Flags().String("camera-url", "", "")
	c.Flags().Duration("timeout", 5*time.Second, "")
	if err := c.Flags().Parse([]string{"--json", "--concurrency=4", "--camera-url=http://cam/stream"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if !mustGetBool(c, "json") {
		t.Error("expected --json to be true")
	}
	if got := mustGetInt(c, "concurrency"); got != 4 {
		t.Errorf("expected concurrency 4, got %d", got)
	}
	if got := mustGetString(c, "camera-url"); got != "http://cam/stream" {
		t.Errorf("expected camera url, got %q", got)
	}
	if got := mustGetDuration(c, "timeout"); got != 5*time.Second {
		t.Errorf("expected default timeout 5s, got %v", got)
	}
}

func TestFlagValue_WrongTypePanics(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	c.Flags().Int("port", 0, "")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic for a flag read with the wrong type")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "--port") {
			t.Errorf("expected the flag name in the panic, got %v", r)
		}
	}()
	mustGetString(c, "port")
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("FACEFIT_API_URL", "http://env:5001")
	t.Setenv("LOG_LEVEL", "info")

	apiURL, logLevel = "http://flag:5001", "debug"
	t.Cleanup(func() { apiURL, logLevel = "", "" })

	cfg := loadConfig()
	if cfg.API.URL != "http://flag:5001" {
		t.Errorf("expected flag URL to win, got %q", cfg.API.URL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected flag log level to win, got %q", cfg.Log.Level)
	}
}

func TestWriteVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := writeVersion(&buf, "http://localhost:5001"); err != nil {
		t.Fatalf("writeVersion failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "facefit "+Version) {
		t.Errorf("expected the version first, got %q", out)
	}
	if !strings.Contains(out, "analysis service: http://localhost:5001") {
		t.Errorf("expected the service URL, got %q", out)
	}
}
