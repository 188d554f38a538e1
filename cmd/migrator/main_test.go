package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"script-migrator/internal/domain"
)

func TestParseInvocation(t *testing.T) {
	inv := parseInvocation([]string{"sqlite://a.db", "sqlite://b.db", "out", "scripts"})

	if len(inv.connections) != 2 || inv.outputDir != "out" || inv.scriptsDir != "scripts" {
		t.Errorf("unexpected invocation: %+v", inv)
	}
}

func TestPrintReport(t *testing.T) {
	report := &domain.RunReport{RunID: "run-1", Results: []domain.RunResult{
		{Identity: "localhost_a", Outcome: domain.RunOutcomeApplied, Executed: []string{"Ran script x"}},
		{Identity: "localhost_b", Outcome: domain.RunOutcomeFailed, Err: errors.New("boom")},
	}}

	t.Run("text", func(t *testing.T) {
		output = "text"
		var buf bytes.Buffer
		if err := printReport(&buf, report); err != nil {
			t.Fatalf("printReport failed: %v", err)
		}
		if !strings.Contains(buf.String(), "localhost_b") || !strings.Contains(buf.String(), "failed") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		output = "json"
		t.Cleanup(func() { output = "text" })
		var buf bytes.Buffer
		if err := printReport(&buf, report); err != nil {
			t.Fatalf("printReport failed: %v", err)
		}
		var decoded struct {
			RunID   string       `json:"run_id"`
			Results []resultJSON `json:"results"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if decoded.RunID != "run-1" || decoded.Results[1].Error != "boom" {
			t.Errorf("unexpected json: %+v", decoded)
		}
	})
}

func TestRootCommand_Apply(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("KMS_KEY_NAME", "")

	root := t.TempDir()
	scriptsDir := filepath.Join(root, "scripts")
	outputDir := filepath.Join(root, "output")
	dbPath := filepath.Join(root, "app.db")

	if err := os.MkdirAll(scriptsDir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	script := "CREATE TABLE t (id INTEGER);\nGO\nINSERT INTO t VALUES (1);\n"
	if err := os.WriteFile(filepath.Join(scriptsDir, "localhost_app_full_database_script.sql"), []byte(script), 0644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"sqlite://" + dbPath, outputDir, scriptsDir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("apply failed: %v\n%s", err, out.String())
	}

	for _, path := range []string{
		filepath.Join(scriptsDir, "tracking.json"),
		filepath.Join(scriptsDir, ".gitignore"),
		filepath.Join(outputDir, "localhost_app.log"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}
	if !strings.Contains(out.String(), "applied") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRootCommand_InvalidConnection(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"bogus", t.TempDir(), t.TempDir()})
	if err := cmd.Execute(); !errors.Is(err, domain.ErrInvalidConnectionString) {
		t.Errorf("want ErrInvalidConnectionString, got %v", err)
	}
}
