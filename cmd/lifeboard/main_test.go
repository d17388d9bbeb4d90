package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/bills"
	"github.com/nugget/lifeboard/internal/buildinfo"
	"github.com/nugget/lifeboard/internal/config"
	"github.com/nugget/lifeboard/internal/dashboard"
	"github.com/nugget/lifeboard/internal/knowledge"
	"github.com/nugget/lifeboard/internal/mission"
	"github.com/nugget/lifeboard/internal/storage"
)

// runCmd invokes run and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), &stdout, &stderr, args)
	return stdout.String(), err
}

// writeTestConfig writes a config that keeps all state under a temp dir
// and uses the pure-Go SQLite driver.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "data_dir: " + filepath.Join(dir, "data") + "\n" +
		"storage:\n  driver: " + config.DriverPure + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Version(t *testing.T) {
	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, buildinfo.String()) || !strings.Contains(out, "go_version:") {
		t.Errorf("text output = %q", out)
	}

	out, err = runCmd(t, "-o", "json", "version")
	if err != nil {
		t.Fatalf("version json: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if info["version"] != buildinfo.Version {
		t.Errorf("version = %q, want %q", info["version"], buildinfo.Version)
	}
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}, {"--help"}} {
		out, err := runCmd(t, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if !strings.Contains(out, "Usage: lifeboard") {
			t.Errorf("%v: output = %q", args, out)
		}
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"-verbose"}, "unknown flag"},
		{"unknown command", []string{"launch"}, "unknown command"},
		{"bad output", []string{"-o", "yaml", "version"}, "unknown output format"},
		{"import needs file", []string{"import"}, "usage: lifeboard import"},
		{"index needs workspace", []string{"knowledge-index"}, "usage: lifeboard knowledge-index"},
		{"missing explicit config", []string{"-config", "/nonexistent/config.yaml", "today"}, "config file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRun_ImportExportToday(t *testing.T) {
	cfgPath := writeTestConfig(t)
	dir := filepath.Dir(cfgPath)

	doc, _ := appdata.AddHabit(appdata.New(), "Stretch", "🧘")
	doc, _, _ = appdata.UpsertBill(doc, bills.Bill{
		Title:     "Rent",
		AmountUSD: 1200,
		Frequency: bills.Monthly,
		DueDay:    1,
	})
	backup := filepath.Join(dir, "backup.json")
	if err := storage.ExportFile(backup, doc); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "-config", cfgPath, "import", backup)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported") || !strings.Contains(out, "1 bills") {
		t.Errorf("import output = %q", out)
	}

	out, err = runCmd(t, "-config", cfgPath, "export", "-")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	exported, err := storage.Import(strings.NewReader(out))
	if err != nil {
		t.Fatalf("exported backup does not import: %v", err)
	}
	var titles []string
	for _, h := range exported.Habits {
		titles = append(titles, h.Title)
	}
	if !strings.Contains(strings.Join(titles, ","), "Stretch") {
		t.Errorf("exported habits = %v", titles)
	}

	file := filepath.Join(dir, "copy.json")
	if _, err := runCmd(t, "-config", cfgPath, "export", file); err != nil {
		t.Fatalf("export to file: %v", err)
	}
	if _, err := storage.ImportFile(file); err != nil {
		t.Errorf("export file unreadable: %v", err)
	}

	out, err = runCmd(t, "-config", cfgPath, "-o", "json", "today")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	var today dashboard.Today
	if err := json.Unmarshal([]byte(out), &today); err != nil {
		t.Fatalf("decode today %q: %v", out, err)
	}
	if today.Status == "" || len(today.Rules) == 0 {
		t.Errorf("today = %+v", today)
	}

	out, err = runCmd(t, "-config", cfgPath, "today")
	if err != nil {
		t.Fatalf("today text: %v", err)
	}
	for _, want := range []string{"Lifeboard " + today.Date, "Bills", "Mission"} {
		if !strings.Contains(out, want) {
			t.Errorf("today text missing %q:\n%s", want, out)
		}
	}
}

func TestRun_ImportRejectsGarbage(t *testing.T) {
	cfgPath := writeTestConfig(t)
	bad := filepath.Join(filepath.Dir(cfgPath), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCmd(t, "-config", cfgPath, "import", bad); err == nil {
		t.Fatal("expected error importing garbage")
	}
}

func TestRun_Digest(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCmd(t, "-config", cfgPath, "-o", "json", "digest", "2020-01-01")
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	var dg mission.DailyDigest
	if err := json.Unmarshal([]byte(out), &dg); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if dg.Date != "2020-01-01" || dg.TasksCreated != 0 {
		t.Errorf("digest = %+v", dg)
	}

	out, err = runCmd(t, "-config", cfgPath, "digest", "2020-01-01")
	if err != nil {
		t.Fatalf("digest text: %v", err)
	}
	if !strings.Contains(out, "Digest 2020-01-01") {
		t.Errorf("digest text = %q", out)
	}

	if _, err := runCmd(t, "-config", cfgPath, "digest", "01/02/2020"); err == nil {
		t.Error("expected error for malformed day")
	}
}

func TestRun_DigestPrefersArchive(t *testing.T) {
	cfgPath := writeTestConfig(t)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	store, err := openStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	archived := mission.DailyDigest{Date: "2020-01-02", TasksCreated: 4, Summary: "archived"}
	if err := store.SaveDigest(context.Background(), archived); err != nil {
		t.Fatal(err)
	}
	store.Close()

	out, err := runCmd(t, "-config", cfgPath, "-o", "json", "digest", "2020-01-02")
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	var dg mission.DailyDigest
	if err := json.Unmarshal([]byte(out), &dg); err != nil {
		t.Fatal(err)
	}
	if dg != archived {
		t.Errorf("digest = %+v, want %+v", dg, archived)
	}
}

func TestRun_KnowledgeIndex(t *testing.T) {
	root := t.TempDir()
	for name, content := range map[string]string{
		"MEMORY.md":         "# Memory\n\nLikes early runs.\n",
		"research/sleep.md": "# Sleep\n\nEight hours beats six.\n",
	} {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out := filepath.Join(t.TempDir(), "index.json")
	stdout, err := runCmd(t, "knowledge-index", root, out)
	if err != nil {
		t.Fatalf("knowledge-index: %v", err)
	}
	if !strings.Contains(stdout, "Indexed 2 notes") {
		t.Errorf("output = %q", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := knowledge.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if got := idx.Filter(knowledge.Research, ""); len(got) != 1 || got[0].Title != "Sleep" {
		t.Errorf("research items = %+v", got)
	}

	if _, err := runCmd(t, "knowledge-index", filepath.Join(root, "MEMORY.md"), out); err == nil {
		t.Error("expected error when workspace is a file")
	}
}
