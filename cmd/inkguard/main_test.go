package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inkguard/inkguard/internal/pipeline"
	"github.com/inkguard/inkguard/pkg/extract/replay"
	"github.com/inkguard/inkguard/pkg/listing"
	"github.com/inkguard/inkguard/pkg/scoring"
	"github.com/zalando/go-keyring"
)

const fixtures = "../../testdata/assess"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// noConfig points --config at a file that does not exist so defaults apply.
func noConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.yaml")
}

func TestCommandFlags(t *testing.T) {
	root := newRootCmd()

	tests := []struct {
		cmd   string
		flags []string
	}{
		{"assess", []string{"listing", "decomposition", "judgments", "replay", "llm", "record", "format"}},
		{"run", []string{"workers", "limit", "resume", "checkpoint", "replay", "dry-run", "json"}},
		{"progress", []string{"checkpoint", "total"}},
		{"export", []string{"input", "format", "output-dir"}},
		{"table", []string{"format"}},
	}
	for _, tt := range tests {
		cmd, _, err := root.Find([]string{tt.cmd})
		if err != nil || cmd.Name() != tt.cmd {
			t.Fatalf("command %s not registered: %v", tt.cmd, err)
		}
		for _, flag := range tt.flags {
			if cmd.Flags().Lookup(flag) == nil {
				t.Errorf("%s: missing flag %s", tt.cmd, flag)
			}
		}
	}

	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing persistent flag config")
	}

	exportCmd, _, _ := root.Find([]string{"export"})
	if f, _ := exportCmd.Flags().GetString("format"); f != "both" {
		t.Errorf("default export format = %q, want both", f)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"a", "b", "c"}, "a"},
		{[]string{"", "b", "c"}, "b"},
		{[]string{"", "", "c"}, "c"},
		{[]string{"", "", ""}, ""},
	}

	for _, tt := range tests {
		got := firstNonEmpty(tt.args...)
		if got != tt.want {
			t.Errorf("firstNonEmpty(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "inkguard dev\n" {
		t.Errorf("version output = %q", out)
	}
}

func decodeAssessment(t *testing.T, out string) scoring.Assessment {
	t.Helper()
	var a scoring.Assessment
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("decoding assessment: %v\n%s", err, out)
	}
	return a
}

func TestAssessFromFiles(t *testing.T) {
	out, _, err := execute(t, "assess", "--config", noConfig(t),
		"--listing", filepath.Join(fixtures, "listing.json"),
		"--decomposition", filepath.Join(fixtures, "decomposition.json"),
		"--judgments", filepath.Join(fixtures, "judgments.json"),
		"--format", "json")
	if err != nil {
		t.Fatalf("assess: %v", err)
	}

	a := decodeAssessment(t, out)
	if a.Verdict != scoring.VerdictHighRisk {
		t.Errorf("verdict = %s, want HIGH_RISK", a.Verdict)
	}
	if a.Price == nil || a.Semantic == nil {
		t.Error("expected price and semantic signals")
	}
}

func TestAssessListingOnly(t *testing.T) {
	out, _, err := execute(t, "assess", "--config", noConfig(t),
		"--listing", filepath.Join(fixtures, "listing.json"),
		"--format", "markdown")
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if !strings.Contains(out, "MLB3456789012") {
		t.Errorf("expected listing id in markdown output:\n%s", out)
	}
}

func TestAssessReplay(t *testing.T) {
	l, err := listing.LoadListings(filepath.Join(fixtures, "listing.json"))
	if err != nil {
		t.Fatal(err)
	}
	d, err := listing.LoadDecomposition(filepath.Join(fixtures, "decomposition.json"))
	if err != nil {
		t.Fatal(err)
	}
	js, err := listing.LoadJudgments(filepath.Join(fixtures, "judgments.json"))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	rs, err := replay.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := rs.Record(replay.Entry{ListingID: l[0].ID, Title: l[0].Title, Decomposition: d, Judgments: js}); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "assess", "--config", noConfig(t),
		"--listing", filepath.Join(fixtures, "listing.json"),
		"--replay", dir,
		"--format", "json")
	if err != nil {
		t.Fatalf("assess --replay: %v", err)
	}
	if a := decodeAssessment(t, out); a.Verdict != scoring.VerdictHighRisk {
		t.Errorf("verdict = %s, want HIGH_RISK", a.Verdict)
	}
}

func TestAssessErrors(t *testing.T) {
	listingPath := filepath.Join(fixtures, "listing.json")

	if _, _, err := execute(t, "assess", "--config", noConfig(t)); err == nil {
		t.Error("expected error without --listing")
	}
	if _, _, err := execute(t, "assess", "--config", noConfig(t), "--listing", listingPath, "--format", "pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, _, err := execute(t, "assess", "--config", noConfig(t), "--listing", listingPath, "--record", t.TempDir()); err == nil {
		t.Error("expected error for --record without --llm")
	}
	if _, _, err := execute(t, "assess", "--config", noConfig(t), "--listing", listingPath, "--replay", t.TempDir()); err == nil {
		t.Error("expected error when the replay directory has no entry")
	}
}

func TestTable(t *testing.T) {
	out, _, err := execute(t, "table", "--config", noConfig(t), "--format", "json")
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	var tbl referenceTable
	if err := json.Unmarshal([]byte(out), &tbl); err != nil {
		t.Fatalf("decoding table: %v", err)
	}
	if len(tbl.Rows) != len(scoring.DefaultReferenceRows()) {
		t.Errorf("got %d rows, want %d", len(tbl.Rows), len(scoring.DefaultReferenceRows()))
	}

	out, _, err = execute(t, "table", "--config", noConfig(t))
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if !strings.Contains(out, "EXPECTED PAGES") {
		t.Errorf("expected page yield section:\n%s", out)
	}
}

func TestAuth(t *testing.T) {
	keyring.MockInit()
	t.Setenv("INKGUARD_LLM_API_KEY", "")

	if _, _, err := execute(t, "auth", "set", "--key", "sk-test"); err != nil {
		t.Fatalf("auth set: %v", err)
	}
	out, _, err := execute(t, "auth", "status", "--config", noConfig(t))
	if err != nil {
		t.Fatalf("auth status: %v", err)
	}
	if !strings.Contains(out, "stored in keyring") {
		t.Errorf("status = %q", out)
	}

	if _, _, err := execute(t, "auth", "delete"); err != nil {
		t.Fatalf("auth delete: %v", err)
	}
	out, _, _ = execute(t, "auth", "status", "--config", noConfig(t))
	if !strings.Contains(out, "not configured") {
		t.Errorf("status after delete = %q", out)
	}
}

// batchConfig writes a config that reads the test dataset and keeps every
// output under a temp directory.
func batchConfig(t *testing.T) (path, outDir string) {
	t.Helper()
	dataDir, err := filepath.Abs("../../testdata/dataset")
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	outDir = filepath.Join(root, "out")
	cfg := "data:\n  dir: " + dataDir + "\n" +
		"output:\n  dir: " + outDir + "\n  checkpoint: checkpoint.db\n" +
		"storage:\n  local_dir: " + filepath.Join(root, "artifacts") + "\n" +
		"pipeline:\n  workers: 2\n"
	path = filepath.Join(root, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, outDir
}

func TestRunDryRun(t *testing.T) {
	cfgPath, _ := batchConfig(t)

	_, stderr, err := execute(t, "run", "--config", cfgPath, "--dry-run")
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	if !strings.Contains(stderr, "Dry run: 3 listings") {
		t.Errorf("unexpected dry run output:\n%s", stderr)
	}
}

func TestRunProgressExport(t *testing.T) {
	cfgPath, outDir := batchConfig(t)

	d, err := listing.LoadDecomposition(filepath.Join(fixtures, "decomposition.json"))
	if err != nil {
		t.Fatal(err)
	}
	js, err := listing.LoadJudgments(filepath.Join(fixtures, "judgments.json"))
	if err != nil {
		t.Fatal(err)
	}
	js = js[:2]
	js[0].ReviewNumber, js[1].ReviewNumber = 1, 2

	replayDir := t.TempDir()
	rs, err := replay.Open(replayDir)
	if err != nil {
		t.Fatal(err)
	}
	// MLB300 is left unrecorded so it fails.
	for _, e := range []replay.Entry{
		{ListingID: "MLB100", Title: "Cartucho HP 664 Preto Original", Decomposition: d, Judgments: js},
		{ListingID: "MLB200", Title: "Cartucho HP 664XL Tricolor", Decomposition: d},
	} {
		if err := rs.Record(e); err != nil {
			t.Fatal(err)
		}
	}

	out, _, err := execute(t, "run", "--config", cfgPath, "--replay", replayDir, "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var report pipeline.RunReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, out)
	}
	if report.Processed != 2 || len(report.Failed) != 1 || report.Failed[0].ListingID != "MLB300" {
		t.Errorf("unexpected report: processed %d, failed %+v", report.Processed, report.Failed)
	}

	out, _, err = execute(t, "run", "--config", cfgPath, "--replay", replayDir, "--resume", "--json")
	if err != nil {
		t.Fatalf("run --resume: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 2 || report.Processed != 0 {
		t.Errorf("resume: skipped %d, processed %d", report.Skipped, report.Processed)
	}

	out, _, err = execute(t, "progress", "--config", cfgPath)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !strings.Contains(out, "Completed: 2/3") {
		t.Errorf("unexpected progress output:\n%s", out)
	}

	out, _, err = execute(t, "export", "--config", cfgPath, "--format", "jsonl")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Exported 1 of 2 listings") {
		t.Errorf("unexpected export output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "llm_analyzed_products.jsonl")); err != nil {
		t.Errorf("expected jsonl export: %v", err)
	}
}
