package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tiliavir/litt/internal/config"
	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/storage"
)

func TestLoadNotExist(t *testing.T) {
	doc, err := storage.Load(filepath.Join(t.TempDir(), "events.json"))
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if doc.Stopwatch != nil || doc.Interruption != nil {
		t.Errorf("Load on missing file returned open intervals")
	}
	if doc.Records == nil || doc.Aliases == nil {
		t.Errorf("Load on missing file returned nil maps")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	start := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	desc := "planning"

	doc := model.NewLedger()
	doc.Stopwatch = &model.Record{StartTime: start, Tags: []string{}, Interruptions: []model.InterruptionRef{}}
	doc.Records["20260227-ABCD"] = model.Record{
		StartTime:      start,
		EndTime:        &end,
		CommitTime:     &end,
		Tags:           []string{"a"},
		Description:    &desc,
		StructuredData: []byte{0x00, 0xff},
		Interruptions:  []model.InterruptionRef{{ID: "20260227-WXYZ"}},
	}
	doc.Aliases["plan"] = model.Alias{Tags: []string{"a"}}

	if err := storage.Save(path, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := storage.Load(path)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if loaded.Stopwatch == nil || !loaded.Stopwatch.StartTime.Equal(start) {
		t.Errorf("Stopwatch = %+v, want start %v", loaded.Stopwatch, start)
	}
	rec, ok := loaded.Records["20260227-ABCD"]
	if !ok {
		t.Fatalf("record missing after reload")
	}
	if rec.Duration() != time.Hour {
		t.Errorf("Duration = %v, want 1h", rec.Duration())
	}
	if string(rec.StructuredData) != string([]byte{0x00, 0xff}) {
		t.Errorf("StructuredData = %v, want [0 255]", rec.StructuredData)
	}
	if len(rec.Interruptions) != 1 || rec.Interruptions[0].ID != "20260227-WXYZ" {
		t.Errorf("Interruptions = %+v", rec.Interruptions)
	}
	if _, ok := loaded.Aliases["plan"]; !ok {
		t.Errorf("alias missing after reload")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind")
	}
}

func TestLoadCorruptIsBackedUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte("{bad json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := storage.Load(path); err == nil {
		t.Fatal("expected error for corrupt JSON, got nil")
	}
	if _, err := os.Stat(path + ".corrupt"); os.IsNotExist(err) {
		t.Error("expected backup file to exist after corrupt JSON")
	}
}

func TestInit(t *testing.T) {
	paths := config.NewPaths(filepath.Join(t.TempDir(), ".litt"))
	if storage.Initialized(paths) {
		t.Fatal("fresh directory reported as initialized")
	}
	if err := storage.Init(paths); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !storage.Initialized(paths) {
		t.Fatal("Init did not create the ledger and config")
	}

	cfg, err := config.Load(paths)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if cfg.OutputFormat != config.DefaultOutputFormat {
		t.Errorf("OutputFormat = %q, want %q", cfg.OutputFormat, config.DefaultOutputFormat)
	}
}

func TestInitKeepsExistingLedger(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	doc := model.NewLedger()
	doc.Records["keep"] = model.Record{StartTime: time.Unix(0, 0).UTC(), Tags: []string{}}
	if err := storage.Save(paths.Ledger, doc); err != nil {
		t.Fatal(err)
	}

	if err := storage.Init(paths); err != nil {
		t.Fatalf("Init: %v", err)
	}
	loaded, err := storage.Load(paths.Ledger)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := loaded.Records["keep"]; !ok {
		t.Error("Init overwrote an existing ledger")
	}
}
