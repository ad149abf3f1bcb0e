package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"dex-liquidity-lab/internal/domain"
)

func tempStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "config.json"))
}

func TestFileStore_MissingFileYieldsDefaults(t *testing.T) {
	store := tempStore(t)

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.ScheduleEnabled {
		t.Error("Expected scheduling disabled by default")
	}
	if doc.ScheduleIntervalSecs != DefaultScheduleIntervalSecs {
		t.Errorf("Interval: got %d, want %d", doc.ScheduleIntervalSecs, DefaultScheduleIntervalSecs)
	}
	if doc.LadderBaselineUSD != domain.DefaultBaselineUSD {
		t.Errorf("Baseline: got %d, want %d", doc.LadderBaselineUSD, domain.DefaultBaselineUSD)
	}
	if len(doc.LadderValues) != len(domain.DefaultUSDLadder) {
		t.Errorf("Ladder: got %d rungs, want default %d", len(doc.LadderValues), len(domain.DefaultUSDLadder))
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := tempStore(t)

	doc, _ := store.Load()
	doc.PairAddresses = []string{"0xpool1", "0xpool2"}
	doc.LadderValues = []int64{1, 100, 10} // order must survive as written
	doc.ScheduleEnabled = true
	doc.LastSchedulerError = "previous failure"
	if err := store.Save(doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.PairAddresses) != 2 || loaded.PairAddresses[1] != "0xpool2" {
		t.Errorf("PairAddresses: %v", loaded.PairAddresses)
	}
	if loaded.LadderValues[0] != 1 || loaded.LadderValues[1] != 100 || loaded.LadderValues[2] != 10 {
		t.Errorf("Ladder order changed: %v", loaded.LadderValues)
	}
	if !loaded.ScheduleEnabled || loaded.LastSchedulerError != "previous failure" {
		t.Errorf("Flags lost: %+v", loaded)
	}
}

func TestFileStore_UpdateWritesBack(t *testing.T) {
	store := tempStore(t)

	err := store.Update(func(doc *Document) error {
		doc.LastSchedulerHeartbeat = 1700000000
		doc.LastSchedulerError = ""
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc, _ := store.Load()
	if doc.LastSchedulerHeartbeat != 1700000000 {
		t.Errorf("Heartbeat: got %d", doc.LastSchedulerHeartbeat)
	}
}

func TestFileStore_KeySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewFileStore(path)

	doc, _ := store.Load()
	if err := store.Save(doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config file: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("config file is not valid JSON: %v", err)
	}
	for _, key := range []string{
		"pair_addresses", "ladder_values", "ladder_baseline_usd",
		"schedule_enabled", "schedule_interval_secs",
		"last_scheduler_heartbeat", "last_scheduler_error",
	} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Missing key %q in saved document", key)
		}
	}
}

func TestFileStore_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Load(); err == nil {
		t.Fatal("Expected error for corrupt config file")
	}
}
