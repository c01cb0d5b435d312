package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingStateIsEmpty(t *testing.T) {
	t.Parallel()

	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load of missing state should succeed: %v", err)
	}
	if s.InstalledVersion != "" || s.LastCheckTime != "" {
		t.Fatalf("missing state should be empty: %+v", s)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	s := &LocalState{}
	s.MarkChecked("v1.3.0", time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC))
	s.MarkInstalled("v1.3.0")

	if err := s.Save(tmp); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.InstalledVersion != "v1.3.0" {
		t.Fatalf("installed=%q want=v1.3.0", loaded.InstalledVersion)
	}
	if loaded.LastSeenVersion != "v1.3.0" {
		t.Fatalf("last seen=%q want=v1.3.0", loaded.LastSeenVersion)
	}
	if loaded.LastCheckTime != "2026-08-23T09:00:00Z" {
		t.Fatalf("last check=%q", loaded.LastCheckTime)
	}
}

func TestLoadCorruptState(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmp, StateFile), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("seeding corrupt state: %v", err)
	}
	if _, err := Load(tmp); err == nil {
		t.Fatalf("corrupt state should fail to load")
	}
}
