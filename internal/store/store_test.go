package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autoflow/internal/models"
)

func testAutomation(id, name string) models.Automation {
	return models.Automation{
		ID:          id,
		Name:        name,
		Description: "test automation",
		Trigger:     models.TriggerManual,
		Actions:     []models.Action{{Type: models.ActionLog, Message: "hello"}},
		Parameters:  map[string]interface{}{},
		Status:      models.StatusActive,
		CreatedAt:   "2025-01-02T15:04:05Z",
		UpdatedAt:   "2025-01-02T15:04:05Z",
	}
}

func TestNew_MissingFileIsEmpty(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "automations.json"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", s.Len())
	}
}

func TestNew_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automations.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	_, err := New(path)
	if err == nil {
		t.Fatal("expected error for corrupt file")
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automations.json")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	want := testAutomation("id-1", "First")
	if err := s.Put(want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := s.Get("id-1")
	if !ok {
		t.Fatal("expected automation to be present")
	}
	if got.Name != want.Name || got.Description != want.Description {
		t.Errorf("Get returned %+v, want %+v", got, want)
	}
	if len(got.Actions) != 1 || got.Actions[0].Message != "hello" {
		t.Errorf("actions not preserved: %+v", got.Actions)
	}
}

func TestPut_EmptyID(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "automations.json"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Put(models.Automation{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestDelete_Idempotent(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "automations.json"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Put(testAutomation("id-1", "First")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	removed, err := s.Delete("id-1")
	if err != nil || !removed {
		t.Fatalf("first Delete = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = s.Delete("id-1")
	if err != nil || removed {
		t.Fatalf("second Delete = (%v, %v), want (false, nil)", removed, err)
	}
	if _, ok := s.Get("id-1"); ok {
		t.Fatal("automation should be gone after delete")
	}
}

func TestPersistenceAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automations.json")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	want := testAutomation("id-1", "Durable")
	if err := s.Put(want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Simulate a process restart with a fresh load.
	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got, ok := reloaded.Get("id-1")
	if !ok {
		t.Fatal("automation missing after reload")
	}
	if got.Name != want.Name || got.CreatedAt != want.CreatedAt {
		t.Errorf("reloaded automation %+v, want %+v", got, want)
	}
	if len(reloaded.List()) != 1 {
		t.Errorf("expected 1 automation after reload, got %d", len(reloaded.List()))
	}
}

func TestPersistLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "automations.json"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Put(testAutomation("id-1", "First")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := s.Delete("id-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".automations-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDataFileIsValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automations.json")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Put(testAutomation("id-1", "First")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	var m map[string]models.Automation
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("data file is not valid JSON: %v", err)
	}
	if _, ok := m["id-1"]; !ok {
		t.Error("data file missing persisted automation")
	}
}
