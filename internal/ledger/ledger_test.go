package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dokzlo13/irlightd/internal/db"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatalf("db.Open() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database.DB)
}

func TestLedger_AppendAndQuery(t *testing.T) {
	l := newTestLedger(t)

	presses := []string{"ON", "BRIGHT_DOWN", "BRIGHT_DOWN"}
	for _, action := range presses {
		if err := l.Append(EventButtonPressed, "ir_light_desk", "apply-1", map[string]any{"action": action}); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}
	if err := l.Append(EventStateApplied, "ir_light_desk", "apply-1", nil); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := l.Append(EventButtonPressed, "ir_light_other", "apply-2", nil); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	entries, err := l.GetByApply("apply-1")
	if err != nil {
		t.Fatalf("GetByApply() error: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("GetByApply() returned %d entries, want 4", len(entries))
	}
	for i, action := range presses {
		if entries[i].EventType != EventButtonPressed || entries[i].Payload["action"] != action {
			t.Errorf("entry %d = %+v, want press %s", i, entries[i], action)
		}
	}
	if entries[3].EventType != EventStateApplied || entries[3].Payload != nil {
		t.Errorf("last entry = %+v", entries[3])
	}

	byLight, err := l.GetByLight("ir_light_desk", 2)
	if err != nil {
		t.Fatalf("GetByLight() error: %v", err)
	}
	if len(byLight) != 2 || byLight[0].EventType != EventStateApplied {
		t.Errorf("GetByLight() = %+v", byLight)
	}
}

func TestLedger_DeleteOlderThan(t *testing.T) {
	l := newTestLedger(t)

	now := time.Now()
	l.now = func() time.Time { return now.Add(-48 * time.Hour) }
	l.Append(EventButtonPressed, "a", "old", nil)
	l.now = func() time.Time { return now }
	l.Append(EventButtonPressed, "a", "new", nil)

	deleted, err := l.DeleteOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted %d entries, want 1", deleted)
	}
	if entries, _ := l.GetByApply("new"); len(entries) != 1 {
		t.Error("recent entry was removed")
	}
}
