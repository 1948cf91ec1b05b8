package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mfroehlich/roster-api-go/pkg/models"
)

func sampleSnapshot() models.PlanSnapshot {
	return models.PlanSnapshot{
		CreatedAt: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
		Employees: []models.PlanEmployee{{
			EmployeeID: "e1",
			WorkingTimes: models.WorkingTimes{
				"2025-08-04": {Start: "08:00", End: "16:00"},
			},
		}},
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(st.Snapshots()) != 0 || len(st.Absences()) != 0 {
		t.Errorf("fresh store not empty")
	}
}

func TestAppendPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Append(sampleSnapshot()); err != nil {
		t.Fatalf("append: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	snaps := reopened.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot after reload, got %d", len(snaps))
	}
	if got := snaps[0].Employees[0].WorkingTimes["2025-08-04"]; got.Start != "08:00" {
		t.Errorf("snapshot content changed on reload: %+v", got)
	}
}

func TestSnapshotsKeepInsertionOrder(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		snap := models.PlanSnapshot{Employees: []models.PlanEmployee{{EmployeeID: id}}}
		if err := st.Append(snap); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	snaps := st.Snapshots()
	for i, want := range []string{"a", "b", "c"} {
		if snaps[i].Employees[0].EmployeeID != want {
			t.Errorf("snapshot %d out of order: %s", i, snaps[i].Employees[0].EmployeeID)
		}
	}
}

func TestMutateErrorLeavesStoreUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Append(sampleSnapshot()); err != nil {
		t.Fatalf("append: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store file: %v", err)
	}

	boom := errors.New("boom")
	err = st.Mutate(func(doc *Document) error {
		doc.Snapshots = nil
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutate error, got %v", err)
	}

	if len(st.Snapshots()) != 1 {
		t.Errorf("failed mutate changed in-memory state")
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store file: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("failed mutate rewrote the store file")
	}
}

func TestMutateLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "db.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Append(sampleSnapshot()); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "db.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected files left behind: %v", names)
	}
}
