package plan

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mfroehlich/roster-api-go/pkg/models"
	"github.com/mfroehlich/roster-api-go/pkg/store"
)

func snapshot(employeeID string, times map[string]models.ShiftEntry) models.PlanSnapshot {
	return models.PlanSnapshot{
		CreatedAt: time.Now(),
		Employees: []models.PlanEmployee{{
			EmployeeID:   employeeID,
			WorkingTimes: times,
		}},
	}
}

func newService(t *testing.T, snaps ...models.PlanSnapshot) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	for _, s := range snaps {
		if err := st.Append(s); err != nil {
			t.Fatalf("append snapshot: %v", err)
		}
	}
	return &Service{Store: st}
}

func TestMergeLastSnapshotWins(t *testing.T) {
	s1 := snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "08:00", End: "16:00"}})
	s2 := snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "09:00", End: "17:00"}})

	merged := Merge([]models.PlanSnapshot{s1, s2}, nil)
	if got := merged["e1"].WorkingTimes["2025-08-04"]; got.Start != "09:00" || got.End != "17:00" {
		t.Errorf("expected later snapshot to win, got %+v", got)
	}

	merged = Merge([]models.PlanSnapshot{s2, s1}, nil)
	if got := merged["e1"].WorkingTimes["2025-08-04"]; got.Start != "08:00" || got.End != "16:00" {
		t.Errorf("expected later snapshot to win after reorder, got %+v", got)
	}
}

func TestMergeUnionAcrossDisjointDates(t *testing.T) {
	s1 := snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "08:00", End: "16:00"}})
	s2 := snapshot("e1", models.WorkingTimes{"2025-08-05": {Start: "10:00", End: "18:00"}})

	merged := Merge([]models.PlanSnapshot{s1, s2}, nil)
	wt := merged["e1"].WorkingTimes
	if len(wt) != 2 {
		t.Fatalf("expected 2 dates after union, got %d", len(wt))
	}
	if wt["2025-08-04"].Start != "08:00" || wt["2025-08-05"].Start != "10:00" {
		t.Errorf("union lost entries: %+v", wt)
	}
}

func TestMergeIsDeterministic(t *testing.T) {
	snaps := []models.PlanSnapshot{
		snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "08:00", End: "16:00"}}),
		snapshot("e2", models.WorkingTimes{"2025-08-05": {Start: "09:00", End: "17:00"}}),
	}
	roster := []models.Employee{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}

	a := Merge(snaps, roster)
	b := Merge(snaps, roster)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("merge of an unchanged store differed between runs")
	}
}

func TestMergeIncludesRosterOnlyEmployees(t *testing.T) {
	roster := []models.Employee{{ID: "e9", LastName: "Neu"}}
	merged := Merge(nil, roster)

	es, ok := merged["e9"]
	if !ok {
		t.Fatalf("roster employee missing from merge")
	}
	if len(es.WorkingTimes) != 0 {
		t.Errorf("expected empty working times, got %+v", es.WorkingTimes)
	}
}

func TestMergeEmptyEntryMasksEarlierShift(t *testing.T) {
	// A later snapshot defining the date with an empty entry means "no
	// shift that day"; only a snapshot that omits the date leaves the
	// earlier value standing.
	s1 := snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "08:00", End: "16:00"}})
	s2 := snapshot("e1", models.WorkingTimes{"2025-08-04": {}})

	merged := Merge([]models.PlanSnapshot{s1, s2}, nil)
	if got, ok := merged["e1"].WorkingTimes["2025-08-04"]; ok {
		t.Errorf("later empty entry must mask the earlier shift, got %+v", got)
	}

	merged = Merge([]models.PlanSnapshot{s2, s1}, nil)
	if got := merged["e1"].WorkingTimes["2025-08-04"]; got.Start != "08:00" {
		t.Errorf("shift after an empty entry must be visible, got %+v", got)
	}
}

func TestDeleteThenMerge(t *testing.T) {
	svc := newService(t,
		snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "08:00", End: "16:00"}}),
	)

	if err := svc.UpsertShift(models.ShiftRef{EmployeeID: "e1", Date: "2025-08-04"}, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}

	snaps := svc.Store.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("snapshot must survive the delete, got %d snapshots", len(snaps))
	}

	merged := Merge(snaps, nil)
	if _, ok := merged["e1"].WorkingTimes["2025-08-04"]; ok {
		t.Errorf("deleted shift still visible after merge")
	}
}

func TestDeleteInvisibleShiftIsNotFound(t *testing.T) {
	svc := newService(t)

	err := svc.UpsertShift(models.ShiftRef{EmployeeID: "e1", Date: "2025-08-04"}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesNewestOwner(t *testing.T) {
	// The same date defined in two snapshots: the reverse scan must
	// delete from the newer one, leaving the older value to resurface.
	svc := newService(t,
		snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "08:00", End: "16:00"}}),
		snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "09:00", End: "17:00"}}),
	)

	if err := svc.UpsertShift(models.ShiftRef{EmployeeID: "e1", Date: "2025-08-04"}, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}

	snaps := svc.Store.Snapshots()
	if _, ok := snaps[1].Employees[0].WorkingTimes["2025-08-04"]; ok {
		t.Errorf("newest snapshot should have lost the date")
	}
	if _, ok := snaps[0].Employees[0].WorkingTimes["2025-08-04"]; !ok {
		t.Errorf("oldest snapshot should keep its entry")
	}
}

func TestMoveChangesSnapshotOwnership(t *testing.T) {
	svc := newService(t,
		snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "08:00", End: "16:00"}}),
		snapshot("e1", models.WorkingTimes{"2025-08-10": {Start: "12:00", End: "20:00"}}),
	)

	ref := models.ShiftRef{EmployeeID: "e1", Date: "2025-08-04"}
	upd := &Update{Date: "2025-08-05", Entry: models.ShiftEntry{Start: "08:00", End: "16:00"}}
	if err := svc.UpsertShift(ref, upd); err != nil {
		t.Fatalf("move: %v", err)
	}

	snaps := svc.Store.Snapshots()
	if _, ok := snaps[0].Employees[0].WorkingTimes["2025-08-04"]; ok {
		t.Errorf("old date still present in originating snapshot")
	}
	if _, ok := snaps[1].Employees[0].WorkingTimes["2025-08-05"]; !ok {
		t.Errorf("new date missing from newest snapshot")
	}

	merged := Merge(snaps, nil)
	if _, ok := merged["e1"].WorkingTimes["2025-08-04"]; ok {
		t.Errorf("merge still shows the old date")
	}
	if got := merged["e1"].WorkingTimes["2025-08-05"]; got.Start != "08:00" {
		t.Errorf("merge misses the moved shift, got %+v", got)
	}
}

func TestReassignMovesShiftToOtherEmployee(t *testing.T) {
	svc := newService(t,
		snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "08:00", End: "16:00"}}),
		snapshot("e2", models.WorkingTimes{"2025-08-10": {Start: "12:00", End: "20:00"}}),
	)

	ref := models.ShiftRef{EmployeeID: "e1", Date: "2025-08-04"}
	upd := &Update{EmployeeID: "e2", Date: "2025-08-04", Entry: models.ShiftEntry{Start: "08:00", End: "16:00"}}
	if err := svc.UpsertShift(ref, upd); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	merged := Merge(svc.Store.Snapshots(), nil)
	if _, ok := merged["e1"].WorkingTimes["2025-08-04"]; ok {
		t.Errorf("old owner still holds the shift")
	}
	if got := merged["e2"].WorkingTimes["2025-08-04"]; got.Start != "08:00" {
		t.Errorf("new owner misses the shift, got %+v", got)
	}
}

func TestReassignInvisibleShiftLeavesStoreUntouched(t *testing.T) {
	svc := newService(t,
		snapshot("e2", models.WorkingTimes{"2025-08-10": {Start: "12:00", End: "20:00"}}),
	)

	ref := models.ShiftRef{EmployeeID: "e1", Date: "2025-08-04"}
	upd := &Update{EmployeeID: "e2", Date: "2025-08-04", Entry: models.ShiftEntry{Start: "08:00", End: "16:00"}}
	err := svc.UpsertShift(ref, upd)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	snaps := svc.Store.Snapshots()
	if len(snaps) != 1 || len(snaps[0].Employees[0].WorkingTimes) != 1 {
		t.Errorf("failed reassignment changed the store: %+v", snaps)
	}
}

func TestCreateForUnknownEmployeeAppendsSnapshot(t *testing.T) {
	svc := newService(t)

	ref := models.ShiftRef{EmployeeID: "e7", Date: "2025-08-04"}
	upd := &Update{Date: "2025-08-04", Entry: models.ShiftEntry{Start: "08:00", End: "12:00"}}
	if err := svc.UpsertShift(ref, upd); err != nil {
		t.Fatalf("create: %v", err)
	}

	snaps := svc.Store.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("expected a minimal snapshot to be appended, got %d", len(snaps))
	}
	if got := snaps[0].Employees[0].WorkingTimes["2025-08-04"]; got.End != "12:00" {
		t.Errorf("minimal snapshot carries wrong entry: %+v", got)
	}
}

func TestDeleteRange(t *testing.T) {
	svc := newService(t,
		snapshot("e1", models.WorkingTimes{
			"2025-08-04": {Start: "08:00", End: "16:00"},
			"2025-08-06": {Start: "08:00", End: "16:00"},
			"2025-08-11": {Start: "08:00", End: "16:00"},
		}),
		snapshot("e2", models.WorkingTimes{
			"2025-08-05": {Start: "10:00", End: "18:00"},
		}),
	)

	count, err := svc.DeleteRange("", "2025-08-04", "2025-08-10")
	if err != nil {
		t.Fatalf("delete range: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 removed entries, got %d", count)
	}

	merged := Merge(svc.Store.Snapshots(), nil)
	if _, ok := merged["e1"].WorkingTimes["2025-08-11"]; !ok {
		t.Errorf("entry outside the range was removed")
	}
	if len(merged["e1"].WorkingTimes) != 1 || len(merged["e2"].WorkingTimes) != 0 {
		t.Errorf("unexpected leftover entries: %+v / %+v", merged["e1"].WorkingTimes, merged["e2"].WorkingTimes)
	}
}

func TestDeleteRangeSingleEmployee(t *testing.T) {
	svc := newService(t,
		snapshot("e1", models.WorkingTimes{"2025-08-04": {Start: "08:00", End: "16:00"}}),
		snapshot("e2", models.WorkingTimes{"2025-08-04": {Start: "10:00", End: "18:00"}}),
	)

	count, err := svc.DeleteRange("e1", "2025-08-01", "2025-08-31")
	if err != nil {
		t.Fatalf("delete range: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 removed entry, got %d", count)
	}

	merged := Merge(svc.Store.Snapshots(), nil)
	if _, ok := merged["e2"].WorkingTimes["2025-08-04"]; !ok {
		t.Errorf("other employee's shift was removed")
	}
}
