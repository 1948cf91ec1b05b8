package absence

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mfroehlich/roster-api-go/pkg/models"
	"github.com/mfroehlich/roster-api-go/pkg/store"
)

func newService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return &Service{Store: st}
}

func TestAddListRemove(t *testing.T) {
	svc := newService(t)

	rec, err := svc.Add(models.AbsenceRecord{
		EmployeeID: "e1",
		From:       "2025-08-04",
		To:         "2025-08-08",
		Kind:       models.AbsenceVacation,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.HasPrefix(rec.ID, "abw_") {
		t.Errorf("expected generated id, got %q", rec.ID)
	}

	if got := svc.List(""); len(got) != 1 {
		t.Fatalf("expected 1 absence, got %d", len(got))
	}
	if got := svc.List("e2"); len(got) != 0 {
		t.Errorf("filter by employee leaked records: %v", got)
	}

	if err := svc.Remove(rec.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := svc.List(""); len(got) != 0 {
		t.Errorf("record survived removal: %v", got)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	svc := newService(t)

	cases := []models.AbsenceRecord{
		{From: "2025-08-04", To: "2025-08-08", Kind: models.AbsenceVacation},
		{EmployeeID: "e1", From: "04.08.2025", To: "2025-08-08", Kind: models.AbsenceVacation},
		{EmployeeID: "e1", From: "2025-08-08", To: "2025-08-04", Kind: models.AbsenceVacation},
	}
	for i, rec := range cases {
		if _, err := svc.Add(rec); err == nil {
			t.Errorf("case %d: expected validation error for %+v", i, rec)
		}
	}
	if got := svc.List(""); len(got) != 0 {
		t.Errorf("rejected records were stored: %v", got)
	}
}

func TestRemoveUnknownIsNotFound(t *testing.T) {
	svc := newService(t)
	if err := svc.Remove("abw_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceMonth(t *testing.T) {
	svc := newService(t)

	july, err := svc.Add(models.AbsenceRecord{
		EmployeeID: "e1", From: "2025-07-10", To: "2025-07-11", Kind: models.AbsenceVacation,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(models.AbsenceRecord{
		EmployeeID: "e1", From: "2025-08-04", To: "2025-08-04", Kind: models.AbsenceOther,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	fresh := []models.AbsenceRecord{
		{ID: "imp_e2_2025-08-12", EmployeeID: "e2", From: "2025-08-12", To: "2025-08-12", Kind: models.AbsenceVacation},
	}
	if err := svc.ReplaceMonth("2025-08", fresh); err != nil {
		t.Fatalf("replace month: %v", err)
	}

	got := svc.List("")
	if len(got) != 2 {
		t.Fatalf("expected july record plus fresh import, got %d records", len(got))
	}
	if got[0].ID != july.ID {
		t.Errorf("july record should survive, got %+v", got[0])
	}
	if got[1].EmployeeID != "e2" {
		t.Errorf("imported record missing, got %+v", got[1])
	}
}

func TestCalendarExpandsRanges(t *testing.T) {
	schedule := models.Schedule{
		"e1": {
			Employee: models.Employee{ID: "e1"},
			WorkingTimes: models.WorkingTimes{
				"2025-08-04": {Start: "08:00", End: "16:00"},
				"2025-08-20": {Start: "08:00", End: "16:00"},
			},
		},
	}
	absences := []models.AbsenceRecord{
		{ID: "abw_1", EmployeeID: "e2", From: "2025-08-05", To: "2025-08-07", Kind: models.AbsenceVacation},
	}

	events := Calendar(schedule, absences, "2025-08-01", "2025-08-10")
	if len(events) != 4 {
		t.Fatalf("expected 1 shift + 3 absence days, got %d: %+v", len(events), events)
	}

	if events[0].Kind != KindShift || events[0].Date != "2025-08-04" {
		t.Errorf("expected the shift first, got %+v", events[0])
	}
	for i, want := range []string{"2025-08-05", "2025-08-06", "2025-08-07"} {
		ev := events[i+1]
		if ev.Kind != KindAbsence || ev.Date != want || ev.Label != models.AbsenceVacation {
			t.Errorf("absence day %d wrong: %+v", i, ev)
		}
	}
}

func TestCalendarShiftAndAbsenceCoexist(t *testing.T) {
	schedule := models.Schedule{
		"e1": {
			Employee:     models.Employee{ID: "e1"},
			WorkingTimes: models.WorkingTimes{"2025-08-04": {Start: "08:00", End: "16:00"}},
		},
	}
	absences := []models.AbsenceRecord{
		{ID: "abw_1", EmployeeID: "e1", From: "2025-08-04", To: "2025-08-04", Kind: models.AbsenceOther},
	}

	events := Calendar(schedule, absences, "", "")
	if len(events) != 2 {
		t.Fatalf("shift and absence on one day must both appear, got %+v", events)
	}
	if events[0].Kind != KindAbsence || events[1].Kind != KindShift {
		t.Errorf("events out of order: %+v", events)
	}
}

func TestCalendarSkipsInvalidRanges(t *testing.T) {
	absences := []models.AbsenceRecord{
		{ID: "abw_1", EmployeeID: "e1", From: "not-a-date", To: "2025-08-04", Kind: models.AbsenceVacation},
		{ID: "abw_2", EmployeeID: "e1", From: "2025-08-08", To: "2025-08-04", Kind: models.AbsenceVacation},
	}
	if events := Calendar(nil, absences, "", ""); len(events) != 0 {
		t.Errorf("invalid ranges must be dropped, got %+v", events)
	}
}
