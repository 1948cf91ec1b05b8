// Package plan merges the appended plan snapshots into one aggregated
// schedule and resolves point edits back into the snapshot that owns
// the affected date.
package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/mfroehlich/roster-api-go/pkg/models"
	"github.com/mfroehlich/roster-api-go/pkg/store"
)

// ErrNotFound is returned when an edit addresses a cell with no
// currently visible shift.
var ErrNotFound = errors.New("shift not found")

// Merge folds snapshots in store order into one schedule. Later
// snapshots win on conflicting dates: a defined-but-empty entry clears
// the day, while dates a snapshot does not mention keep their earlier
// value. Roster employees that appear in no snapshot are included with
// empty working times. Merge is a pure function of its inputs:
// re-running it on an unchanged store yields the same result.
func Merge(snapshots []models.PlanSnapshot, roster []models.Employee) models.Schedule {
	schedule := make(models.Schedule, len(roster))
	for _, emp := range roster {
		schedule[emp.ID] = &models.EmployeeSchedule{
			Employee:     emp,
			WorkingTimes: models.WorkingTimes{},
		}
	}

	for _, snap := range snapshots {
		for _, pe := range snap.Employees {
			es, ok := schedule[pe.EmployeeID]
			if !ok {
				// Employee missing from the roster (e.g. deleted after
				// the plan was saved); still shown with bare identity.
				es = &models.EmployeeSchedule{
					Employee:     models.Employee{ID: pe.EmployeeID},
					WorkingTimes: models.WorkingTimes{},
				}
				schedule[pe.EmployeeID] = es
			}
			for date, entry := range pe.WorkingTimes {
				if entry.IsZero() {
					// "No shift that day", overriding whatever an
					// earlier snapshot put there.
					delete(es.WorkingTimes, date)
					continue
				}
				es.WorkingTimes[date] = entry
			}
		}
	}
	return schedule
}

// Update names the target cell and content of an upsert. On a move the
// date differs from the addressed reference; on a reassignment the
// employee does too (empty means the reference's employee).
type Update struct {
	EmployeeID string
	Date       string
	Entry      models.ShiftEntry
}

// Service applies edits against the snapshot store. Every mutation
// persists before returning; callers re-merge to observe the effect.
type Service struct {
	Store *store.Store
}

// Aggregate merges the current store contents with the given roster.
func (s *Service) Aggregate(roster []models.Employee) models.Schedule {
	return Merge(s.Store.Snapshots(), roster)
}

// UpsertShift applies one point edit. A nil update deletes the shift at
// ref. A non-nil update removes the shift currently visible at ref (if
// any) and writes the new date/entry into the target employee's most
// recent snapshot, so later merges keep the edit on top. If no snapshot
// references that employee yet, a minimal new snapshot is appended.
// Vacating the old cell and writing the new one happen inside one
// Mutate, so a reassignment can never persist half-applied.
func (s *Service) UpsertShift(ref models.ShiftRef, upd *Update) error {
	if upd == nil {
		return s.Store.Mutate(func(doc *store.Document) error {
			if !deleteVisible(doc, ref) {
				return fmt.Errorf("%w: %s", ErrNotFound, ref.EventID())
			}
			return nil
		})
	}

	if upd.Entry.IsZero() {
		return fmt.Errorf("empty shift entry for %s", ref.EventID())
	}

	return s.Store.Mutate(func(doc *store.Document) error {
		// A move vacates the old date first; for a pure creation there
		// is nothing visible to vacate.
		removed := deleteVisible(doc, ref)

		owner := upd.EmployeeID
		if owner == "" {
			owner = ref.EmployeeID
		}
		if owner != ref.EmployeeID && !removed {
			// A reassignment needs an existing shift to take over.
			return fmt.Errorf("%w: %s", ErrNotFound, ref.EventID())
		}

		target := upd.Date
		if target == "" {
			target = ref.Date
		}

		for i := len(doc.Snapshots) - 1; i >= 0; i-- {
			if pe := doc.Snapshots[i].Employee(owner); pe != nil {
				if pe.WorkingTimes == nil {
					pe.WorkingTimes = models.WorkingTimes{}
				}
				pe.WorkingTimes[target] = upd.Entry
				return nil
			}
		}

		doc.Snapshots = append(doc.Snapshots, models.PlanSnapshot{
			CreatedAt: time.Now(),
			Employees: []models.PlanEmployee{{
				EmployeeID:   owner,
				WorkingTimes: models.WorkingTimes{target: upd.Entry},
			}},
		})
		return nil
	})
}

// deleteVisible removes the entry currently supplying ref, scanning
// snapshots newest-first so the visible (last-wins) value is the one
// deleted. Reports whether anything was removed.
func deleteVisible(doc *store.Document, ref models.ShiftRef) bool {
	for i := len(doc.Snapshots) - 1; i >= 0; i-- {
		pe := doc.Snapshots[i].Employee(ref.EmployeeID)
		if pe == nil || pe.WorkingTimes == nil {
			continue
		}
		if _, ok := pe.WorkingTimes[ref.Date]; ok {
			delete(pe.WorkingTimes, ref.Date)
			return true
		}
	}
	return false
}

// DeleteRange removes every shift within the inclusive ISO date range
// from every snapshot, optionally restricted to one employee
// (employeeID == "" means all). Returns the number of removed entries.
// The store is persisted once.
func (s *Service) DeleteRange(employeeID, from, to string) (int, error) {
	count := 0
	err := s.Store.Mutate(func(doc *store.Document) error {
		for i := range doc.Snapshots {
			for j := range doc.Snapshots[i].Employees {
				pe := &doc.Snapshots[i].Employees[j]
				if employeeID != "" && pe.EmployeeID != employeeID {
					continue
				}
				for date := range pe.WorkingTimes {
					// ISO dates compare lexicographically in calendar
					// order.
					if date >= from && date <= to {
						delete(pe.WorkingTimes, date)
						count++
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
