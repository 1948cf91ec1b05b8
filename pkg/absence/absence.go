// Package absence manages the absence overlay: date-range records kept
// next to the plan snapshots but never merged into them. They only
// surface in calendar output.
package absence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mfroehlich/roster-api-go/pkg/models"
	"github.com/mfroehlich/roster-api-go/pkg/store"
)

// ErrNotFound is returned when a removal names an unknown record.
var ErrNotFound = errors.New("absence not found")

// Service provides CRUD over the absence list in the snapshot store
// document.
type Service struct {
	Store *store.Store
}

// List returns absences, optionally filtered by employee.
func (s *Service) List(employeeID string) []models.AbsenceRecord {
	all := s.Store.Absences()
	if employeeID == "" {
		return all
	}
	out := make([]models.AbsenceRecord, 0, len(all))
	for _, a := range all {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	return out
}

// Add validates and stores a new record, assigning its ID.
func (s *Service) Add(rec models.AbsenceRecord) (models.AbsenceRecord, error) {
	if rec.EmployeeID == "" || rec.From == "" || rec.To == "" || rec.Kind == "" {
		return models.AbsenceRecord{}, fmt.Errorf("employeeId, kind, from and to are required")
	}
	for _, d := range []string{rec.From, rec.To} {
		if _, err := time.Parse(models.ISODate, d); err != nil {
			return models.AbsenceRecord{}, fmt.Errorf("bad date %q: %w", d, err)
		}
	}
	if rec.To < rec.From {
		return models.AbsenceRecord{}, fmt.Errorf("absence ends (%s) before it starts (%s)", rec.To, rec.From)
	}
	rec.ID = "abw_" + uuid.NewString()

	err := s.Store.Mutate(func(doc *store.Document) error {
		doc.Absences = append(doc.Absences, rec)
		return nil
	})
	if err != nil {
		return models.AbsenceRecord{}, err
	}
	return rec, nil
}

// Remove deletes the record with the given ID.
func (s *Service) Remove(id string) error {
	return s.Store.Mutate(func(doc *store.Document) error {
		for i, a := range doc.Absences {
			if a.ID == id {
				doc.Absences = append(doc.Absences[:i], doc.Absences[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// ReplaceMonth swaps all imported absences starting in the given
// "YYYY-MM" month for the given records, keeping everything else. Used
// by the spreadsheet import so re-importing a month does not duplicate
// entries.
func (s *Service) ReplaceMonth(month string, recs []models.AbsenceRecord) error {
	return s.Store.Mutate(func(doc *store.Document) error {
		kept := doc.Absences[:0]
		for _, a := range doc.Absences {
			if !strings.HasPrefix(a.From, month) {
				kept = append(kept, a)
			}
		}
		doc.Absences = append(kept, recs...)
		return nil
	})
}

// Event is one calendar cell: a shift or an absence day. A day may
// carry both kinds for the same employee; no mutual exclusion is
// enforced.
type Event struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"`
	Kind       string `json:"kind"`
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	Label      string `json:"label,omitempty"`
}

// Event kinds.
const (
	KindShift   = "shift"
	KindAbsence = "absence"
)

// Calendar expands the schedule's shifts and the absence ranges into
// per-day events within [from, to] (inclusive; empty bounds mean
// unbounded). This is presentation-time merging only; the snapshot
// store is untouched.
func Calendar(schedule models.Schedule, absences []models.AbsenceRecord, from, to string) []Event {
	inRange := func(date string) bool {
		return (from == "" || date >= from) && (to == "" || date <= to)
	}

	var events []Event
	for id, es := range schedule {
		for date, entry := range es.WorkingTimes {
			if !inRange(date) {
				continue
			}
			events = append(events, Event{
				ID:         models.ShiftRef{EmployeeID: id, Date: date}.EventID(),
				EmployeeID: id,
				Date:       date,
				Kind:       KindShift,
				Start:      entry.Start,
				End:        entry.End,
			})
		}
	}

	for _, a := range absences {
		start, err := time.Parse(models.ISODate, a.From)
		if err != nil {
			continue
		}
		end, err := time.Parse(models.ISODate, a.To)
		if err != nil || end.Before(start) {
			continue
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			date := d.Format(models.ISODate)
			if !inRange(date) {
				continue
			}
			events = append(events, Event{
				ID:         a.ID + "_" + date,
				EmployeeID: a.EmployeeID,
				Date:       date,
				Kind:       KindAbsence,
				Label:      a.Kind,
			})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		if events[i].EmployeeID != events[j].EmployeeID {
			return events[i].EmployeeID < events[j].EmployeeID
		}
		return events[i].Kind < events[j].Kind
	})
	return events
}
