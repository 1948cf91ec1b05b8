package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ISODate is the layout for calendar date keys (lexicographic order ==
// chronological order).
const ISODate = "2006-01-02"

// ClockTime is the layout for shift start/end times (local time-of-day).
const ClockTime = "15:04"

// Employee is a roster member. Master data lives in the relational
// database; snapshots reference employees by ID only.
type Employee struct {
	ID             string   `gorm:"primaryKey" json:"id"`
	LastName       string   `json:"lastName"`
	FirstName      string   `json:"firstName"`
	Email          string   `json:"email"`
	Title          string   `json:"title"`
	Department     string   `json:"department"`
	CVD            bool     `json:"cvd"`
	Qualifications []string `gorm:"serializer:json" json:"qualifications"`
	Teams          []string `gorm:"serializer:json" json:"teams"`
	Notes          string   `json:"notes"`
	WeeklyHours    int      `json:"weeklyHours"`
}

// FullName returns "First Last", the form used by third-party absence
// exports to identify employees.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// ShiftEntry is one working time on one day. The date is the map key,
// never part of the entry.
type ShiftEntry struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// IsZero reports whether the entry carries no working time. An absent or
// zero entry means "no shift that day", never a zero-length shift.
func (s ShiftEntry) IsZero() bool {
	return s.Start == "" && s.End == ""
}

// Duration returns the length of the shift. Shifts ending past midnight
// (end before start) wrap into the next day.
func (s ShiftEntry) Duration() (time.Duration, error) {
	if s.IsZero() {
		return 0, nil
	}
	start, err := time.Parse(ClockTime, s.Start)
	if err != nil {
		return 0, fmt.Errorf("bad start time %q: %w", s.Start, err)
	}
	end, err := time.Parse(ClockTime, s.End)
	if err != nil {
		return 0, fmt.Errorf("bad end time %q: %w", s.End, err)
	}
	d := end.Sub(start)
	if d < 0 {
		d += 24 * time.Hour
	}
	return d, nil
}

// WorkingTimes maps ISO dates to shift entries.
type WorkingTimes map[string]ShiftEntry

// PlanEmployee is one employee's slice of a plan snapshot.
type PlanEmployee struct {
	EmployeeID   string       `json:"id"`
	WorkingTimes WorkingTimes `json:"workingTimes"`
}

// PlanSnapshot is one appended plan (a solver result or a hand-entered
// plan). Snapshots are never rewritten wholesale; point edits mutate
// single date keys inside them.
type PlanSnapshot struct {
	CreatedAt time.Time      `json:"createdAt"`
	Employees []PlanEmployee `json:"employees"`
}

// Employee returns the snapshot's entry for the given employee, or nil.
func (p *PlanSnapshot) Employee(id string) *PlanEmployee {
	for i := range p.Employees {
		if p.Employees[i].EmployeeID == id {
			return &p.Employees[i]
		}
	}
	return nil
}

// EmployeeSchedule is one employee's merged view across all snapshots.
type EmployeeSchedule struct {
	Employee     Employee     `json:"employee"`
	WorkingTimes WorkingTimes `json:"workingTimes"`
}

// Schedule is the aggregated schedule, keyed by employee ID. It is
// derived on every read and never persisted.
type Schedule map[string]*EmployeeSchedule

// Dates returns every distinct ISO date present anywhere in the
// schedule, sorted ascending.
func (s Schedule) Dates() []string {
	seen := make(map[string]bool)
	for _, es := range s {
		for date := range es.WorkingTimes {
			seen[date] = true
		}
	}
	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// ShiftRef addresses one cell of the aggregated view.
type ShiftRef struct {
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"`
}

// ParseShiftRef parses the "<employeeID>_<ISO date>" event IDs the
// calendar UI uses. Employee IDs may themselves contain underscores, so
// the split is on the last one.
func ParseShiftRef(eventID string) (ShiftRef, error) {
	i := strings.LastIndex(eventID, "_")
	if i <= 0 || i == len(eventID)-1 {
		return ShiftRef{}, fmt.Errorf("malformed event id %q", eventID)
	}
	ref := ShiftRef{EmployeeID: eventID[:i], Date: eventID[i+1:]}
	if _, err := time.Parse(ISODate, ref.Date); err != nil {
		return ShiftRef{}, fmt.Errorf("malformed event id %q: %w", eventID, err)
	}
	return ref, nil
}

// EventID renders the reference back into the UI's event-id form.
func (r ShiftRef) EventID() string {
	return r.EmployeeID + "_" + r.Date
}

// Absence kinds, stored as-is so existing data files keep working.
const (
	AbsenceVacation      = "URLAUB"
	AbsenceParentalLeave = "ELTERNZEIT"
	AbsenceOther         = "SONSTIGES_FREI"
)

// AbsenceRecord is a date-range absence. Absences are kept next to the
// plans but never merged into them; they only overlay calendar output.
type AbsenceRecord struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	From       string `json:"from"`
	To         string `json:"to"`
	Kind       string `json:"kind"`
	Note       string `json:"note"`
}

// Wish is an employee's scheduling wish for a single date. Details is a
// free-form JSON payload owned by the client.
type Wish struct {
	ID         string `gorm:"primaryKey" json:"id"`
	EmployeeID string `gorm:"index" json:"employeeId"`
	Date       string `json:"date"`
	Type       string `json:"type"`
	Details    string `gorm:"type:text" json:"details"`
}

// WishPreflight marks wishes holding a monthly preflight pattern.
const WishPreflight = "PREFLIGHT"
