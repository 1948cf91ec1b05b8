// Package table converts aggregated schedules to and from the
// semicolon-delimited spreadsheet format: a fixed block of employee
// attribute columns followed by one "DD.MM. Von"/"DD.MM. Bis" column
// pair per date, under two header rows.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mfroehlich/roster-api-go/pkg/models"
)

// ErrSchemaMismatch is returned when the header rows cannot be paired
// into Von/Bis date columns. Unlike row errors it is fatal for the
// whole file, since column meaning is unrecoverable.
var ErrSchemaMismatch = errors.New("table schema mismatch")

// attributeHeaders is the fixed prefix of employee columns. Date
// columns follow and vary per export; their position is always derived
// from the header text, never from a fixed offset.
var attributeHeaders = []string{
	"NutzerID", "Nachname", "Vorname", "E-Mail", "Stellenbezeichnung",
	"Ressort", "CVD", "Qualifikationen", "Teams", "Notizen",
	"Wochenstunden", "MonatsSumme", "Delta",
}

const (
	vonSuffix = " Von"
	bisSuffix = " Bis"
)

// Options controls encoding and decoding.
type Options struct {
	// Weeks is the number of weeks in the export period, used for the
	// delta-vs-contract column. It is caller-supplied, not inferred
	// from the data. Zero means 4.
	Weeks float64
	// DecimalPoint switches numeric output from the spreadsheet
	// locale's comma to a dot.
	DecimalPoint bool
	// Year completes the year-less "DD.MM." date labels on decode.
	// Zero means the current year.
	Year int
}

func (o Options) weeks() float64 {
	if o.Weeks <= 0 {
		return 4
	}
	return o.Weeks
}

func (o Options) year() int {
	if o.Year == 0 {
		return time.Now().Year()
	}
	return o.Year
}

// displayDate renders an ISO date as the "DD.MM." column label.
func displayDate(iso string) string {
	parts := strings.Split(iso, "-")
	if len(parts) != 3 {
		return iso
	}
	return parts[2] + "." + parts[1] + "."
}

// isoDate converts a "DD.MM." label back to an ISO date in the given
// year.
func isoDate(label string, year int) (string, error) {
	parts := strings.Split(strings.TrimSuffix(label, "."), ".")
	if len(parts) != 2 {
		return "", fmt.Errorf("bad date label %q", label)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", fmt.Errorf("bad date label %q", label)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return "", fmt.Errorf("bad date label %q", label)
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (o Options) formatHours(h float64) string {
	s := strconv.FormatFloat(h, 'f', 2, 64)
	if !o.DecimalPoint {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

// Encode renders the schedule as table text. Rows are ordered by
// employee ID; dates ascend chronologically. Every field is quoted,
// with embedded quotes doubled. encoding/csv is not used here because
// it cannot force quoting of every field, which the consuming
// spreadsheet templates expect.
func Encode(schedule models.Schedule, opts Options) string {
	dates := schedule.Dates()

	var b strings.Builder

	// Header row 1: attribute names, then the date label over each Von
	// column with a blank over its Bis half.
	row1 := make([]string, 0, len(attributeHeaders)+2*len(dates))
	row2 := make([]string, 0, len(attributeHeaders)+2*len(dates))
	row1 = append(row1, attributeHeaders...)
	row2 = append(row2, attributeHeaders...)
	for _, d := range dates {
		label := displayDate(d)
		row1 = append(row1, label, "")
		row2 = append(row2, label+vonSuffix, label+bisSuffix)
	}
	writeRow(&b, row1)
	writeRow(&b, row2)

	ids := make([]string, 0, len(schedule))
	for id := range schedule {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		es := schedule[id]
		emp := es.Employee

		total := periodHours(es.WorkingTimes)
		delta := total - float64(emp.WeeklyHours)*opts.weeks()

		row := []string{
			emp.ID,
			emp.LastName,
			emp.FirstName,
			emp.Email,
			emp.Title,
			emp.Department,
			strconv.FormatBool(emp.CVD),
			strings.Join(emp.Qualifications, ", "),
			strings.Join(emp.Teams, ", "),
			emp.Notes,
			strconv.Itoa(emp.WeeklyHours),
			opts.formatHours(total),
			opts.formatHours(delta),
		}
		for _, d := range dates {
			entry := es.WorkingTimes[d]
			row = append(row, entry.Start, entry.End)
		}
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(quote(f))
	}
	b.WriteByte('\n')
}

// periodHours sums the shift durations in hours. Entries with
// unparseable times contribute nothing; they are reported at decode
// time, not here.
func periodHours(wt models.WorkingTimes) float64 {
	var total time.Duration
	for _, entry := range wt {
		d, err := entry.Duration()
		if err != nil {
			continue
		}
		total += d
	}
	return total.Hours()
}

// RowError describes one skipped data row.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Result is a decoded table: the parsed schedule plus the rows that
// could not be parsed. One bad row never fails the whole decode.
type Result struct {
	Schedule models.Schedule
	Dates    []string
	Imported int
	Skipped  []RowError
}

// datePair is one Von/Bis column pair, located by header text.
type datePair struct {
	iso      string
	von, bis int
}

// Decode parses table text. Date columns are derived by scanning the
// second header row for the " Von" suffix and pairing each with the
// immediately following " Bis" column; attribute columns are likewise
// looked up by name, so a changed column count cannot silently shift
// the date block.
func Decode(r io.Reader, opts Options) (*Result, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: need two header rows, got %d rows", ErrSchemaMismatch, len(records))
	}
	if len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}

	header := records[1]
	cols := make(map[string]int, len(header))
	pairedBis := make(map[int]bool)
	var pairs []datePair
	for i, name := range header {
		name = strings.TrimSpace(name)
		switch {
		case strings.HasSuffix(name, vonSuffix):
			label := strings.TrimSuffix(name, vonSuffix)
			iso, err := isoDate(label, opts.year())
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
			}
			if i+1 >= len(header) || strings.TrimSpace(header[i+1]) != label+bisSuffix {
				return nil, fmt.Errorf("%w: column %q has no %q partner", ErrSchemaMismatch, name, label+bisSuffix)
			}
			pairedBis[i+1] = true
			pairs = append(pairs, datePair{iso: iso, von: i, bis: i + 1})
		case strings.HasSuffix(name, bisSuffix):
			if !pairedBis[i] {
				label := strings.TrimSuffix(name, bisSuffix)
				return nil, fmt.Errorf("%w: column %q has no preceding %q partner", ErrSchemaMismatch, name, label+vonSuffix)
			}
		default:
			cols[name] = i
		}
	}
	idCol, ok := cols["NutzerID"]
	if !ok {
		return nil, fmt.Errorf("%w: missing NutzerID column", ErrSchemaMismatch)
	}

	res := &Result{Schedule: models.Schedule{}}
	for _, p := range pairs {
		res.Dates = append(res.Dates, p.iso)
	}
	sort.Strings(res.Dates)

	field := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	for n, row := range records[2:] {
		line := n + 3

		if len(row) != len(header) {
			res.Skipped = append(res.Skipped, RowError{line, fmt.Sprintf("expected %d columns, got %d", len(header), len(row))})
			continue
		}
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			res.Skipped = append(res.Skipped, RowError{line, "missing employee id"})
			continue
		}
		if _, dup := res.Schedule[id]; dup {
			res.Skipped = append(res.Skipped, RowError{line, "duplicate employee id " + id})
			continue
		}

		weekly, _ := strconv.Atoi(field(row, "Wochenstunden"))
		es := &models.EmployeeSchedule{
			Employee: models.Employee{
				ID:             id,
				LastName:       field(row, "Nachname"),
				FirstName:      field(row, "Vorname"),
				Email:          field(row, "E-Mail"),
				Title:          field(row, "Stellenbezeichnung"),
				Department:     field(row, "Ressort"),
				CVD:            field(row, "CVD") == "true",
				Qualifications: splitList(field(row, "Qualifikationen")),
				Teams:          splitList(field(row, "Teams")),
				Notes:          field(row, "Notizen"),
				WeeklyHours:    weekly,
			},
			WorkingTimes: models.WorkingTimes{},
		}
		for _, p := range pairs {
			entry := models.ShiftEntry{
				Start: strings.TrimSpace(row[p.von]),
				End:   strings.TrimSpace(row[p.bis]),
			}
			if entry.IsZero() {
				continue
			}
			es.WorkingTimes[p.iso] = entry
		}
		res.Schedule[id] = es
		res.Imported++
	}
	return res, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
