// Package importer reads the Factorial HR absence export (xlsx) and
// turns its text cells into absence records. The format is undocumented
// and localized, so this is a best-effort classifier: rows it cannot
// attribute to a roster employee are reported, never fatal.
package importer

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mfroehlich/roster-api-go/pkg/models"
)

var monthNames = map[string]string{
	"januar": "01", "februar": "02", "märz": "03", "april": "04",
	"mai": "05", "juni": "06", "juli": "07", "august": "08",
	"september": "09", "oktober": "10", "november": "11", "dezember": "12",
}

var (
	yearRe     = regexp.MustCompile(`(\d{4})`)
	monthRe    = regexp.MustCompile(`Zwischen (\p{L}+)`)
	firstDayRe = regexp.MustCompile(`^\p{L}{2} 1$`)
)

// Result is a parsed Factorial export.
type Result struct {
	Absences []models.AbsenceRecord
	// Month is "YYYY-MM", taken from the file's title row.
	Month string
	// SkippedNames lists employees named in the file but missing from
	// the roster.
	SkippedNames []string
}

// ParseFactorial reads the first sheet of a Factorial absence export.
// The title row names the month ("Zwischen August 1, 2025 ..."); a
// later header row carries day labels ("Fr 1", "Sa 2", ...); below it,
// one row per employee with free-text cells on absent days.
func ParseFactorial(r io.Reader, roster []models.Employee) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	title := strings.Join(rows[0], " ")
	yearMatch := yearRe.FindStringSubmatch(title)
	monthMatch := monthRe.FindStringSubmatch(title)
	if yearMatch == nil || monthMatch == nil {
		return nil, fmt.Errorf("could not find month and year in title row %q", title)
	}
	year := yearMatch[1]
	month, ok := monthNames[strings.ToLower(monthMatch[1])]
	if !ok {
		return nil, fmt.Errorf("unknown month name %q", monthMatch[1])
	}

	headerIdx := -1
	for i, row := range rows {
		if len(row) > 1 && firstDayRe.MatchString(strings.TrimSpace(row[1])) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("day header row not found")
	}
	dayHeaders := rows[headerIdx]

	byName := make(map[string]models.Employee, len(roster))
	for _, emp := range roster {
		byName[emp.FullName()] = emp
	}

	res := &Result{Month: year + "-" + month}
	seenSkipped := make(map[string]bool)

	for _, row := range rows[headerIdx+1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		fullName := strings.TrimSpace(row[0])
		emp, ok := byName[fullName]
		if !ok {
			if !seenSkipped[fullName] {
				seenSkipped[fullName] = true
				res.SkippedNames = append(res.SkippedNames, fullName)
			}
			continue
		}

		for i := 1; i < len(row) && i < len(dayHeaders); i++ {
			cell := strings.TrimSpace(row[i])
			if !isAbsenceCell(cell) {
				continue
			}
			parts := strings.Fields(dayHeaders[i])
			if len(parts) != 2 {
				continue
			}
			day, err := strconv.Atoi(parts[1])
			if err != nil {
				continue
			}
			iso := fmt.Sprintf("%s-%s-%02d", year, month, day)
			res.Absences = append(res.Absences, models.AbsenceRecord{
				ID:         "imp_" + emp.ID + "_" + iso,
				EmployeeID: emp.ID,
				From:       iso,
				To:         iso,
				Kind:       classify(cell),
				Note:       "Importiert aus Factorial: " + cell,
			})
		}
	}
	return res, nil
}

// isAbsenceCell keeps text cells only: numbers are hour totals and
// anything with a colon is a worked time, not an absence.
func isAbsenceCell(cell string) bool {
	if cell == "" || strings.Contains(cell, ":") {
		return false
	}
	if _, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64); err == nil {
		return false
	}
	return true
}

func classify(cell string) string {
	lower := strings.ToLower(cell)
	switch {
	case strings.Contains(lower, "urlaub"):
		return models.AbsenceVacation
	case strings.Contains(lower, "elternzeit"):
		return models.AbsenceParentalLeave
	default:
		return models.AbsenceOther
	}
}
