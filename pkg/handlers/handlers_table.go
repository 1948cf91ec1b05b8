package handlers

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"github.com/mfroehlich/roster-api-go/pkg/models"
	"github.com/mfroehlich/roster-api-go/pkg/table"
)

var monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ExportCSV streams the aggregated schedule as a semicolon-delimited
// file. An optional month=YYYY-MM restricts the date columns; weeks=N
// sets the period length the delta column is computed against.
func (h *Handler) ExportCSV(c *gin.Context) {
	opts := table.Options{}
	if w := c.Query("weeks"); w != "" {
		weeks, err := strconv.ParseFloat(w, 64)
		if err != nil || weeks <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "weeks must be a positive number"})
			return
		}
		opts.Weeks = weeks
	}
	opts.DecimalPoint = c.Query("decimal") == "point"

	month := c.Query("month")
	if month != "" && !monthRe.MatchString(month) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
		return
	}

	roster, err := h.roster()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load employees"})
		return
	}

	schedule := h.Plans.Aggregate(roster)
	if month != "" {
		schedule = filterMonth(schedule, month)
	}

	filename := "schichtplan.csv"
	if month != "" {
		filename = "schichtplan_" + month + ".csv"
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	// BOM so spreadsheet applications pick up UTF-8.
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte("\ufeff"+table.Encode(schedule, opts)))
}

// filterMonth keeps only working times whose date falls in the given
// "YYYY-MM" month. Employee rows stay even when all their dates drop.
func filterMonth(schedule models.Schedule, month string) models.Schedule {
	out := make(models.Schedule, len(schedule))
	for id, es := range schedule {
		filtered := &models.EmployeeSchedule{
			Employee:     es.Employee,
			WorkingTimes: models.WorkingTimes{},
		}
		for date, entry := range es.WorkingTimes {
			if len(date) >= 7 && date[:7] == month {
				filtered.WorkingTimes[date] = entry
			}
		}
		out[id] = filtered
	}
	return out
}

// ImportCSV accepts an exported table, decodes it and appends the
// result as the newest snapshot, which makes its rows the visible plan
// for every date the file mentions. Bad rows are skipped and reported;
// only an unusable header fails the upload.
func (h *Handler) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	opts := table.Options{}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
			return
		}
		opts.Year = year
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open upload"})
		return
	}
	defer f.Close()

	res, err := table.Decode(f, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, table.ErrSchemaMismatch) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	rosterErrors := 0
	snap := models.PlanSnapshot{CreatedAt: time.Now()}
	for _, id := range sortedIDs(res.Schedule) {
		es := res.Schedule[id]
		snap.Employees = append(snap.Employees, models.PlanEmployee{
			EmployeeID:   id,
			WorkingTimes: es.WorkingTimes,
		})

		// The file carries the full attribute block; keep the roster in
		// step with it. A failed upsert does not fail the import, the
		// snapshot is still the plan of record.
		emp := es.Employee
		if err := h.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&emp).Error; err != nil {
			log.Printf("roster upsert for %s failed: %v", id, err)
			rosterErrors++
		}
	}

	if len(snap.Employees) > 0 {
		if err := h.Store.Append(snap); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"imported":      res.Imported,
		"skipped":       res.Skipped,
		"dates":         res.Dates,
		"roster_errors": rosterErrors,
	})
}

func sortedIDs(schedule models.Schedule) []string {
	ids := make([]string, 0, len(schedule))
	for id := range schedule {
		ids = append(ids, id)
	}
	// Deterministic snapshot order keeps imports reproducible.
	sort.Strings(ids)
	return ids
}
