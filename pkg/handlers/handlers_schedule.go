package handlers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mfroehlich/roster-api-go/pkg/absence"
	"github.com/mfroehlich/roster-api-go/pkg/models"
	"github.com/mfroehlich/roster-api-go/pkg/plan"
)

// GetSchedule returns the aggregated schedule, re-derived from the
// snapshot store on every call.
func (h *Handler) GetSchedule(c *gin.Context) {
	roster, err := h.roster()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load employees"})
		return
	}

	schedule := h.Plans.Aggregate(roster)

	out := make([]*models.EmployeeSchedule, 0, len(schedule))
	for _, es := range schedule {
		out = append(out, es)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Employee.ID < out[j].Employee.ID })

	c.JSON(http.StatusOK, gin.H{"employees": out, "dates": schedule.Dates()})
}

// GetCalendar returns per-day shift and absence events for a date
// range. Absences overlay the schedule at presentation time only.
func (h *Handler) GetCalendar(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")

	roster, err := h.roster()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load employees"})
		return
	}

	schedule := h.Plans.Aggregate(roster)
	events := absence.Calendar(schedule, h.Store.Absences(), from, to)
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// shiftBody is the edit payload shared by shift create and update.
type shiftBody struct {
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

func (b shiftBody) validate() error {
	if b.EmployeeID == "" {
		return errors.New("employeeId is required")
	}
	if _, err := time.Parse(models.ISODate, b.Date); err != nil {
		return errors.New("date must be YYYY-MM-DD")
	}
	for _, t := range []string{b.Start, b.End} {
		if _, err := time.Parse(models.ClockTime, t); err != nil {
			return errors.New("start and end must be HH:MM")
		}
	}
	return nil
}

// CreateShift writes a single shift into the employee's newest
// snapshot, appending a minimal snapshot if the employee has none.
func (h *Handler) CreateShift(c *gin.Context) {
	var body shiftBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := body.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref := models.ShiftRef{EmployeeID: body.EmployeeID, Date: body.Date}
	upd := &plan.Update{Date: body.Date, Entry: models.ShiftEntry{Start: body.Start, End: body.End}}
	if err := h.Plans.UpsertShift(ref, upd); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Shift created", "id": ref.EventID()})
}

// UpdateShift moves or rewrites the shift addressed by the event ID.
// The date, the times and even the employee may change (a drag to
// another row); the edit lands in the newest snapshot so later merges
// keep it visible.
func (h *Handler) UpdateShift(c *gin.Context) {
	ref, err := models.ParseShiftRef(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body shiftBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.EmployeeID == "" {
		body.EmployeeID = ref.EmployeeID
	}
	if body.Date == "" {
		body.Date = ref.Date
	}
	if err := body.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := &plan.Update{
		EmployeeID: body.EmployeeID,
		Date:       body.Date,
		Entry:      models.ShiftEntry{Start: body.Start, End: body.End},
	}
	if err := h.Plans.UpsertShift(ref, upd); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, plan.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Shift updated",
		"id":      models.ShiftRef{EmployeeID: body.EmployeeID, Date: body.Date}.EventID(),
	})
}

// DeleteShift removes the visible shift addressed by the event ID from
// the snapshot that currently supplies it.
func (h *Handler) DeleteShift(c *gin.Context) {
	ref, err := models.ParseShiftRef(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Plans.UpsertShift(ref, nil); err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No shift to delete at " + ref.EventID()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift deleted"})
}

// DeleteScheduleRange clears all shifts in an inclusive date range,
// optionally for a single employee.
func (h *Handler) DeleteScheduleRange(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	employeeID := c.Query("employee")

	for _, d := range []string{from, to} {
		if _, err := time.Parse(models.ISODate, d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be YYYY-MM-DD"})
			return
		}
	}

	count, err := h.Plans.DeleteRange(employeeID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shifts deleted", "deleted": count})
}

// SavePlan accepts a solver solution (or hand-entered plan in the same
// shape) and appends it to the store as the newest snapshot.
func (h *Handler) SavePlan(c *gin.Context) {
	snap, err := bindPlan(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Append(snap); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Plan saved", "employees": len(snap.Employees)})
}
