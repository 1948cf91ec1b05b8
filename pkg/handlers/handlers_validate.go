package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mfroehlich/roster-api-go/pkg/models"
	"github.com/mfroehlich/roster-api-go/pkg/solver"
)

// bindPlan reads a plan payload from the request body. Both shapes are
// accepted: a raw snapshot ({"employees": [...]}) and a solver solution
// ({"mitarbeiterList": ..., "arbeitsmusterList": ...}), which is
// flattened first.
func bindPlan(c *gin.Context) (models.PlanSnapshot, error) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		return models.PlanSnapshot{}, err
	}

	if _, ok := raw["employees"]; ok {
		var snap models.PlanSnapshot
		if err := remarshal(raw, &snap); err != nil {
			return models.PlanSnapshot{}, err
		}
		if snap.CreatedAt.IsZero() {
			snap.CreatedAt = time.Now()
		}
		return snap, validateSnapshot(snap)
	}

	var sol solver.Solution
	if err := remarshal(raw, &sol); err != nil {
		return models.PlanSnapshot{}, err
	}
	if len(sol.Employees) == 0 && len(sol.Patterns) == 0 {
		return models.PlanSnapshot{}, errors.New("empty plan payload")
	}
	snap := solver.Snapshot(&sol)
	return snap, validateSnapshot(snap)
}

func remarshal(raw map[string]json.RawMessage, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// validateSnapshot enforces the shape the merge relies on: unique
// employee references, ISO date keys, parseable or empty times.
func validateSnapshot(snap models.PlanSnapshot) error {
	seen := make(map[string]bool)
	for _, pe := range snap.Employees {
		if pe.EmployeeID == "" {
			return errors.New("plan entry without employee id")
		}
		if seen[pe.EmployeeID] {
			return errors.New("duplicate employee id in plan: " + pe.EmployeeID)
		}
		seen[pe.EmployeeID] = true

		for date, entry := range pe.WorkingTimes {
			if _, err := time.Parse(models.ISODate, date); err != nil {
				return errors.New("bad date key in plan: " + date)
			}
			if entry.IsZero() {
				continue
			}
			if _, err := entry.Duration(); err != nil {
				return errors.New("bad shift times on " + date + " for " + pe.EmployeeID)
			}
		}
	}
	return nil
}

// ValidatePlan checks a plan payload without saving it.
func (h *Handler) ValidatePlan(c *gin.Context) {
	snap, err := bindPlan(c)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	shiftCount := 0
	for _, pe := range snap.Employees {
		shiftCount += len(pe.WorkingTimes)
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"employee_count": len(snap.Employees),
			"shift_count":    shiftCount,
		},
	})
}
