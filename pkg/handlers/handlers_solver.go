package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mfroehlich/roster-api-go/pkg/models"
	"github.com/mfroehlich/roster-api-go/pkg/solver"
)

// StartSolve bundles the roster, wishes, absences and preflight
// patterns into a planning request and submits it to the external
// solver. The response carries the job ID to poll.
func (h *Handler) StartSolve(c *gin.Context) {
	var body struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, d := range []string{body.From, body.To} {
		if _, err := time.Parse(models.ISODate, d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be YYYY-MM-DD"})
			return
		}
	}

	roster, err := h.roster()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load employees"})
		return
	}

	var wishes, preflights []models.Wish
	h.DB.Where("type <> ?", models.WishPreflight).Find(&wishes)
	h.DB.Where("type = ?", models.WishPreflight).Find(&preflights)

	jobID, err := h.Solver.Solve(c.Request.Context(), solver.Request{
		From:       body.From,
		To:         body.To,
		Employees:  roster,
		Wishes:     wishes,
		Absences:   h.Store.Absences(),
		Preflights: preflights,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"problemId": jobID})
}

// SolveResult polls one solver job. While the solver is still running
// the status is 202; a finished job returns the solution, which the
// client saves via POST /api/plans once accepted.
func (h *Handler) SolveResult(c *gin.Context) {
	status, err := h.Solver.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if status.Running {
		c.JSON(http.StatusAccepted, gin.H{"status": "running"})
		return
	}
	c.JSON(http.StatusOK, status.Solution)
}
