package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mfroehlich/roster-api-go/pkg/absence"
	"github.com/mfroehlich/roster-api-go/pkg/database"
	"github.com/mfroehlich/roster-api-go/pkg/importer"
	"github.com/mfroehlich/roster-api-go/pkg/models"
)

// ListAbsences returns the absence overlay, optionally filtered by
// employee.
func (h *Handler) ListAbsences(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"absences": h.Absences.List(c.Query("employee"))})
}

// CreateAbsence stores one absence record.
func (h *Handler) CreateAbsence(c *gin.Context) {
	var rec models.AbsenceRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.Absences.Add(rec)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// DeleteAbsence removes one absence record by ID.
func (h *Handler) DeleteAbsence(c *gin.Context) {
	if err := h.Absences.Remove(c.Param("id")); err != nil {
		if errors.Is(err, absence.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Absence not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Absence deleted"})
}

// ImportAbsences parses a Factorial export and replaces the imported
// absences of the affected month.
func (h *Handler) ImportAbsences(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	roster, err := h.roster()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load employees"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open upload"})
		return
	}
	defer f.Close()

	res, err := importer.ParseFactorial(f, roster)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Absences.ReplaceMonth(res.Month, res.Absences); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.DB.Create(&database.ImportAudit{
		Filename: fileHeader.Filename,
		Month:    res.Month,
		Imported: len(res.Absences),
		Skipped:  len(res.SkippedNames),
	})

	c.JSON(http.StatusOK, gin.H{
		"imported":      len(res.Absences),
		"month":         res.Month,
		"skipped_names": res.SkippedNames,
	})
}
