package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfroehlich/roster-api-go/pkg/models"
)

// ListWishes returns all wishes, or one employee's with a filter.
func (h *Handler) ListWishes(c *gin.Context) {
	var wishes []models.Wish
	q := h.DB.Order("employee_id, date")
	if emp := c.Query("employee"); emp != "" {
		q = q.Where("employee_id = ?", emp)
	}
	if err := q.Find(&wishes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load wishes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishes": wishes})
}

// GetEmployeeWishes returns one employee's wishes.
func (h *Handler) GetEmployeeWishes(c *gin.Context) {
	var wishes []models.Wish
	if err := h.DB.Where("employee_id = ?", c.Param("employeeId")).Order("date").Find(&wishes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load wishes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishes": wishes})
}

// PutEmployeeWishes replaces all wishes of one employee with the given
// set.
func (h *Handler) PutEmployeeWishes(c *gin.Context) {
	employeeID := c.Param("employeeId")

	var incoming []models.Wish
	if err := c.ShouldBindJSON(&incoming); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("employee_id = ?", employeeID).Delete(&models.Wish{}).Error; err != nil {
			return err
		}
		for i := range incoming {
			incoming[i].EmployeeID = employeeID
			if incoming[i].ID == "" {
				incoming[i].ID = uuid.NewString()
			}
			if err := tx.Create(&incoming[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save wishes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wishes saved", "count": len(incoming)})
}

// preflightBody is the monthly pattern payload.
type preflightBody struct {
	EmployeeID string          `json:"employeeId"`
	Date       string          `json:"date"`
	Type       string          `json:"type"`
	Details    json.RawMessage `json:"details"`
}

// GetPreflight returns an employee's preflight pattern for a month
// ("YYYY-MM").
func (h *Handler) GetPreflight(c *gin.Context) {
	employeeID := c.Param("employeeId")
	month := c.Param("month")

	var wish models.Wish
	err := h.DB.
		Where("employee_id = ? AND type = ? AND date LIKE ?", employeeID, models.WishPreflight, month+"%").
		First(&wish).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"details": gin.H{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"details": json.RawMessage(wish.Details)})
}

// SavePreflight stores or replaces an employee's monthly preflight
// pattern. An empty details object deletes the pattern.
func (h *Handler) SavePreflight(c *gin.Context) {
	var body preflightBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.EmployeeID == "" || len(body.Date) < 7 || body.Type != models.WishPreflight {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employeeId, date and type=PREFLIGHT are required"})
		return
	}
	month := body.Date[:7]

	empty := len(body.Details) == 0 || strings.TrimSpace(string(body.Details)) == "{}"
	if empty {
		h.DB.Where("employee_id = ? AND type = ? AND date LIKE ?", body.EmployeeID, models.WishPreflight, month+"%").
			Delete(&models.Wish{})
		c.JSON(http.StatusOK, gin.H{"message": "Preflight pattern cleared"})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("employee_id = ? AND type = ? AND date LIKE ?", body.EmployeeID, models.WishPreflight, month+"%").
			Delete(&models.Wish{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Wish{
			ID:         uuid.NewString(),
			EmployeeID: body.EmployeeID,
			Date:       body.Date,
			Type:       models.WishPreflight,
			Details:    string(body.Details),
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save preflight pattern"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Preflight pattern saved"})
}
