package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfroehlich/roster-api-go/pkg/models"
)

// ListEmployees returns the employee roster.
func (h *Handler) ListEmployees(c *gin.Context) {
	emps, err := h.roster()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load employees"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": emps})
}

// CreateEmployee adds a roster member. An ID is generated when the
// client does not supply one.
func (h *Handler) CreateEmployee(c *gin.Context) {
	var emp models.Employee
	if err := c.ShouldBindJSON(&emp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if emp.LastName == "" && emp.FirstName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a name is required"})
		return
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}

	if err := h.DB.Create(&emp).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create employee"})
		return
	}
	c.JSON(http.StatusCreated, emp)
}

// UpdateEmployee merges the request body into an existing employee.
func (h *Handler) UpdateEmployee(c *gin.Context) {
	id := c.Param("id")

	var existing models.Employee
	if err := h.DB.First(&existing, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Binding into the loaded record keeps fields the body omits.
	if err := c.ShouldBindJSON(&existing); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	existing.ID = id

	if err := h.DB.Save(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update employee"})
		return
	}
	c.JSON(http.StatusOK, existing)
}

// DeleteEmployee removes a roster member. Snapshots referencing the ID
// are left alone; the merge shows such employees with bare identity.
func (h *Handler) DeleteEmployee(c *gin.Context) {
	res := h.DB.Delete(&models.Employee{}, "id = ?", c.Param("id"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete employee"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Employee deleted"})
}
