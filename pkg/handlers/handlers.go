package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mfroehlich/roster-api-go/pkg/absence"
	"github.com/mfroehlich/roster-api-go/pkg/auth"
	"github.com/mfroehlich/roster-api-go/pkg/database"
	"github.com/mfroehlich/roster-api-go/pkg/models"
	"github.com/mfroehlich/roster-api-go/pkg/plan"
	"github.com/mfroehlich/roster-api-go/pkg/solver"
	"github.com/mfroehlich/roster-api-go/pkg/store"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB       *gorm.DB
	Store    *store.Store
	Plans    *plan.Service
	Absences *absence.Service
	Solver   *solver.Client
}

// New wires a handler around the shared store and database.
func New(db *gorm.DB, st *store.Store, solverClient *solver.Client) *Handler {
	return &Handler{
		DB:       db,
		Store:    st,
		Plans:    &plan.Service{Store: st},
		Absences: &absence.Service{Store: st},
		Solver:   solverClient,
	}
}

// AuthMiddleware verifies the JWT token for protected routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Strip "Bearer " if present
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.CreateToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// roster loads all employees from the database.
func (h *Handler) roster() ([]models.Employee, error) {
	var emps []models.Employee
	if err := h.DB.Order("id").Find(&emps).Error; err != nil {
		return nil, err
	}
	return emps, nil
}
