package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mfroehlich/roster-api-go/pkg/auth"
	"github.com/mfroehlich/roster-api-go/pkg/database"
	"github.com/mfroehlich/roster-api-go/pkg/handlers"
	"github.com/mfroehlich/roster-api-go/pkg/solver"
	"github.com/mfroehlich/roster-api-go/pkg/store"
)

func main() {
	// Load .env if it exists
	// Try root and parent directories for flexibility
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.InitDB()
	_ = auth.EnsureAdminExists(db)

	storePath := os.Getenv("STORE_PATH")
	if storePath == "" {
		storePath = "db.json"
	}
	st, err := store.Open(storePath)
	if err != nil {
		log.Fatalf("could not open snapshot store: %v", err)
	}

	solverURL := os.Getenv("SOLVER_URL")
	if solverURL == "" {
		solverURL = "http://localhost:8080"
	}

	h := handlers.New(db, st, solver.New(solverURL))

	r := gin.Default()

	// Routes
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Shift Roster API",
			"version": "1.0.0",
		})
	})

	r.POST("/admin/login", h.Login)

	api := r.Group("/api")
	{
		api.GET("/schedule", h.GetSchedule)
		api.GET("/calendar", h.GetCalendar)
		api.GET("/export.csv", h.ExportCSV)

		api.POST("/plans", h.SavePlan)
		api.POST("/validate", h.ValidatePlan)

		api.POST("/shifts", h.CreateShift)
		api.PUT("/shifts/:id", h.UpdateShift)
		api.DELETE("/shifts/:id", h.DeleteShift)

		api.GET("/absences", h.ListAbsences)
		api.POST("/absences", h.CreateAbsence)
		api.DELETE("/absences/:id", h.DeleteAbsence)

		api.GET("/employees", h.ListEmployees)

		api.GET("/wishes", h.ListWishes)
		api.GET("/wishes/:employeeId", h.GetEmployeeWishes)
		api.PUT("/wishes/:employeeId", h.PutEmployeeWishes)
		api.GET("/preflight/:employeeId/:month", h.GetPreflight)
		api.POST("/preflight", h.SavePreflight)

		api.POST("/solve", h.StartSolve)
		api.GET("/solve/:id", h.SolveResult)
	}

	// Destructive operations require an admin token.
	protected := r.Group("/api")
	protected.Use(h.AuthMiddleware())
	{
		protected.DELETE("/schedule", h.DeleteScheduleRange)
		protected.POST("/import", h.ImportCSV)
		protected.POST("/absences/import", h.ImportAbsences)

		protected.POST("/employees", h.CreateEmployee)
		protected.PUT("/employees/:id", h.UpdateEmployee)
		protected.DELETE("/employees/:id", h.DeleteEmployee)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
