// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthController serves the liveness endpoint.
type HealthController struct {
	pingDB func() bool
}

// HealthResponse reports API liveness and the database connection state.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// NewHealthController creates a new health controller. pingDB reports whether
// the database currently answers; the endpoint itself stays up either way so
// orchestrators can tell a dead process from a lost database.
func NewHealthController(pingDB func() bool) *HealthController {
	return &HealthController{pingDB: pingDB}
}

// Check handles GET /health requests.
func (h *HealthController) Check(c *gin.Context) {
	database := "disconnected"
	if h.pingDB != nil && h.pingDB() {
		database = "connected"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Database:  database,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
