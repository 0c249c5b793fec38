package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/santos/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
	Counts  map[string]int64  `json:"counts,omitempty"`
}

// RecordCounter reports how many rows a store holds.
type RecordCounter interface {
	Count(ctx context.Context) (int64, error)
}

type HealthController struct {
	db       *database.Database
	version  string
	counters map[string]RecordCounter
}

// NewHealthController reports database connectivity and, once the database
// answers, the row count of every named counter.
func NewHealthController(db *database.Database, version string, counters map[string]RecordCounter) *HealthController {
	return &HealthController{
		db:       db,
		version:  version,
		counters: counters,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"
	var counts map[string]int64

	// Check database connectivity
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
			counts = h.count(c.Request.Context(), checks)
		}
	} else {
		checks["database"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
		Counts:  counts,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

// count fills counts for each counter; a failing counter is reported in
// checks without changing the overall status.
func (h *HealthController) count(ctx context.Context, checks map[string]string) map[string]int64 {
	if len(h.counters) == 0 {
		return nil
	}
	counts := make(map[string]int64, len(h.counters))
	for name, counter := range h.counters {
		n, err := counter.Count(ctx)
		if err != nil {
			checks[name] = "error: " + err.Error()
			continue
		}
		counts[name] = n
	}
	return counts
}

func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
