package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/santos/internal/entities"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

type AuditController struct {
	reader AuditReader
}

func NewAuditController(reader AuditReader) *AuditController {
	return &AuditController{reader: reader}
}

// GetAuditEvents returns paginated audit events as JSON, newest first.
// GET /api/audit?type=&limit=&offset=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, offset := parsePagination(c, defaultAuditPageSize, maxAuditPageSize)
	eventType := entities.AuditEventType(c.Query("type"))

	events, total, err := ac.reader.GetEvents(c.Request.Context(), eventType, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    nonNil(events),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
