package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/santos/internal/auth"
	"github.com/mrlokans/santos/internal/catalog"
	"github.com/mrlokans/santos/internal/entities"
)

const (
	maxSaintBodyBytes = 1 << 20
	maxBatchBodyBytes = 16 << 20
)

type SaintsController struct {
	catalog Catalog
	auditor SaintAuditor
	writes  WriteCounter
}

// NewSaintsController creates the saints controller. auditor and writes may be nil.
func NewSaintsController(catalog Catalog, auditor SaintAuditor, writes WriteCounter) *SaintsController {
	return &SaintsController{
		catalog: catalog,
		auditor: auditor,
		writes:  writes,
	}
}

// RegisterRoutes mounts the /santos routes. Writes other than the batch
// import require a bearer token.
func (sc *SaintsController) RegisterRoutes(api *gin.RouterGroup, middleware *auth.Middleware) {
	santos := api.Group("/santos")
	santos.GET("", sc.List)
	santos.GET("/:id", sc.Get)
	santos.GET("/categoria/:categoriaId", sc.ListByCategory)
	santos.GET("/busca/:termo", sc.Search)
	santos.POST("/lote", middleware.OptionalAuth(), sc.CreateBatch)

	protected := santos.Group("", middleware.RequireAuth())
	protected.POST("", sc.Create)
	protected.PUT("/:id", sc.Update)
	protected.DELETE("/:id", sc.Delete)
}

// List handles GET /api/santos.
func (sc *SaintsController) List(c *gin.Context) {
	saints, err := sc.catalog.ListAll(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list saints")
		return
	}
	c.JSON(http.StatusOK, nonNil(saints))
}

// Get handles GET /api/santos/:id.
func (sc *SaintsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	saint, err := sc.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		sc.respondCatalogError(c, err, "get saint")
		return
	}
	c.JSON(http.StatusOK, saint)
}

// ListByCategory handles GET /api/santos/categoria/:categoriaId.
func (sc *SaintsController) ListByCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "categoriaId")
	if !ok {
		return
	}

	saints, err := sc.catalog.ListByCategory(c.Request.Context(), categoryID)
	if err != nil {
		respondInternalError(c, err, "list saints by category")
		return
	}
	c.JSON(http.StatusOK, nonNil(saints))
}

// Search handles GET /api/santos/busca/:termo.
func (sc *SaintsController) Search(c *gin.Context) {
	saints, err := sc.catalog.Search(c.Request.Context(), c.Param("termo"))
	if err != nil {
		respondInternalError(c, err, "search saints")
		return
	}
	c.JSON(http.StatusOK, nonNil(saints))
}

// CreateBatch handles POST /api/santos/lote.
func (sc *SaintsController) CreateBatch(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBatchBodyBytes)

	var batch []entities.Saint
	if err := c.ShouldBindJSON(&batch); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	count, err := sc.catalog.CreateBatch(c.Request.Context(), batch)
	if err != nil {
		if !errors.Is(err, catalog.ErrEmptyBatch) {
			sc.logImport(c, 0, err)
		}
		sc.respondCatalogError(c, err, "create saint batch")
		return
	}

	sc.logImport(c, count, nil)
	sc.countWrites("batch", count)
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d saints registered successfully", count),
		"count":   count,
	})
}

// Create handles POST /api/santos.
func (sc *SaintsController) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSaintBodyBytes)

	var saint entities.Saint
	if err := c.ShouldBindJSON(&saint); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	created, err := sc.catalog.Create(c.Request.Context(), &saint)
	if err != nil {
		sc.logSaint(c, entities.AuditEventCreate, 0, saint.Name, err)
		sc.respondCatalogError(c, err, "create saint")
		return
	}

	sc.logSaint(c, entities.AuditEventCreate, created.ID, created.Name, nil)
	sc.countWrites("create", 1)
	c.Header("Location", fmt.Sprintf("/api/santos/%d", created.ID))
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT /api/santos/:id.
func (sc *SaintsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSaintBodyBytes)

	var saint entities.Saint
	if err := c.ShouldBindJSON(&saint); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if err := sc.catalog.Update(c.Request.Context(), id, &saint); err != nil {
		if !errors.Is(err, catalog.ErrIDMismatch) {
			sc.logSaint(c, entities.AuditEventUpdate, id, saint.Name, err)
		}
		sc.respondCatalogError(c, err, "update saint")
		return
	}

	sc.logSaint(c, entities.AuditEventUpdate, id, saint.Name, nil)
	sc.countWrites("update", 1)
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/santos/:id.
func (sc *SaintsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := sc.catalog.Delete(c.Request.Context(), id); err != nil {
		sc.logSaint(c, entities.AuditEventDelete, id, "", err)
		sc.respondCatalogError(c, err, "delete saint")
		return
	}

	sc.logSaint(c, entities.AuditEventDelete, id, "", nil)
	sc.countWrites("delete", 1)
	c.Status(http.StatusNoContent)
}

func (sc *SaintsController) respondCatalogError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, catalog.ErrSaintNotFound):
		respondNotFound(c, "saint")
	case errors.Is(err, catalog.ErrEmptyBatch):
		respondValidationError(c, "empty_batch", err.Error())
	case errors.Is(err, catalog.ErrIDMismatch):
		respondValidationError(c, "id_mismatch", err.Error())
	case errors.Is(err, catalog.ErrUnknownCategory):
		respondValidationError(c, "unknown_category", err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

func (sc *SaintsController) logSaint(c *gin.Context, eventType entities.AuditEventType, id uint, name string, err error) {
	if sc.auditor != nil {
		sc.auditor.LogSaint(auth.GetEmail(c), eventType, id, name, err)
	}
}

func (sc *SaintsController) logImport(c *gin.Context, count int, err error) {
	if sc.auditor != nil {
		sc.auditor.LogImport(auth.GetEmail(c), "api", count, err)
	}
}

func (sc *SaintsController) countWrites(operation string, n int) {
	if sc.writes != nil {
		sc.writes.AddSaintWrites(operation, n)
	}
}

// nonNil keeps empty lists serialized as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
