package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CategoriesController struct {
	catalog Catalog
}

func NewCategoriesController(catalog Catalog) *CategoriesController {
	return &CategoriesController{catalog: catalog}
}

// List handles GET /api/categorias.
func (cc *CategoriesController) List(c *gin.Context) {
	categories, err := cc.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, nonNil(categories))
}
