package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-table-orderflow/internal/catalog"
)

// GET /menu?category=
func (a *api) getMenu(c *gin.Context) {
	items := a.cfg.Menu.Items()
	if cat := c.Query("category"); cat != "" {
		items = a.cfg.Menu.ByCategory(cat)
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": a.cfg.Menu.Categories(),
		"items":      items,
	})
}

// GET /tables/:tableId
func (a *api) getTable(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.LookupTable(c.Param("tableId")))
}
