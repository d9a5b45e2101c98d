package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mattwrdg/snoozydozy/internal/service"
)

const maxImportSize = 10 << 20 // 10 MiB

// GetExport streams the full application state as a JSON document.
func GetExport(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := service.Export(c.Request.Context(), app.Store(), time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to export data")
			return
		}
		c.Header("Content-Disposition", `attachment; filename="snoozydozy-export.json"`)
		c.JSON(200, doc)
	}
}

// PostImport replaces the full application state with an uploaded export
// document. A document that does not parse is rejected without touching
// the store.
func PostImport(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Failed to read body")
			return
		}

		doc, err := service.Import(c.Request.Context(), app.Store(), raw)
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Import rejected")
			return
		}

		refreshReminder(c, app)
		HandleSuccess(c, app.Logger(), nil, map[string]any{
			"imported_entries": len(doc.SleepEntries),
			"export_date":      doc.Metadata.ExportDate,
		})
	}
}
