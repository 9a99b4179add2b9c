package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubotadaichi/HealthManagement/internal/metrics"
	"github.com/kubotadaichi/HealthManagement/internal/models"
	"github.com/kubotadaichi/HealthManagement/internal/services"
)

// PageCreator submits a session summary to the external recording service.
type PageCreator interface {
	CreatePage(ctx context.Context, summary metrics.SessionSummary) (*services.Page, error)
}

type ExportHandler struct {
	log   *zap.Logger
	pages PageCreator
}

func NewExportHandler(log *zap.Logger, pages PageCreator) *ExportHandler {
	return &ExportHandler{log: log, pages: pages}
}

// SaveToNotion handles POST /api/tasks/notion/save. The submitted results are
// summarized and exported; nothing is written to the result store.
func (h *ExportHandler) SaveToNotion(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, h.log, err)
		return
	}

	summary := metrics.SummarizeSession(&req)
	h.log.Debug("Exporting session summary", zap.Any("summary", summary))

	page, err := h.pages.CreatePage(c.Request.Context(), summary)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"message":        "Saved to Notion",
		"notion_page_id": page.ID,
		"notion_url":     page.URL,
	})
}
