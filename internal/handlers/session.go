package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubotadaichi/HealthManagement/internal/models"
)

// SessionCompleter stores a full battery run.
type SessionCompleter interface {
	Complete(ctx context.Context, req *models.SessionRequest) (*models.SessionResult, error)
}

type SessionHandler struct {
	log      *zap.Logger
	sessions SessionCompleter
}

func NewSessionHandler(log *zap.Logger, sessions SessionCompleter) *SessionHandler {
	return &SessionHandler{log: log, sessions: sessions}
}

// CreateSession handles POST /api/tasks/all.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}

	result, err := h.sessions.Complete(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
