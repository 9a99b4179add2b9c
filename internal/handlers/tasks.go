package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubotadaichi/HealthManagement/internal/errs"
	"github.com/kubotadaichi/HealthManagement/internal/repository"
)

// MaxListLimit caps the limit query parameter of list endpoints.
const MaxListLimit = 1000

// TaskHandler serves create, list and get for one task result type.
type TaskHandler[T any, P repository.ResultPtr[T]] struct {
	log   *zap.Logger
	store *repository.Store[T, P]
}

func NewTaskHandler[T any, P repository.ResultPtr[T]](log *zap.Logger, store *repository.Store[T, P]) *TaskHandler[T, P] {
	return &TaskHandler[T, P]{log: log, store: store}
}

// Create validates and stores a single result. The stored record, with its
// server-assigned id and completed_at, is returned.
func (h *TaskHandler[T, P]) Create(c *gin.Context) {
	rec := P(new(T))
	if err := c.ShouldBindJSON(rec); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	if err := rec.Validate(); err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.store.Insert(c.Request.Context(), rec); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *TaskHandler[T, P]) List(c *gin.Context) {
	skip, limit, err := pageParams(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	results, err := h.store.List(c.Request.Context(), skip, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *TaskHandler[T, P]) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		writeError(c, h.log, errs.NewValidation("id", "integer"))
		return
	}
	rec, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func pageParams(c *gin.Context) (skip, limit int, err error) {
	skip, limit = 0, repository.DefaultListLimit
	if raw, ok := c.GetQuery("skip"); ok {
		skip, err = strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return 0, 0, errs.NewValidation("skip", ">= 0")
		}
	}
	if raw, ok := c.GetQuery("limit"); ok {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxListLimit {
			return 0, 0, errs.NewValidation("limit", "between 1 and "+strconv.Itoa(MaxListLimit))
		}
	}
	return skip, limit, nil
}
