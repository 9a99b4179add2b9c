package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubotadaichi/HealthManagement/internal/errs"
)

type fieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

// writeError maps err onto a status code and a {"detail": ...} body.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	if violations := errs.ValidationErrors(err); len(violations) > 0 {
		fields := make([]fieldError, 0, len(violations))
		for _, v := range violations {
			fields = append(fields, fieldError{Field: v.Field, Constraint: v.Constraint})
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "validation failed", "errors": fields})
		return
	}

	var notFound *errs.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": notFound.Error()})
		return
	}

	var cfgErr *errs.ConfigurationError
	if errors.As(err, &cfgErr) {
		log.Error("Export is not configured", zap.Strings("missing", cfgErr.Missing))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": cfgErr.Error(), "missing": cfgErr.Missing})
		return
	}

	var exportErr *errs.ExportError
	if errors.As(err, &exportErr) {
		log.Error("Export failed", zap.Error(err))
		body := gin.H{"detail": exportErr.Error()}
		if exportErr.Status != 0 {
			body["upstream_status"] = exportErr.Status
		}
		if exportErr.Code != "" {
			body["upstream_code"] = exportErr.Code
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	var storageErr *errs.StorageError
	if errors.As(err, &storageErr) {
		log.Error("Storage failure", zap.Error(err), zap.String("sqlstate", storageErr.Code))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to " + storageErr.Op})
		return
	}

	log.Error("Unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
}

// bindError turns a JSON decoding failure into a ValidationError so that
// malformed bodies are reported the same way as out-of-range fields.
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return errs.NewValidation(field, "type "+typeErr.Type.String())
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return errs.NewValidation("body", "valid JSON")
	case errors.Is(err, io.EOF):
		return errs.NewValidation("body", "required")
	default:
		return errs.NewValidation("body", err.Error())
	}
}
