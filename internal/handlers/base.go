package handlers

import (
	"net/http"
	"strings"

	"store-service/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// OperatorHeader carries the identity recorded on ledger writes
const OperatorHeader = "X-Operator"

// base holds what every ledger handler shares
type base struct {
	validator       *validator.Validate
	logger          *zap.Logger
	defaultOperator string
}

func newBase(defaultOperator string, logger *zap.Logger) base {
	return base{
		validator:       validator.New(),
		logger:          logger,
		defaultOperator: defaultOperator,
	}
}

func (h *base) logDebug(msg string, fields ...zap.Field) {
	h.logger.Debug("🔍 [DEBUG] "+msg, fields...)
}

func (h *base) logInfo(msg string, fields ...zap.Field) {
	h.logger.Info("ℹ️ "+msg, fields...)
}

func (h *base) logError(msg string, fields ...zap.Field) {
	h.logger.Error("❌ "+msg, fields...)
}

func (h *base) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// operator resolves who performs the call
func (h *base) operator(c *gin.Context) string {
	if op := strings.TrimSpace(c.GetHeader(OperatorHeader)); op != "" {
		return op
	}
	return h.defaultOperator
}

// bind decodes and validates the JSON body into req, answering 400 on failure
func (h *base) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logError("Error binding JSON", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Invalid request body",
			"error":   err.Error(),
		})
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		h.logError("Validation error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Invalid input data",
			"error":   err.Error(),
		})
		return false
	}
	return true
}

// fail answers with the status mapped from err. Internal errors are logged
// and hidden from the client.
func (h *base) fail(c *gin.Context, message string, err error) {
	status := apperror.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logError(message, zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.logInfo(message, zap.String("path", c.FullPath()), zap.Int("status", status), zap.String("reason", err.Error()))
	}
	c.JSON(status, apperror.NewEnvelope("❌ "+message, err))
}

func (h *base) ok(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"message": "✅ " + message,
		"data":    data,
	})
}
