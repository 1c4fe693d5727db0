package httpapi

import (
	"errors"
	"net/http"

	"guardianpaws/pkg/domain"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the payload of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Status: "success", Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, SuccessResponse{Status: "success", Data: data})
}

func fail(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}

// failWith maps a service error onto a status code and error code.
func failWith(c *gin.Context, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal error"
	}
	fail(c, status, message, code)
}

func classify(err error) (int, string) {
	var violation domain.RuleViolationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusConflict, "DUPLICATE_ACCOUNT"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.As(err, &violation):
		return http.StatusConflict, "RULE_VIOLATION"
	case errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusUnprocessableEntity, "EMPTY_MESSAGE"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
