package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/caremesh/complex-api/pkg/errors"
	"github.com/caremesh/complex-api/pkg/i18n"
)

type Response struct {
	Status  string      `json:"status"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes err as a JSON error response, localizing the message
// from the request's Accept-Language header when the error carries a known
// code. Validation errors keep their field-level detail untranslated.
func RespondError(c *gin.Context, formatter *i18n.Formatter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}

	message := appErr.Message
	if formatter != nil && appErr.Kind != apperrors.KindValidation {
		message = formatter.Localize(c.GetHeader("Accept-Language"), appErr.Code, appErr.Message)
	}

	c.JSON(appErr.StatusCode(), &Response{
		Status:  "error",
		Code:    string(appErr.Code),
		Message: message,
	})
}
