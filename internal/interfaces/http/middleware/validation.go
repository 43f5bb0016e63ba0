package middleware

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/application/validation"
	"github.com/isow/backend/internal/interfaces/http/dto"
)

// SetupValidator makes gin's binding validator report JSON field names
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// FormatValidationErrors turns field errors into a validation response
// with a localized headline
func FormatValidationErrors(c *gin.Context, errs validation.Errors) dto.Response {
	details := make([]dto.ValidationDetail, 0, len(errs))
	for _, fe := range errs {
		details = append(details, dto.ValidationDetail{Field: fe.Field, Message: fe.Message})
	}
	return dto.NewValidationErrorResponse(
		i18n.T(GetLanguage(c), i18n.MsgValidationFailed),
		getRequestID(c),
		details,
	)
}

// HandleValidationError writes a 400 with the field errors
func HandleValidationError(c *gin.Context, errs validation.Errors) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(c, errs))
}
