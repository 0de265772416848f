package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/kitsbundles/backend/internal/interfaces/http/dto"
)

// SetupValidator configures the validator with custom tags
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Use JSON tag names for field names in errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// HandleBindError writes the response for a failed ShouldBindJSON. Only the first
// failing field is reported.
func HandleBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(dto.MsgBodyTooLarge))
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(ValidationMessage(err)))
}

// ValidationMessage turns a binding error into a single message. Errors other than
// validation failures mean the body could not be decoded.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return dto.MsgInvalidBody
	}
	return fieldMessage(verrs[0])
}

// fieldMessage returns a human-readable validation message
func fieldMessage(e validator.FieldError) string {
	field, elem := e.Field(), false
	if i := strings.IndexByte(field, '['); i >= 0 {
		field, elem = field[:i], true
	}

	switch e.Tag() {
	case "required":
		if elem {
			return field + " must not contain empty ids"
		}
		if k := e.Kind(); k == reflect.Slice || k == reflect.Array {
			return field + " array is required"
		}
		return field + " is required"
	case "min", "gt", "gte":
		if k := e.Kind(); k >= reflect.Int && k <= reflect.Float64 && e.Param() == "1" {
			return field + " must be a positive integer"
		}
		return field + " must be at least " + e.Param()
	case "max", "lt", "lte":
		return field + " must be at most " + e.Param()
	case "unique":
		return field + " must not contain duplicate ids"
	default:
		return field + " is invalid"
	}
}
