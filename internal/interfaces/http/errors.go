package http

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/garyjia/luminate-erp/internal/application/workflow"
	"github.com/garyjia/luminate-erp/internal/apperrors"
	domainwf "github.com/garyjia/luminate-erp/internal/domain/workflow"
)

// writeError maps application errors onto status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	var (
		validationErr *apperrors.ValidationError
		stockErr      *apperrors.InsufficientStockError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, Response{Error: validationErr.Error(), Details: validationErr.Fields})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Error: err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, Response{Error: stockErr.Error(), Details: stockErr.Shortages})
	case errors.Is(err, apperrors.ErrInvoiceTerminal), errors.Is(err, domainwf.ErrInvalidTransition),
		errors.Is(err, workflow.ErrSequenceExhausted):
		c.JSON(http.StatusConflict, Response{Error: err.Error()})
	case errors.Is(err, apperrors.ErrPersistence):
		h.logger.Error("State could not be persisted", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Error: "failed to persist changes"})
	default:
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Error: "internal server error"})
	}
}

// bindingError turns a gin binding failure into a ValidationError
func bindingError(err error) *apperrors.ValidationError {
	verr := &apperrors.ValidationError{}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("body", "malformed JSON body")
		return verr
	}

	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe.Namespace()), tagMessage(fe))
	}
	return verr
}

// useJSONFieldNames makes validator report fields by their json tag
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

var registerTagNames sync.Once

// fieldPath drops the request struct name from a validator namespace
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "failed " + fe.Tag() + " validation"
}
