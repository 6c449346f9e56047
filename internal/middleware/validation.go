package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apierrors "opsdash/internal/errors"
	apiv1 "opsdash/pkg/contracts/api/v1"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// QueryValidator validates decoded query structs using struct tags
type QueryValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewQueryValidator creates a validator with the API's custom rules registered
func NewQueryValidator(logger *slog.Logger) *QueryValidator {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New(validator.WithRequiredStructEnabled())

	// Register custom validators
	_ = v.RegisterValidation("slug", isSlug)
	v.RegisterStructValidation(dateRangeOrder, apiv1.DateRangeRequest{})

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &QueryValidator{
		validator: v,
		logger:    logger.With(slog.String("component", "query_validator")),
	}
}

// ValidateStruct validates a struct and returns an *apierrors.APIError
// listing every failing field
func (m *QueryValidator) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// AnalysisRequest decodes and validates the query of an analysis endpoint
func (m *QueryValidator) AnalysisRequest(r *http.Request) (apiv1.AnalysisRequest, error) {
	req := apiv1.NewAnalysisRequest(r.URL.Query())
	if err := m.ValidateStruct(req); err != nil {
		m.logger.DebugContext(r.Context(), "analysis query rejected",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()),
		)
		return req, err
	}
	return req, nil
}

// RecordsRequest decodes and validates the query of a raw dataset endpoint
func (m *QueryValidator) RecordsRequest(r *http.Request) (apiv1.RecordsRequest, error) {
	req, err := apiv1.NewRecordsRequest(r.URL.Query())
	if err != nil {
		var qe *apiv1.QueryError
		if errors.As(err, &qe) {
			return req, apierrors.ErrValidation(qe.Param, qe.Error())
		}
		return req, apierrors.InvalidRequestWithError(err)
	}
	if err := m.ValidateStruct(req); err != nil {
		m.logger.DebugContext(r.Context(), "records query rejected",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()),
		)
		return req, err
	}
	return req, nil
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	tag := err.Tag()
	param := err.Param()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "slug":
		return fmt.Sprintf("%s may only contain letters, digits and dashes", field)
	case "daterange":
		return fmt.Sprintf("%s must not be before from", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}

// isSlug validates station and zone identifiers such as "Station-01"
func isSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

// dateRangeOrder rejects ranges whose end precedes their start. Format
// errors are reported by the field tags, so unparsable values are skipped.
func dateRangeOrder(sl validator.StructLevel) {
	dr, ok := sl.Current().Interface().(apiv1.DateRangeRequest)
	if !ok || dr.From == "" || dr.To == "" {
		return
	}
	from, err := time.Parse(apiv1.DateLayout, dr.From)
	if err != nil {
		return
	}
	to, err := time.Parse(apiv1.DateLayout, dr.To)
	if err != nil {
		return
	}
	if to.Before(from) {
		sl.ReportError(dr.To, "to", "To", "daterange", "")
	}
}
