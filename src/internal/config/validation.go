package config

import (
	"fmt"
	"net"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maksimkurb/geoip-allow/src/internal/ranges"
	"github.com/maksimkurb/geoip-allow/src/internal/render"
)

var (
	countryRegexp = regexp.MustCompile(`^[A-Z]{2}$`)
	markerRegexp  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
)

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min", "gte":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "max":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "url":
		return "must be a valid URL"
	case "country_code":
		return "must be a two-letter ISO 3166 country code"
	case "ip_selector":
		return "must be 4, 6 or 46"
	case "dialect":
		return "must be apache or nginx"
	case "marker_name":
		return "must consist only of letters, numbers, '.', '_' and '-'"
	case "cidr":
		return "must be a network in CIDR notation (e.g. 192.168.0.0/16)"
	case "hostport_or_empty":
		return "must be in format 'host:port' or empty"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// ValidationError represents a single validation error with context
type ValidationError struct {
	ItemName  string // For sources: the source name (e.g., "apnic")
	FieldPath string // Dot-notation field path (e.g., "general.country", "fetch.timeout_seconds")
	Message   string // Human-readable error message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		if err.ItemName != "" {
			sb.WriteString(fmt.Sprintf("  %d. [%s] %s: %s\n", i+1, err.ItemName, err.FieldPath, err.Message))
		} else {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
		}
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validators
	if err := validate.RegisterValidation("country_code", validateCountryCode); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("ip_selector", validateIPSelector); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("dialect", validateDialect); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("marker_name", validateMarkerName); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("hostport_or_empty", validateHostPortOrEmpty); err != nil {
		panic(err)
	}

	// Register function to get field name from "toml" tag
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validator: two upper-case letters
func validateCountryCode(fl validator.FieldLevel) bool {
	return countryRegexp.MatchString(fl.Field().String())
}

// Custom validator: 4, 6 or 46
func validateIPSelector(fl validator.FieldLevel) bool {
	return ranges.Selector(fl.Field().Int()).Valid()
}

// Custom validator: apache or nginx
func validateDialect(fl validator.FieldLevel) bool {
	_, err := render.ParseDialect(fl.Field().String())
	return err == nil
}

// Custom validator: marker name that cannot break the marker lines
func validateMarkerName(fl validator.FieldLevel) bool {
	return markerRegexp.MatchString(fl.Field().String())
}

// Custom validator: host:port format or empty
func validateHostPortOrEmpty(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, _, err := net.SplitHostPort(value)
	return err == nil
}
