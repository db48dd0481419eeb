package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/maksimkurb/geoip-allow/src/internal/sources"
	"github.com/maksimkurb/geoip-allow/src/internal/utils"
)

// ValidateConfig validates the entire configuration and returns all validation errors
func (c *Config) ValidateConfig() error {
	var validationErrors ValidationErrors

	if c.General == nil {
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: "general",
			Message:   "configuration must contain 'general' section",
		})
		return validationErrors
	}
	c.ApplyDefaults()

	if err := validate.Struct(c.General); err != nil {
		validationErrors = append(validationErrors, convertValidatorErrors(err, "general", "")...)
	}
	if err := validate.Struct(c.Fetch); err != nil {
		validationErrors = append(validationErrors, convertValidatorErrors(err, "fetch", "")...)
	}
	if err := validate.Struct(c.AutoUpdate); err != nil {
		validationErrors = append(validationErrors, convertValidatorErrors(err, "auto_update", "")...)
	}
	if err := validate.Struct(c.API); err != nil {
		validationErrors = append(validationErrors, convertValidatorErrors(err, "api", "")...)
	}

	validationErrors = append(validationErrors, c.validateSnippetFiles()...)
	validationErrors = append(validationErrors, c.validateSources()...)

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

func (c *Config) validateSnippetFiles() ValidationErrors {
	var validationErrors ValidationErrors

	files := []struct {
		field string
		path  string
	}{
		{"general.pre_text_file", c.General.PreTextFile},
		{"general.post_text_file", c.General.PostTextFile},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		path := utils.GetAbsolutePath(f.path, c.GetConfigDir())
		if !utils.FileExists(path) {
			validationErrors = append(validationErrors, ValidationError{
				FieldPath: f.field,
				Message:   fmt.Sprintf("file does not exist: %s", path),
			})
		}
	}

	return validationErrors
}

func (c *Config) validateSources() ValidationErrors {
	var validationErrors ValidationErrors

	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := sources.Lookup(name); !ok {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  name,
				FieldPath: "sources." + name,
				Message:   fmt.Sprintf("unknown source (known: %v)", sources.Names()),
			})
			continue
		}
		if err := validate.Var(c.Sources[name], "required,url"); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, "sources."+name, name)...)
		}
	}

	return validationErrors
}

// convertValidatorErrors converts go-playground/validator errors to our ValidationError format
func convertValidatorErrors(err error, fieldPrefix string, itemName string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			fieldPath := fieldPrefix
			if e.Field() != "" {
				// e.Field() returns the TOML tag name because we registered TagNameFunc
				if fieldPrefix != "" {
					fieldPath = fieldPrefix + "." + e.Field()
				} else {
					fieldPath = e.Field()
				}
			}

			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: fieldPath,
				Message:   getValidationMessage(e),
			})
		}
	}

	return validationErrors
}
