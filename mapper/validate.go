package mapper

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/uri"
)

var validate = mustValidator()

func mustValidator() *validator.Validate {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	return v
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("ncname", func(fl validator.FieldLevel) bool {
		return uri.ValidateIdentifier(fl.Field().String()) == nil
	}); err != nil {
		return nil, fmt.Errorf("register ncname validation: %w", err)
	}
	if err := v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		switch Status(fl.Field().String()) {
		case StatusIncomplete, StatusDraft, StatusSuggested, StatusValid,
			StatusSuperseded, StatusRetired, StatusInvalid:
			return true
		}
		return false
	}); err != nil {
		return nil, fmt.Errorf("register status validation: %w", err)
	}
	return v, nil
}

// Validate checks a DTO against its validation tags. Failures are reported
// as invalid-dto MappingErrors, or invalid-identifier when only the
// identifier is malformed.
func Validate(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errs.Mappingf(errs.KeyInvalidDTO, "", "%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	key := errs.KeyInvalidDTO
	if len(verrs) == 1 && verrs[0].Field() == "Identifier" {
		key = errs.KeyInvalidIdentifier
	}
	return errs.Mappingf(key, "", "%s", strings.Join(msgs, "; "))
}

// ValidateCreate is Validate plus the fields that are optional on update.
func ValidateCreate(dto any, label map[string]string) error {
	if err := Validate(dto); err != nil {
		return err
	}
	if len(label) == 0 {
		return errs.Mappingf(errs.KeyInvalidDTO, "", "label is required")
	}
	return nil
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "ncname":
		return fmt.Sprintf("%s must be a valid NCName and not a reserved name", field)
	case "uri":
		return fmt.Sprintf("%s must be a URI", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
