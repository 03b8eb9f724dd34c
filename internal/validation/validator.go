package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	playgroundvalidator "github.com/go-playground/validator/v10"

	"tourdesk/internal/models"
)

// FieldError is one failed constraint, keyed by the field's json name
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationError is returned before anything reaches the network. Field and
// Message describe the first failing field in declaration order.
type ValidationError struct {
	Field   string
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Map returns field -> message for every failure, first message wins
func (e *ValidationError) Map() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := out[f.Field]; !ok {
			out[f.Field] = f.Message
		}
	}
	return out
}

// Validator wraps go-playground/validator
type Validator struct {
	validator *playgroundvalidator.Validate
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns a process-wide validator; building one parses tags lazily
// and caches struct metadata, so sharing it is cheaper than calling New.
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// New creates a new validator instance
func New() *Validator {
	v := playgroundvalidator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations; the names are fixed so errors here are programming mistakes
	mustRegister(v, "user_role", validateUserRole)
	mustRegister(v, "campaign_status", validateCampaignStatus)
	mustRegister(v, "permission_scope", validatePermissionScope)

	return &Validator{validator: v}
}

func mustRegister(v *playgroundvalidator.Validate, tag string, fn playgroundvalidator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// Custom validation functions
func validateUserRole(fl playgroundvalidator.FieldLevel) bool {
	return models.IsValidUserRole(models.UserRole(fl.Field().String()))
}

func validateCampaignStatus(fl playgroundvalidator.FieldLevel) bool {
	return models.IsEditableCampaignStatus(models.CampaignStatus(fl.Field().String()))
}

func validatePermissionScope(fl playgroundvalidator.FieldLevel) bool {
	return models.ValidScope(fl.Field().String())
}

// Struct validates i and returns a *ValidationError on constraint failures
func (cv *Validator) Struct(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors playgroundvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range validationErrors {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: Message(fe.Field(), fe.Tag(), fe.Param()),
		})
	}
	out.Field = out.Fields[0].Field
	out.Message = out.Fields[0].Message
	return out
}

// Validate implements echo.Validator interface
func (cv *Validator) Validate(i interface{}) error {
	return cv.Struct(i)
}

// Message renders a human readable message for a failed tag
func Message(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, param)
	case "lte":
		return fmt.Sprintf("%s must be %s or less", field, param)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, param)
	case "json":
		return fmt.Sprintf("%s must be valid JSON", field)
	case "user_role":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(Enum(tag, param), ", "))
	case "campaign_status":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(Enum(tag, param), ", "))
	case "permission_scope":
		return fmt.Sprintf("%s must look like resource:action", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}

// Enum returns the allowed values a tag restricts a field to, or nil
func Enum(tag, param string) []string {
	switch tag {
	case "oneof":
		return strings.Fields(param)
	case "user_role":
		return []string{string(models.UserRoleAdmin), string(models.UserRoleEditor), string(models.UserRoleViewer)}
	case "campaign_status":
		return []string{string(models.CampaignStatusDraft), string(models.CampaignStatusScheduled)}
	default:
		return nil
	}
}
