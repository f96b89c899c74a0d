package validator

import (
	"github.com/go-playground/validator/v10"
)

// Validator bundles tag-based struct validation with the business validator.
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

func New() *Validator {
	return &Validator{
		validate: validator.New(),
		business: NewBusinessValidator(),
	}
}

// Validate runs plain tag validation on a struct.
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// GetBusinessValidator returns the business rule validator.
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// ToValidationErrors converts a validator.ValidationErrors into the
// field-level error slice handlers render.
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	var errors ValidationErrors
	for _, fe := range fieldErrs {
		errors = append(errors, ValidationError{
			Field:   fe.Field(),
			Message: fe.Error(),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errors
}
