package validator

import (
	"djagency/pkg/model"
	"djagency/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type DJValidator struct {
	validate *validator.Validate
}

func NewDJValidator() *DJValidator {
	return &DJValidator{
		validate: validation.MustNew(),
	}
}

func (v *DJValidator) Validate(dj *model.DJ) error {
	if err := validation.Struct(v.validate, dj); err != nil {
		return err
	}

	return v.validateBusinessRules(dj)
}

// ValidateUpdate checks the fields present in a partial update before it is merged.
func (v *DJValidator) ValidateUpdate(updates *model.DJUpdate) error {
	return validation.Struct(v.validate, updates)
}

func (v *DJValidator) validateBusinessRules(dj *model.DJ) error {
	var errs validation.ValidationErrors

	if dj.Availability == model.AvailabilityBooked && !dj.IsActive {
		errs = append(errs, validation.ValidationError{
			Field:   "availability",
			Message: "an inactive DJ cannot be marked as booked",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
