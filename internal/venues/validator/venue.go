package validator

import (
	"strings"

	"djagency/pkg/model"
	"djagency/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type VenueValidator struct {
	validate *validator.Validate
}

func NewVenueValidator() *VenueValidator {
	return &VenueValidator{
		validate: validation.MustNew(),
	}
}

func (v *VenueValidator) Validate(venue *model.Venue) error {
	if err := validation.Struct(v.validate, venue); err != nil {
		return err
	}

	return v.validateBusinessRules(venue)
}

func (v *VenueValidator) ValidateUpdate(updates *model.VenueUpdate) error {
	return validation.Struct(v.validate, updates)
}

func (v *VenueValidator) validateBusinessRules(venue *model.Venue) error {
	if venue.Website != "" && !strings.HasPrefix(venue.Website, "https://") {
		return validation.Field("website", "website must use https")
	}
	return nil
}
