package validator

import (
	"djagency/pkg/model"
	"djagency/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type InquiryValidator struct {
	validate *validator.Validate
}

func NewInquiryValidator() *InquiryValidator {
	return &InquiryValidator{
		validate: validation.MustNew(),
	}
}

// Validate checks a normalized inquiry. Type-specific metadata is stored as
// given and never cross-checked.
func (v *InquiryValidator) Validate(inquiry *model.ContactInquiry) error {
	return validation.Struct(v.validate, inquiry)
}
