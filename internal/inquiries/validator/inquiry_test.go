package validator

import (
	"errors"
	"strings"
	"testing"

	"djagency/pkg/model"
	"djagency/pkg/validation"
)

func validInquiry() *model.ContactInquiry {
	return &model.ContactInquiry{
		Type:    model.InquiryTypeGeneral,
		Name:    "Maria Lopez",
		Email:   "maria@example.com",
		Message: "Do you cover weddings?",
		Status:  "new",
	}
}

func TestInquiryValidator_Validate(t *testing.T) {
	v := NewInquiryValidator()

	tests := []struct {
		name      string
		mutate    func(i *model.ContactInquiry)
		wantField string
	}{
		{name: "valid", mutate: func(i *model.ContactInquiry) {}},
		{
			name: "unchecked metadata",
			mutate: func(i *model.ContactInquiry) {
				i.Type = model.InquiryTypeBooking
				i.DJID = "not-a-real-dj"
				i.EventDate = "sometime in june"
			},
		},
		{name: "missing name", mutate: func(i *model.ContactInquiry) { i.Name = "" }, wantField: "name"},
		{name: "email without at", mutate: func(i *model.ContactInquiry) { i.Email = "maria.example.com" }, wantField: "email"},
		{name: "email without domain dot", mutate: func(i *model.ContactInquiry) { i.Email = "maria@localhost" }, wantField: "email"},
		{name: "email empty local part", mutate: func(i *model.ContactInquiry) { i.Email = "@example.com" }, wantField: "email"},
		{name: "missing message", mutate: func(i *model.ContactInquiry) { i.Message = "" }, wantField: "message"},
		{name: "message too long", mutate: func(i *model.ContactInquiry) { i.Message = strings.Repeat("a", 5001) }, wantField: "message"},
		{name: "unknown type", mutate: func(i *model.ContactInquiry) { i.Type = "press" }, wantField: "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inquiry := validInquiry()
			tt.mutate(inquiry)

			err := v.Validate(inquiry)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var errs validation.ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("expected validation errors, got %v", err)
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.wantField, errs)
			}
		})
	}
}
