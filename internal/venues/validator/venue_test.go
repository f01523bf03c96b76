package validator

import (
	"errors"
	"testing"

	"djagency/pkg/model"
	"djagency/pkg/validation"
)

func validVenue() *model.Venue {
	return &model.Venue{
		Name:            "Club A",
		Location:        "12 Harbour St",
		City:            "Lisbon",
		Capacity:        800,
		Amenities:       []string{"sound system"},
		PreferredGenres: []string{"house"},
		Website:         "https://cluba.example",
		IsActive:        true,
	}
}

func TestVenueValidator_Validate(t *testing.T) {
	v := NewVenueValidator()

	tests := []struct {
		name      string
		mutate    func(v *model.Venue)
		wantField string
	}{
		{name: "valid", mutate: func(v *model.Venue) {}},
		{name: "missing city", mutate: func(v *model.Venue) { v.City = "" }, wantField: "city"},
		{name: "missing location", mutate: func(v *model.Venue) { v.Location = "" }, wantField: "location"},
		{name: "negative capacity", mutate: func(v *model.Venue) { v.Capacity = -1 }, wantField: "capacity"},
		{name: "bad contact email", mutate: func(v *model.Venue) { v.ContactEmail = "bookings" }, wantField: "contact_email"},
		{name: "plain http website", mutate: func(v *model.Venue) { v.Website = "http://cluba.example" }, wantField: "website"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			venue := validVenue()
			tt.mutate(venue)

			err := v.Validate(venue)
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
