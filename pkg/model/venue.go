package model

import "time"

type Venue struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name            string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Location        string    `json:"location" bson:"location" validate:"required,max=200"`
	City            string    `json:"city" bson:"city" validate:"required,max=100"`
	Capacity        int       `json:"capacity" bson:"capacity" validate:"gte=0,lte=200000"`
	Type            string    `json:"type,omitempty" bson:"type,omitempty" validate:"omitempty,max=50"`
	Description     string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	Amenities       []string  `json:"amenities" bson:"amenities" validate:"omitempty,max=30,dive,min=1,max=50"`
	PreferredGenres []string  `json:"preferred_genres" bson:"preferred_genres" validate:"omitempty,max=15,dive,min=2,max=50"`
	ContactEmail    string    `json:"contact_email,omitempty" bson:"contact_email,omitempty" validate:"omitempty,contact_email"`
	ContactPhone    string    `json:"contact_phone,omitempty" bson:"contact_phone,omitempty" validate:"omitempty,e164"`
	Website         string    `json:"website,omitempty" bson:"website,omitempty" validate:"omitempty,url"`
	IsActive        bool      `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

type VenueUpdate struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Location        *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	City            *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	Capacity        *int     `json:"capacity,omitempty" validate:"omitempty,gte=0,lte=200000"`
	Type            *string  `json:"type,omitempty" validate:"omitempty,max=50"`
	Description     *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Amenities       []string `json:"amenities,omitempty" validate:"omitempty,max=30,dive,min=1,max=50"`
	PreferredGenres []string `json:"preferred_genres,omitempty" validate:"omitempty,max=15,dive,min=2,max=50"`
	ContactEmail    *string  `json:"contact_email,omitempty" validate:"omitempty,contact_email"`
	ContactPhone    *string  `json:"contact_phone,omitempty" validate:"omitempty,e164"`
	Website         *string  `json:"website,omitempty" validate:"omitempty,url"`
	IsActive        *bool    `json:"is_active,omitempty"`
}

type VenueFilter struct {
	City string
}
