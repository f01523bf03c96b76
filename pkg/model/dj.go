package model

import "time"

type SocialMedia struct {
	Instagram  string `json:"instagram,omitempty" bson:"instagram,omitempty" validate:"omitempty,max=200"`
	SoundCloud string `json:"soundcloud,omitempty" bson:"soundcloud,omitempty" validate:"omitempty,max=200"`
	Spotify    string `json:"spotify,omitempty" bson:"spotify,omitempty" validate:"omitempty,max=200"`
}

const (
	AvailabilityAvailable = "available"
	AvailabilityBusy      = "busy"
	AvailabilityBooked    = "booked"
)

type DJ struct {
	ID           string      `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string      `json:"name" bson:"name" validate:"required,min=2,max=100"`
	StageName    string      `json:"stage_name,omitempty" bson:"stage_name,omitempty" validate:"omitempty,max=100"`
	Slug         string      `json:"slug" bson:"slug" validate:"required,max=120,slug"`
	Genres       []string    `json:"genres" bson:"genres" validate:"required,min=1,max=15,dive,min=2,max=50"`
	BookingRate  int64       `json:"booking_rate" bson:"booking_rate" validate:"gte=0"`
	Location     string      `json:"location,omitempty" bson:"location,omitempty" validate:"omitempty,max=100"`
	Residencies  []string    `json:"residencies" bson:"residencies" validate:"omitempty,max=20,dive,min=1,max=100"`
	Bio          string      `json:"bio,omitempty" bson:"bio,omitempty" validate:"omitempty,max=2000"`
	Experience   string      `json:"experience,omitempty" bson:"experience,omitempty" validate:"omitempty,max=100"`
	Equipment    []string    `json:"equipment,omitempty" bson:"equipment,omitempty" validate:"omitempty,max=30,dive,min=1,max=100"`
	SocialMedia  SocialMedia `json:"social_media" bson:"social_media"`
	Email        string      `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,contact_email"`
	Phone        string      `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Availability string      `json:"availability" bson:"availability" validate:"oneof=available busy booked"`
	IsActive     bool        `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" bson:"updated_at"`
}

// DisplayName is the stage name when one is set, otherwise the legal name.
func (d *DJ) DisplayName() string {
	if d.StageName != "" {
		return d.StageName
	}
	return d.Name
}

type DJUpdate struct {
	Name         *string      `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	StageName    *string      `json:"stage_name,omitempty" validate:"omitempty,max=100"`
	Slug         *string      `json:"slug,omitempty" validate:"omitempty,max=120,slug"`
	Genres       []string     `json:"genres,omitempty" validate:"omitempty,min=1,max=15,dive,min=2,max=50"`
	BookingRate  *int64       `json:"booking_rate,omitempty" validate:"omitempty,gte=0"`
	Location     *string      `json:"location,omitempty" validate:"omitempty,max=100"`
	Residencies  []string     `json:"residencies,omitempty" validate:"omitempty,max=20,dive,min=1,max=100"`
	Bio          *string      `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Experience   *string      `json:"experience,omitempty" validate:"omitempty,max=100"`
	Equipment    []string     `json:"equipment,omitempty" validate:"omitempty,max=30,dive,min=1,max=100"`
	SocialMedia  *SocialMedia `json:"social_media,omitempty"`
	Email        *string      `json:"email,omitempty" validate:"omitempty,contact_email"`
	Phone        *string      `json:"phone,omitempty" validate:"omitempty,e164"`
	Availability *string      `json:"availability,omitempty" validate:"omitempty,oneof=available busy booked"`
	IsActive     *bool        `json:"is_active,omitempty"`
}

type DJFilter struct {
	Genre      string
	ActiveOnly bool
}
