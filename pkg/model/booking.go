package model

import "time"

// DateLayout is the only accepted calendar date format for event dates.
const DateLayout = "2006-01-02"

const (
	BookingSourcePublic = "public"
	BookingSourceAdmin  = "admin"
)

type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	DJID          string    `json:"dj_id" bson:"dj_id" validate:"omitempty,max=64"`
	VenueID       string    `json:"venue_id,omitempty" bson:"venue_id,omitempty"`
	VenueName     string    `json:"venue_name" bson:"venue_name" validate:"required,max=200"`
	EventDate     string    `json:"event_date" bson:"event_date" validate:"required,calendar_date"`
	EventTime     string    `json:"event_time,omitempty" bson:"event_time,omitempty" validate:"omitempty,clock_time"`
	DurationHours int       `json:"duration_hours,omitempty" bson:"duration_hours,omitempty" validate:"omitempty,min=1,max=24"`
	Rate          int64     `json:"rate" bson:"rate" validate:"gte=0"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	Source        string    `json:"source" bson:"source" validate:"required,oneof=public admin"`
	Notes         string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=2000"`
	ContactName   string    `json:"contact_name,omitempty" bson:"contact_name,omitempty" validate:"omitempty,max=100"`
	ContactEmail  string    `json:"contact_email,omitempty" bson:"contact_email,omitempty" validate:"omitempty,contact_email"`
	ContactPhone  string    `json:"contact_phone,omitempty" bson:"contact_phone,omitempty" validate:"omitempty,max=30"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// BookingRequest is the public booking form. Rate is optional and falls back
// to the DJ's booking rate.
type BookingRequest struct {
	DJID      string `json:"djId" validate:"required"`
	VenueName string `json:"venueName" validate:"required,max=200"`
	EventDate string `json:"eventDate" validate:"required,calendar_date"`
	EventTime string `json:"eventTime,omitempty" validate:"omitempty,clock_time"`
	Duration  int    `json:"duration" validate:"required,min=1,max=24"`
	Rate      *int64 `json:"rate,omitempty" validate:"omitempty,gte=0"`
	Notes     string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Name      string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email     string `json:"email,omitempty" validate:"omitempty,contact_email"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// BookingUpdate edits everything but the status, which only changes through
// a transition.
type BookingUpdate struct {
	VenueID       *string `json:"venue_id,omitempty"`
	VenueName     *string `json:"venue_name,omitempty" validate:"omitempty,max=200"`
	EventDate     *string `json:"event_date,omitempty" validate:"omitempty,calendar_date"`
	EventTime     *string `json:"event_time,omitempty" validate:"omitempty,clock_time"`
	DurationHours *int    `json:"duration_hours,omitempty" validate:"omitempty,min=1,max=24"`
	Rate          *int64  `json:"rate,omitempty" validate:"omitempty,gte=0"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type BookingFilter struct {
	DJID    string
	VenueID string
	Status  string
}

type StatusChange struct {
	Status string `json:"status" validate:"required"`
}
