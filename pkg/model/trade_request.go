package model

import "time"

// TradeRequest proposes swapping engagements between two DJs. Venues and dates
// are free text and are not checked against bookings.
type TradeRequest struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty"`
	RequestingDJID  string    `json:"requesting_dj_id" bson:"requesting_dj_id" validate:"omitempty,max=64"`
	TargetDJID      string    `json:"target_dj_id" bson:"target_dj_id" validate:"omitempty,max=64"`
	RequestingVenue string    `json:"requesting_venue,omitempty" bson:"requesting_venue,omitempty" validate:"omitempty,max=200"`
	TargetVenue     string    `json:"target_venue,omitempty" bson:"target_venue,omitempty" validate:"omitempty,max=200"`
	RequestedDate   string    `json:"requested_date,omitempty" bson:"requested_date,omitempty" validate:"omitempty,max=200"`
	TargetDate      string    `json:"target_date,omitempty" bson:"target_date,omitempty" validate:"omitempty,max=200"`
	Message         string    `json:"message" bson:"message" validate:"required,max=2000"`
	Status          string    `json:"status" bson:"status" validate:"required,oneof=pending approved rejected"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

type TradeRequestSubmission struct {
	RequestingDJID  string `json:"requestingDjId" validate:"required"`
	TargetDJID      string `json:"targetDjId" validate:"required"`
	RequestingVenue string `json:"requestingVenue,omitempty" validate:"omitempty,max=200"`
	TargetVenue     string `json:"targetVenue,omitempty" validate:"omitempty,max=200"`
	RequestedDate   string `json:"requestedDate,omitempty" validate:"omitempty,max=200"`
	TargetDate      string `json:"targetDate,omitempty" validate:"omitempty,max=200"`
	Message         string `json:"message" validate:"required,max=2000"`
}

type TradeRequestFilter struct {
	Status string
	DJID   string
}
