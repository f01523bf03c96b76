package model

import (
	"strings"
	"time"
)

const (
	InquiryTypeGeneral       = "general"
	InquiryTypeBooking       = "booking"
	InquiryTypeDJApplication = "dj_application"
	InquiryTypeTradeRequest  = "trade_request"
)

var inquiryTypeAliases = map[string]string{
	"general":        InquiryTypeGeneral,
	"booking":        InquiryTypeBooking,
	"dj_application": InquiryTypeDJApplication,
	"dj-application": InquiryTypeDJApplication,
	"join":           InquiryTypeDJApplication,
	"trade_request":  InquiryTypeTradeRequest,
	"trade-request":  InquiryTypeTradeRequest,
	"trade":          InquiryTypeTradeRequest,
}

// NormalizeInquiryType maps the contact form's type values onto the stored
// ones. Anything unrecognised is a general inquiry.
func NormalizeInquiryType(t string) string {
	if normalized, ok := LookupInquiryType(t); ok {
		return normalized
	}
	return InquiryTypeGeneral
}

// LookupInquiryType resolves t or one of its aliases and reports whether it
// is a known type.
func LookupInquiryType(t string) (string, bool) {
	normalized, ok := inquiryTypeAliases[strings.ToLower(strings.TrimSpace(t))]
	return normalized, ok
}

type ContactInquiry struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Type      string    `json:"type" bson:"type" validate:"required,oneof=general booking dj_application trade_request"`
	Name      string    `json:"name" bson:"name" validate:"required,max=100"`
	Email     string    `json:"email" bson:"email" validate:"required,contact_email"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,max=30"`
	Subject   string    `json:"subject,omitempty" bson:"subject,omitempty" validate:"omitempty,max=200"`
	Message   string    `json:"message" bson:"message" validate:"required,max=5000"`
	DJID      string    `json:"dj_id,omitempty" bson:"dj_id,omitempty" validate:"omitempty,max=64"`
	VenueName string    `json:"venue_name,omitempty" bson:"venue_name,omitempty" validate:"omitempty,max=200"`
	EventDate string    `json:"event_date,omitempty" bson:"event_date,omitempty" validate:"omitempty,max=100"`
	Status    string    `json:"status" bson:"status" validate:"required,oneof=new in_progress resolved"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type InquirySubmission struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
	DJID      string `json:"djId,omitempty"`
	VenueName string `json:"venueName,omitempty"`
	EventDate string `json:"eventDate,omitempty"`
}

type InquiryFilter struct {
	Status string
	Type   string
}
