package model

// SubmissionReceipt is returned to public submitters once their record is stored.
type SubmissionReceipt struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	InquiryID      string `json:"inquiry_id,omitempty"`
	TradeRequestID string `json:"trade_request_id,omitempty"`
	BookingID      string `json:"booking_id,omitempty"`
	NotificationID string `json:"notification_id,omitempty"`
}
