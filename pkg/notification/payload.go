package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"djagency/pkg/model"
)

const (
	SubjectBooking       = "DJ Booking Request"
	SubjectDJApplication = "DJ Application"
	SubjectTradeRequest  = "New Trade Request"
	SubjectGeneral       = "General Inquiry"
)

// SubjectFor derives the subject line from the submission type.
func SubjectFor(submissionType string) string {
	switch model.NormalizeInquiryType(submissionType) {
	case model.InquiryTypeBooking:
		return SubjectBooking
	case model.InquiryTypeDJApplication:
		return SubjectDJApplication
	case model.InquiryTypeTradeRequest:
		return SubjectTradeRequest
	default:
		return SubjectGeneral
	}
}

type Field struct {
	Label string
	Value string
}

type Contact struct {
	Name  string
	Email string
	Phone string
}

// Submission is everything the builder needs to describe one form post.
type Submission struct {
	Type      string
	Reference string
	Contact   Contact
	Subject   string
	Details   []Field
	Message   string
}

type Payload struct {
	To          string            `json:"to"`
	Subject     string            `json:"subject"`
	HTMLBody    string            `json:"html_body"`
	Type        string            `json:"type"`
	Reference   string            `json:"reference,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Fields      map[string]string `json:"fields,omitempty"`
}

var bodyTemplate = template.Must(template.New("notification").Parse(`<h2>{{.Title}}</h2>
{{- with .Contact}}
<h3>Contact</h3>
<ul>
{{- if .Name}}<li><strong>Name:</strong> {{.Name}}</li>{{end}}
{{- if .Email}}<li><strong>Email:</strong> {{.Email}}</li>{{end}}
{{- if .Phone}}<li><strong>Phone:</strong> {{.Phone}}</li>{{end}}
</ul>
{{- end}}
{{- if .Subject}}
<p><strong>Subject:</strong> {{.Subject}}</p>
{{- end}}
{{- if .Details}}
<h3>Details</h3>
<ul>
{{- range .Details}}
<li><strong>{{.Label}}:</strong> {{.Value}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Message}}
<h3>Message</h3>
<p>{{.Message}}</p>
{{- end}}
<p><em>Submitted at {{.SubmittedAt}}</em></p>
`))

type bodyData struct {
	Title       string
	Contact     *Contact
	Subject     string
	Details     []Field
	Message     string
	SubmittedAt string
}

// Builder renders notification payloads. It has no side effects; the clock
// is injectable so output is reproducible.
type Builder struct {
	recipient string
	now       func() time.Time
}

func NewBuilder(recipient string, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{recipient: recipient, now: now}
}

func (b *Builder) Build(s Submission) (Payload, error) {
	submittedAt := b.now().UTC().Truncate(time.Second)
	subject := SubjectFor(s.Type)

	data := bodyData{
		Title:       subject,
		Subject:     s.Subject,
		Details:     nonEmpty(s.Details),
		Message:     s.Message,
		SubmittedAt: submittedAt.Format(time.RFC1123),
	}
	if s.Contact != (Contact{}) {
		contact := s.Contact
		data.Contact = &contact
	}

	var body bytes.Buffer
	if err := bodyTemplate.Execute(&body, data); err != nil {
		return Payload{}, fmt.Errorf("failed to render notification body: %w", err)
	}

	fields := make(map[string]string, len(data.Details)+3)
	for _, f := range data.Details {
		fields[f.Label] = f.Value
	}
	if s.Contact.Name != "" {
		fields["Name"] = s.Contact.Name
	}
	if s.Contact.Email != "" {
		fields["Email"] = s.Contact.Email
	}
	if s.Contact.Phone != "" {
		fields["Phone"] = s.Contact.Phone
	}

	return Payload{
		To:          b.recipient,
		Subject:     subject,
		HTMLBody:    body.String(),
		Type:        model.NormalizeInquiryType(s.Type),
		Reference:   s.Reference,
		SubmittedAt: submittedAt,
		Fields:      fields,
	}, nil
}

func (b *Builder) ForInquiry(inq model.ContactInquiry) (Payload, error) {
	s := Submission{
		Type:      inq.Type,
		Reference: inq.ID,
		Contact:   Contact{Name: inq.Name, Email: inq.Email, Phone: inq.Phone},
		Subject:   inq.Subject,
		Message:   inq.Message,
	}

	switch model.NormalizeInquiryType(inq.Type) {
	case model.InquiryTypeBooking:
		s.Details = []Field{
			{"DJ", inq.DJID},
			{"Venue", inq.VenueName},
			{"Event Date", inq.EventDate},
		}
	case model.InquiryTypeTradeRequest:
		s.Details = []Field{
			{"DJ", inq.DJID},
			{"Venue", inq.VenueName},
			{"Date", inq.EventDate},
		}
	}

	return b.Build(s)
}

func (b *Builder) ForTradeRequest(tr model.TradeRequest, requestingName, targetName string) (Payload, error) {
	return b.Build(Submission{
		Type:      model.InquiryTypeTradeRequest,
		Reference: tr.ID,
		Details: []Field{
			{"Requesting DJ", requestingName},
			{"Requesting Venue", tr.RequestingVenue},
			{"Requested Date", tr.RequestedDate},
			{"Target DJ", targetName},
			{"Target Venue", tr.TargetVenue},
			{"Target Date", tr.TargetDate},
		},
		Message: tr.Message,
	})
}

func (b *Builder) ForBookingRequest(bk model.Booking, djName string) (Payload, error) {
	details := []Field{
		{"DJ", djName},
		{"Venue", bk.VenueName},
		{"Event Date", bk.EventDate},
		{"Event Time", bk.EventTime},
	}
	if bk.DurationHours > 0 {
		details = append(details, Field{"Duration", fmt.Sprintf("%d hours", bk.DurationHours)})
	}
	details = append(details, Field{"Rate", fmt.Sprintf("%d", bk.Rate)})

	return b.Build(Submission{
		Type:      model.InquiryTypeBooking,
		Reference: bk.ID,
		Contact:   Contact{Name: bk.ContactName, Email: bk.ContactEmail, Phone: bk.ContactPhone},
		Details:   details,
		Message:   bk.Notes,
	})
}

func nonEmpty(fields []Field) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}
