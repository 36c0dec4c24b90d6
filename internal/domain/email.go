package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// GuestInvitationEmailData holds data for the guest invitation email.
type GuestInvitationEmailData struct {
	Email      string
	OwnerName  string
	EventTitle string
	EventDate  string
	Location   string
	Role       string
}

// EventFlaggedEmailData holds data for the notice sent to an owner whose event was flagged.
type EventFlaggedEmailData struct {
	Email      string
	EventTitle string
	EventID    string
}

// EmailService sends the notification mails of the guest and moderation workflows.
type EmailService interface {
	SendGuestInvitation(ctx context.Context, event *Event, guest *Guest, ownerName string) error
	SendEventFlagged(ctx context.Context, ownerEmail string, event *Event) error
}
