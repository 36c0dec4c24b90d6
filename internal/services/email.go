package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"eventplanner/internal/domain"
)

const (
	guestInvitationTemplate = "guest_invitation"
	eventFlaggedTemplate    = "event_flagged"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that renders templates and sends them through mailer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendGuestInvitation tells a guest they were added to event. ownerName may be empty.
func (s *emailService) SendGuestInvitation(ctx context.Context, event *domain.Event, guest *domain.Guest, ownerName string) error {
	if event == nil || guest == nil {
		return fmt.Errorf("%w: invitation needs an event and a guest", domain.ErrInvalidInput)
	}
	data := &domain.GuestInvitationEmailData{
		Email:      guest.Email,
		OwnerName:  strings.TrimSpace(ownerName),
		EventTitle: event.Title,
		EventDate:  event.Date,
		Location:   event.Location,
	}
	if guest.Role != nil {
		data.Role = *guest.Role
	}
	return s.send(ctx, guestInvitationTemplate, data.Email, data, "event_id", event.ID, "guest_id", guest.ID)
}

// SendEventFlagged tells the owner at ownerEmail that event was reported.
func (s *emailService) SendEventFlagged(ctx context.Context, ownerEmail string, event *domain.Event) error {
	if event == nil {
		return fmt.Errorf("%w: flag notice needs an event", domain.ErrInvalidInput)
	}
	data := &domain.EventFlaggedEmailData{Email: ownerEmail, EventTitle: event.Title, EventID: event.ID}
	return s.send(ctx, eventFlaggedTemplate, data.Email, data, "event_id", event.ID)
}

func (s *emailService) send(ctx context.Context, template, to string, data any, attrs ...any) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("%w: %s has no recipient", domain.ErrInvalidInput, template)
	}
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", template, err)
	}
	if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send %s: %w", template, err)
	}
	s.logger.InfoContext(ctx, "email sent", append([]any{"template", template}, attrs...)...)
	return nil
}
