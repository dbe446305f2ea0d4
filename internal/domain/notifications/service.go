package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store  StoreAPI
	Mailer Mailer
	From   string
}

func New(store StoreAPI, mailer Mailer, from string) *Service {
	return &Service{store: store, Mailer: mailer, From: from}
}

// Create records an in-app notification and best-effort mirrors it to
// the user's email. Email failures are logged, never surfaced.
func (s *Service) Create(ctx context.Context, userID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, userID, ntype, title, body); err != nil {
		return err
	}
	s.email(ctx, userID, title, body)
	return nil
}

// Email sends mail without recording an in-app notification. Used for
// signup codes, which would be noise in the notification feed.
func (s *Service) Email(ctx context.Context, userID, subject, body string) {
	s.email(ctx, userID, subject, body)
}

func (s *Service) email(ctx context.Context, userID, subject, body string) {
	if s.Mailer == nil {
		return
	}
	addr, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return
	}
	if addr == "" {
		return
	}
	if err := s.Mailer.Send(ctx, s.From, addr, subject, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	return s.store.CountNotifications(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
