package notifications

import (
	"context"

	"hrms/internal/platform/querier"
)

type StoreAPI interface {
	CreateNotification(ctx context.Context, userID, ntype, title, body string) error
	UserEmail(ctx context.Context, userID string) (string, error)
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	CountNotifications(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// Store runs on anything satisfying querier.Querier, so tests can hand it a
// transaction and roll the writes back.
type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}
