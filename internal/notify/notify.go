// Package notify persists user notifications and pushes them to websocket
// subscribers of the same user.
package notify

import (
	"context"
	"fmt"

	"github.com/AlenaMolokova/bazario/internal/models"
)

type Store interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
}

// Publisher receives every stored notification.
type Publisher interface {
	Publish(n models.Notification)
}

type Notifier struct {
	store     Store
	publisher Publisher
}

func NewNotifier(store Store, publisher Publisher) *Notifier {
	return &Notifier{store: store, publisher: publisher}
}

func (n *Notifier) Notify(ctx context.Context, userID int64, title, message string) error {
	saved, err := n.store.CreateNotification(ctx, models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("failed to store notification for user %d: %w", userID, err)
	}
	if n.publisher != nil {
		n.publisher.Publish(saved)
	}
	return nil
}
