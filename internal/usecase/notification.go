package usecase

import (
	"context"
	"fmt"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/metrics"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/sirupsen/logrus"
)

// Notifier delivers a notification to one user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, message string) error
}

type AdminLister interface {
	ListAdminIDs(ctx context.Context) ([]int64, error)
}

// Dispatcher fans workflow events out to the notification sink once the
// workflow transaction has committed. Failures are logged and swallowed.
type Dispatcher struct {
	admins AdminLister
	sink   Notifier
}

func NewDispatcher(admins AdminLister, sink Notifier) *Dispatcher {
	return &Dispatcher{admins: admins, sink: sink}
}

func (d *Dispatcher) ToUser(ctx context.Context, userID int64, title, message string) {
	ctx = context.WithoutCancel(ctx)
	err := d.sink.Notify(ctx, userID, title, message)
	metrics.RecordNotification(err)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"title":   title,
		}).Warn("Failed to deliver notification")
	}
}

func (d *Dispatcher) ToAdmins(ctx context.Context, title, message string) {
	ctx = context.WithoutCancel(ctx)
	ids, err := d.admins.ListAdminIDs(ctx)
	if err != nil {
		logrus.WithError(err).WithField("title", title).Warn("Failed to list admins for notification")
		return
	}
	for _, id := range ids {
		d.ToUser(ctx, id, title, message)
	}
}

type NotificationUseCase struct {
	storage models.NotificationStorage
}

func NewNotificationUseCase(storage models.NotificationStorage) *NotificationUseCase {
	return &NotificationUseCase{storage: storage}
}

func (uc *NotificationUseCase) List(ctx context.Context, p models.Principal) ([]models.Notification, error) {
	notifications, err := uc.storage.ListNotificationsByUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flips read=true. Only the recipient may do it.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, p models.Principal, id int64) (models.Notification, error) {
	n, err := uc.storage.GetNotification(ctx, id)
	if err != nil {
		return models.Notification{}, err
	}
	if n.UserID != p.UserID {
		return models.Notification{}, fmt.Errorf("notification %d belongs to another user: %w", id, apperrors.ErrForbidden)
	}
	if n.Read {
		return n, nil
	}
	if err := uc.storage.MarkNotificationRead(ctx, id); err != nil {
		return models.Notification{}, fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	n.Read = true
	return n, nil
}
