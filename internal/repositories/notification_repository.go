package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"lostfound-backend/internal/models"
)

// NotificationRepository stores and serves in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, userID int, notifType, content string, link *string) error
	ListForUser(ctx context.Context, userID int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID int, userID int) error
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create inserts a notification row.
func (r *NotificationRepo) Create(ctx context.Context, userID int, notifType, content string, link *string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO notifications (user_id, type, content, link) VALUES ($1, $2, $3, $4)`,
		userID, notifType, content, link)
	return err
}

// ListForUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID int) ([]models.Notification, error) {
	var notifs []models.Notification
	err := r.db.SelectContext(ctx, &notifs, `SELECT id, user_id, type, content, link, is_read, created_at
        FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	return notifs, err
}

// MarkRead flips is_read, scoped to the owning user.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID int, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id=$1 AND user_id=$2`,
		notificationID, userID)
	return err
}
