package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow/repair-service/internal/domain"
)

// NotificationRepository persists per-recipient notification rows.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientType domain.RecipientType, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string, recipientType domain.RecipientType, recipientID string) error
	Delete(ctx context.Context, id string, recipientType domain.RecipientType, recipientID string) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_type, recipient_id, request_id, type, title, message, priority, read_flag)
        VALUES ($1,$2,$3,$4,$5,$6,$7,false)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.RecipientType,
		notification.RecipientID,
		notification.RequestID,
		notification.Type,
		notification.Title,
		notification.Message,
		notification.Priority,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientType domain.RecipientType, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	query := `
        SELECT id, recipient_type, recipient_id, request_id, type, title, message, priority, read_flag, created_at
        FROM notifications
        WHERE recipient_type=$1 AND recipient_id=$2`
	if unreadOnly {
		query += ` AND read_flag=false`
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query += ` ORDER BY created_at DESC LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, recipientType, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientType,
			&notification.RecipientID,
			&notification.RequestID,
			&notification.Type,
			&notification.Title,
			&notification.Message,
			&notification.Priority,
			&notification.Read,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, recipientType domain.RecipientType, recipientID string) error {
	const query = `
        UPDATE notifications SET read_flag=true
        WHERE id=$1 AND recipient_type=$2 AND recipient_id=$3`
	cmd, err := r.pool.Exec(ctx, query, id, recipientType, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string, recipientType domain.RecipientType, recipientID string) error {
	const query = `
        DELETE FROM notifications
        WHERE id=$1 AND recipient_type=$2 AND recipient_id=$3`
	cmd, err := r.pool.Exec(ctx, query, id, recipientType, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
