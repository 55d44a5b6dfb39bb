package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/store"
)

type notificationsRepo struct {
	db dbtx
}

const notificationColumns = `id, user_id, kind, title, message, data, is_read, read_at, created_at`

func scanNotification(row interface{ Scan(...any) error }) (domain.Notification, error) {
	var (
		n      domain.Notification
		data   string
		readAt sql.NullTime
	)
	err := row.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Message,
		&data, &n.IsRead, &readAt, &n.CreatedAt)
	if err != nil {
		return domain.Notification{}, err
	}
	if data != "" && data != "{}" {
		if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
			return domain.Notification{}, err
		}
	}
	n.ReadAt = mapNullTime(readAt)
	return n, nil
}

func (r *notificationsRepo) CreateNotification(ctx context.Context, n domain.Notification) error {
	data := "{}"
	if len(n.Data) > 0 {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return err
		}
		data = string(raw)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Kind, n.Title, n.Message, data,
		n.IsRead, mapOptionalTime(n.ReadAt), n.CreatedAt,
	)
	return err
}

func notificationWhere(f store.NotificationFilter) (string, []any) {
	where := ` WHERE user_id = ?`
	args := []any{f.UserID}
	if f.UnreadOnly {
		where += ` AND is_read = 0`
	}
	if f.Kind != "" {
		where += ` AND kind = ?`
		args = append(args, f.Kind)
	}
	return where, args
}

func (r *notificationsRepo) ListNotifications(ctx context.Context, f store.NotificationFilter) ([]domain.Notification, int, error) {
	where, args := notificationWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset, limit := pageOffset(f.Page, f.Limit)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications`+where+`
		ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, n)
	}
	return list, total, rows.Err()
}

func (r *notificationsRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`,
		userID,
	).Scan(&count)
	return count, err
}

func (r *notificationsRepo) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := []any{userID}
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = 1, read_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND is_read = 0 AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *notificationsRepo) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = 1, read_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND is_read = 0`,
		userID,
	)
	return err
}

func (r *notificationsRepo) DeleteNotification(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE user_id = ? AND id = ?`,
		userID, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}
