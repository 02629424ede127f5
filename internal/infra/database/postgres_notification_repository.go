// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"groona_alerts/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Array
)

const defaultListLimit = 200

type PostgresNotificationRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db, now: time.Now}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedDate.IsZero() {
		n.CreatedDate = r.now()
	}
	if n.Status == "" {
		n.Status = notification.StatusOpen
	}
	payload := n.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error encoding notification payload: %w", err)
	}

	query := `INSERT INTO notifications (id, type, status, title, message, recipient, dedup_key, payload, created_date)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.db.ExecContext(ctx, query,
		n.ID, n.Type, n.Status, n.Title, n.Message, n.Recipient,
		sql.NullString{String: n.DedupKey, Valid: n.DedupKey != ""}, raw, n.CreatedDate,
	)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) List(ctx context.Context, filter notification.Filter) ([]*notification.Notification, error) {
	query, args := buildListQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// buildListQuery renders the WHERE clause for the non-zero filter fields.
func buildListQuery(filter notification.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(filter.Types) > 0 {
		args = append(args, pq.Array(typeStrings(filter.Types)))
		conds = append(conds, fmt.Sprintf("type = ANY($%d::varchar[])", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conds = append(conds, fmt.Sprintf("created_date >= $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var b strings.Builder
	b.WriteString(`SELECT id, type, status, title, message, recipient, dedup_key, payload, created_date FROM notifications`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, limit)
	fmt.Fprintf(&b, " ORDER BY created_date DESC LIMIT $%d", len(args))
	return b.String(), args
}

func scanNotifications(rows *sql.Rows) ([]*notification.Notification, error) {
	out := make([]*notification.Notification, 0)
	for rows.Next() {
		n := notification.Notification{}
		var (
			dedup sql.NullString
			raw   []byte
		)
		if err := rows.Scan(&n.ID, &n.Type, &n.Status, &n.Title, &n.Message, &n.Recipient, &dedup, &raw, &n.CreatedDate); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		n.DedupKey = dedup.String
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &n.Payload); err != nil {
				return nil, fmt.Errorf("error decoding payload of notification %s: %w", n.ID, err)
			}
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return out, nil
}

func (r *PostgresNotificationRepository) DeleteByStatus(ctx context.Context, status notification.Status) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE status = $1`, status)
	if err != nil {
		return 0, fmt.Errorf("error deleting notifications with status %s: %w", status, err)
	}
	return res.RowsAffected()
}

func (r *PostgresNotificationRepository) DeleteByTypesSince(ctx context.Context, types []notification.Type, since time.Time) (int64, error) {
	if len(types) == 0 {
		return 0, nil
	}
	query := `DELETE FROM notifications WHERE type = ANY($1::varchar[]) AND created_date >= $2`
	res, err := r.db.ExecContext(ctx, query, pq.Array(typeStrings(types)), since)
	if err != nil {
		return 0, fmt.Errorf("error deleting notifications by type since %s: %w", since.Format(time.RFC3339), err)
	}
	return res.RowsAffected()
}

func typeStrings(types []notification.Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
