package postgres

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/gigboard/internal/domain/entity"
	"github.com/oksasatya/gigboard/internal/domain/repository"
)

const selectMessage = `
	SELECT id::text, seq, sender_id::text, receiver_id::text, content, created_at, is_read
	FROM messages
`

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func collectMessages(rows pgx.Rows) ([]entity.Message, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Message, error) {
		var m entity.Message
		err := row.Scan(&m.ID, &m.Seq, &m.SenderID, &m.ReceiverID, &m.Content, &m.Timestamp, &m.IsRead)
		return m, err
	})
}

func (r *MessageRepository) Append(ctx context.Context, m *entity.Message) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, content, created_at, is_read)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id::text, seq
	`, m.SenderID, m.ReceiverID, m.Content, m.Timestamp).Scan(&m.ID, &m.Seq)
}

func (r *MessageRepository) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET is_read = true
		WHERE sender_id = $1 AND receiver_id = $2 AND NOT is_read
	`, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepository) Conversation(ctx context.Context, userA, userB string, w repository.Window) ([]entity.Message, error) {
	sql := selectMessage + `
		WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))`
	args := []any{userA, userB}
	if w.Before != nil {
		sql += ` AND (created_at, seq) < ($3, $4)`
		args = append(args, w.Before.Timestamp, w.Before.Seq)
	}
	sql += ` ORDER BY created_at DESC, seq DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, w.Limit)
	if w.Before == nil && w.Offset > 0 {
		sql += ` OFFSET $` + strconv.Itoa(len(args)+1)
		args = append(args, w.Offset)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *MessageRepository) Involving(ctx context.Context, userID string) ([]entity.Message, error) {
	rows, err := r.pool.Query(ctx, selectMessage+`
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, seq DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *MessageRepository) CountUnread(ctx context.Context, receiverID, senderID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE sender_id = $1 AND receiver_id = $2 AND NOT is_read
	`, senderID, receiverID).Scan(&n)
	return n, err
}

func (r *MessageRepository) UnreadBySender(ctx context.Context, receiverID string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sender_id::text, COUNT(*)
		FROM messages
		WHERE receiver_id = $1 AND NOT is_read
		GROUP BY sender_id
	`, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var sender string
		var n int
		if err := rows.Scan(&sender, &n); err != nil {
			return nil, err
		}
		out[sender] = n
	}
	return out, rows.Err()
}

var _ repository.MessageRepository = (*MessageRepository)(nil)
