package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"counselgo/internal/models"
)

// AppendMessage stores a new chat message and touches the session's
// updated_at timestamp. Messages are never mutated or deleted afterwards.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, sender models.Sender, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("message body is required")
	}
	if sender != models.SenderUser && sender != models.SenderAI {
		return nil, fmt.Errorf("invalid sender: %s", sender)
	}
	now := time.Now().UTC()
	msg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    sender,
		Body:      body,
		CreatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (message_id, session_id, sender, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, sessionID, sender, body, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE user_sessions SET updated_at = ? WHERE session_id = ?`, now, sessionID); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return msg, nil
}

// ListMessages returns the session's messages ordered by timestamp ascending.
func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, session_id, sender, message, created_at
		 FROM chat_messages WHERE session_id = ? ORDER BY created_at ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := new(models.Message)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sender, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountMessages returns the total number of messages in the session.
func (s *Store) CountMessages(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE session_id = ?`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// CountAIMessages returns how many messages the counselor has sent so far.
// The conversation phase is derived from this count.
func (s *Store) CountAIMessages(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE session_id = ? AND sender = ?`, sessionID, models.SenderAI,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ai messages: %w", err)
	}
	return count, nil
}
