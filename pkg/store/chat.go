package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateChatMessage appends a message to a polygon's chat history.
func (s *Store) CreateChatMessage(ctx context.Context, message *ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	start := time.Now()
	query := `
		INSERT INTO chat_messages (id, polygon_id, user_id, sender, text)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		message.ID,
		message.PolygonID,
		message.UserID,
		message.Sender,
		message.Text,
	).Scan(&message.CreatedAt)
	s.observe("create_chat_message", start, err)

	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// ListChatByPolygon returns a polygon's chat history in order.
func (s *Store) ListChatByPolygon(ctx context.Context, polygonID string) ([]*ChatMessage, error) {
	start := time.Now()
	query := `
		SELECT id, polygon_id, user_id, sender, text, created_at
		FROM chat_messages
		WHERE polygon_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, polygonID)
	s.observe("list_chat", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*ChatMessage
	for rows.Next() {
		var message ChatMessage
		if err := rows.Scan(
			&message.ID,
			&message.PolygonID,
			&message.UserID,
			&message.Sender,
			&message.Text,
			&message.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, &message)
	}
	return messages, rows.Err()
}
