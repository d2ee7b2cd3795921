package store

import (
	"context"
	"database/sql"

	"github.com/medscan/apiserver/types"
)

// MessageRepository handles persistence for patient-to-doctor messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message types.Message) (types.Message, error) {
	const query = `
		INSERT INTO messages (from_id, to_id, diagnosis_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		message.FromID,
		message.ToID,
		message.DiagnosisID,
		message.Text,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return types.Message{}, err
	}
	return message, nil
}

// ListByRecipient returns messages addressed to an account joined with
// sender identity and diagnosis result, newest first.
func (r *MessageRepository) ListByRecipient(ctx context.Context, toID int) ([]types.MessageListing, error) {
	const query = `
		SELECT m.id, m.from_id, m.to_id, m.diagnosis_id, m.text, m.created_at,
			a.full_name, a.email, d.result
		FROM messages m
		JOIN accounts a ON a.id = m.from_id
		JOIN diagnoses d ON d.id = m.diagnosis_id
		WHERE m.to_id = $1
		ORDER BY m.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, toID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]types.MessageListing, 0)
	for rows.Next() {
		var l types.MessageListing
		if err := rows.Scan(
			&l.ID,
			&l.FromID,
			&l.ToID,
			&l.DiagnosisID,
			&l.Text,
			&l.CreatedAt,
			&l.SenderName,
			&l.SenderEmail,
			&l.DiagnosisResult,
		); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}
