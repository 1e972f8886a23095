package repository

import (
	"context"

	"github.com/spec-kit/kiosk-service/internal/domain"
)

const messageColumns = `id, ticket_id, origin, body, cited_url, attachment, sent_at`

// insertMessages appends rows starting at sequence number start.
func insertMessages(ctx context.Context, db dbtx, ticketID string, start int, msgs []domain.Message) error {
	const query = `
        INSERT INTO ticket_messages (id, ticket_id, seq, origin, body, cited_url, attachment, sent_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	for i, msg := range msgs {
		if _, err := db.Exec(ctx, query,
			msg.ID,
			ticketID,
			start+i,
			msg.Origin,
			msg.Text,
			msg.CitedURL,
			msg.Attachment,
			msg.SentAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func listMessages(ctx context.Context, db dbtx, ticketID string) ([]domain.Message, error) {
	byTicket, err := listMessagesByTickets(ctx, db, []string{ticketID})
	if err != nil {
		return nil, err
	}
	if msgs, ok := byTicket[ticketID]; ok {
		return msgs, nil
	}
	return []domain.Message{}, nil
}

func listMessagesByTickets(ctx context.Context, db dbtx, ticketIDs []string) (map[string][]domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM ticket_messages WHERE ticket_id = ANY($1) ORDER BY ticket_id, seq ASC`
	rows, err := db.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.Message, len(ticketIDs))
	for rows.Next() {
		var (
			msg      domain.Message
			ticketID string
		)
		if err := rows.Scan(
			&msg.ID,
			&ticketID,
			&msg.Origin,
			&msg.Text,
			&msg.CitedURL,
			&msg.Attachment,
			&msg.SentAt,
		); err != nil {
			return nil, err
		}
		result[ticketID] = append(result[ticketID], msg)
	}
	return result, rows.Err()
}
