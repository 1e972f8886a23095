package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/kiosk-service/internal/domain"
)

var (
	// ErrTicketNotFound is returned when no record exists for an id.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrTicketExists is returned when creating a ticket whose id is taken.
	ErrTicketExists = errors.New("ticket already exists")
	// ErrConcurrentUpdate is returned when an optimistic update keeps losing races.
	ErrConcurrentUpdate = errors.New("ticket modified concurrently")
)

const defaultListLimit = 50

// TicketFilter captures admin dashboard listing parameters.
type TicketFilter struct {
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

func (f TicketFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

func (f TicketFilter) offset() int {
	if f.Offset < 0 {
		return 0
	}
	return f.Offset
}

func (f TicketFilter) matches(t *domain.Ticket) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, status := range f.Statuses {
		if t.Status == status {
			return true
		}
	}
	return false
}

// MutateFunc changes a ticket in place. Returning an error aborts the update
// without writing anything. It may run more than once on optimistic stores.
type MutateFunc func(t *domain.Ticket) error

// TicketRepository is the durable keyed ticket store. Update applies mutate
// atomically with respect to other updates of the same id.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Update(ctx context.Context, id string, mutate MutateFunc) (*domain.Ticket, error)
}

// dbtx is satisfied by both the pool and a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed store.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, status, requester_name, requester_email, requester_phone, request,
               request_attachment, decline_reason, last_admin_seen_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, status, requester_name, requester_email, requester_phone, request,
            request_attachment, decline_reason, last_admin_seen_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, query,
		ticket.ID,
		ticket.Status,
		ticket.Requester.Name,
		ticket.Requester.Email,
		ticket.Requester.Phone,
		ticket.Requester.Request,
		ticket.Requester.Attachment,
		ticket.DeclineReason,
		ticket.LastAdminSeenAt,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrTicketExists
		}
		return err
	}
	if err := insertMessages(ctx, tx, ticket.ID, 0, ticket.Messages); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return fetchTicket(ctx, r.pool, query, id)
}

// Update locks the row for the duration of the transaction and only inserts
// messages appended by mutate; existing rows are never rewritten.
func (r *ticketRepository) Update(ctx context.Context, id string, mutate MutateFunc) (*domain.Ticket, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	ticket, err := fetchTicket(ctx, tx, query, id)
	if err != nil {
		return nil, err
	}
	existing := len(ticket.Messages)
	if err := mutate(ticket); err != nil {
		return nil, err
	}
	if len(ticket.Messages) < existing {
		return nil, fmt.Errorf("ticket %s: messages are append-only", id)
	}

	const update = `
        UPDATE tickets SET status=$1, decline_reason=$2, last_admin_seen_at=$3, updated_at=$4
        WHERE id=$5`
	cmd, err := tx.Exec(ctx, update,
		ticket.Status,
		ticket.DeclineReason,
		ticket.LastAdminSeenAt,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrTicketNotFound
	}
	if err := insertMessages(ctx, tx, ticket.ID, existing, ticket.Messages[existing:]); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), filter.limit(), filter.offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	tickets, err := scanTickets(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return tickets, nil
	}

	ids := make([]string, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
	}
	byTicket, err := listMessagesByTickets(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if msgs, ok := byTicket[tickets[i].ID]; ok {
			tickets[i].Messages = msgs
		}
	}
	return tickets, nil
}

func fetchTicket(ctx context.Context, db dbtx, query, id string) (*domain.Ticket, error) {
	ticket, err := scanTicket(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	msgs, err := listMessages(ctx, db, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Messages = msgs
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Status,
		&ticket.Requester.Name,
		&ticket.Requester.Email,
		&ticket.Requester.Phone,
		&ticket.Requester.Request,
		&ticket.Requester.Attachment,
		&ticket.DeclineReason,
		&ticket.LastAdminSeenAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.Messages = []domain.Message{}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
