package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/kiosk-service/internal/domain"
)

const maxCASAttempts = 10

type redisTicketRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisTicketRepository stores each ticket as one JSON document and
// updates it with WATCH/MULTI compare-and-swap.
func NewRedisTicketRepository(client *redis.Client, prefix string) TicketRepository {
	return &redisTicketRepository{client: client, prefix: prefix}
}

type ticketRecord struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	Requester       requesterRecord `json:"requester"`
	DeclineReason   *string         `json:"decline_reason,omitempty"`
	Messages        []messageRecord `json:"messages"`
	LastAdminSeenAt *time.Time      `json:"last_admin_seen_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type requesterRecord struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Request    string `json:"request"`
	Attachment string `json:"attachment,omitempty"`
}

type messageRecord struct {
	ID         string    `json:"id"`
	Origin     string    `json:"origin"`
	Text       string    `json:"text"`
	CitedURL   string    `json:"cited_url,omitempty"`
	Attachment string    `json:"attachment,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

func (r *redisTicketRepository) ticketKey(id string) string {
	return r.prefix + "ticket:" + id
}

func (r *redisTicketRepository) indexKey() string {
	return r.prefix + "tickets"
}

func (r *redisTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	payload, err := encodeTicket(ticket)
	if err != nil {
		return err
	}
	created, err := r.client.SetNX(ctx, r.ticketKey(ticket.ID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	if !created {
		return ErrTicketExists
	}
	if err := r.client.ZAdd(ctx, r.indexKey(), redis.Z{
		Score:  float64(ticket.CreatedAt.UnixMilli()),
		Member: ticket.ID,
	}).Err(); err != nil {
		// An unindexed ticket would never be listed.
		if delErr := r.client.Del(context.WithoutCancel(ctx), r.ticketKey(ticket.ID)).Err(); delErr != nil {
			return fmt.Errorf("index ticket: %w", errors.Join(err, delErr))
		}
		return fmt.Errorf("index ticket: %w", err)
	}
	return nil
}

func (r *redisTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	raw, err := r.client.Get(ctx, r.ticketKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return decodeTicket(raw)
}

func (r *redisTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Ticket{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.ticketKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := []domain.Ticket{}
	skipped := 0
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		ticket, err := decodeTicket([]byte(raw))
		if err != nil {
			return nil, err
		}
		if !filter.matches(ticket) {
			continue
		}
		if skipped < filter.offset() {
			skipped++
			continue
		}
		result = append(result, *ticket)
		if len(result) == filter.limit() {
			break
		}
	}
	return result, nil
}

func (r *redisTicketRepository) Update(ctx context.Context, id string, mutate MutateFunc) (*domain.Ticket, error) {
	key := r.ticketKey(id)
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		var updated *domain.Ticket
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrTicketNotFound
				}
				return err
			}
			ticket, err := decodeTicket(raw)
			if err != nil {
				return err
			}
			if err := mutate(ticket); err != nil {
				return err
			}
			payload, err := encodeTicket(ticket)
			if err != nil {
				return err
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				return nil
			}); err != nil {
				return err
			}
			updated = ticket
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrConcurrentUpdate
}

func encodeTicket(t *domain.Ticket) ([]byte, error) {
	record := ticketRecord{
		ID:     t.ID,
		Status: string(t.Status),
		Requester: requesterRecord{
			Name:       t.Requester.Name,
			Email:      t.Requester.Email,
			Phone:      t.Requester.Phone,
			Request:    t.Requester.Request,
			Attachment: t.Requester.Attachment,
		},
		DeclineReason:   t.DeclineReason,
		Messages:        make([]messageRecord, 0, len(t.Messages)),
		LastAdminSeenAt: t.LastAdminSeenAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	for _, msg := range t.Messages {
		record.Messages = append(record.Messages, messageRecord{
			ID:         msg.ID,
			Origin:     string(msg.Origin),
			Text:       msg.Text,
			CitedURL:   msg.CitedURL,
			Attachment: msg.Attachment,
			SentAt:     msg.SentAt,
		})
	}
	return json.Marshal(record)
}

func decodeTicket(raw []byte) (*domain.Ticket, error) {
	var record ticketRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode ticket: %w", err)
	}
	ticket := &domain.Ticket{
		ID:     record.ID,
		Status: domain.TicketStatus(record.Status),
		Requester: domain.RequesterInfo{
			Name:       record.Requester.Name,
			Email:      record.Requester.Email,
			Phone:      record.Requester.Phone,
			Request:    record.Requester.Request,
			Attachment: record.Requester.Attachment,
		},
		DeclineReason:   record.DeclineReason,
		Messages:        make([]domain.Message, 0, len(record.Messages)),
		LastAdminSeenAt: record.LastAdminSeenAt,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
	for _, msg := range record.Messages {
		ticket.Messages = append(ticket.Messages, domain.Message{
			ID:         msg.ID,
			Origin:     domain.MessageOrigin(msg.Origin),
			Text:       msg.Text,
			CitedURL:   msg.CitedURL,
			Attachment: msg.Attachment,
			SentAt:     msg.SentAt,
		})
	}
	return ticket, nil
}
