package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/kiosk-service/internal/domain"
)

type memoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
	locks   sync.Map
}

// NewMemoryTicketRepository returns an in-process store. Updates are
// serialized per ticket id; different tickets never contend.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{tickets: make(map[string]*domain.Ticket)}
}

func (r *memoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[ticket.ID]; exists {
		return ErrTicketExists
	}
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *memoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return ticket.Clone(), nil
}

func (r *memoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	matched := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if filter.matches(ticket) {
			matched = append(matched, *ticket.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := filter.offset()
	if start >= len(matched) {
		return []domain.Ticket{}, nil
	}
	end := start + filter.limit()
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *memoryTicketRepository) Update(ctx context.Context, id string, mutate MutateFunc) (*domain.Ticket, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	ticket, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(ticket); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.tickets[id] = ticket.Clone()
	r.mu.Unlock()
	return ticket, nil
}

// lockFor is only called for stored ids; tickets are never deleted, so the
// lock set is bounded by the ticket set.
func (r *memoryTicketRepository) lockFor(id string) *sync.Mutex {
	lock, _ := r.locks.LoadOrStore(id, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
