package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"groundwork/contexts/internal-ops/audit-trail-service/domain/entities"
	domainerrors "groundwork/contexts/internal-ops/audit-trail-service/domain/errors"

	"github.com/google/uuid"
)

// Store is the in-memory append-only audit log for tests and local runs.
type Store struct {
	mu     sync.RWMutex
	events []entities.AuditEvent
	byID   map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		byID: make(map[string]struct{}),
	}
}

func (s *Store) AppendAuditEvent(_ context.Context, event entities.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(event.EventID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.byID[id]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.byID[id] = struct{}{}
	s.events = append(s.events, event)
	return nil
}

func (s *Store) ListAuditEventsByResource(
	_ context.Context,
	resourceType string,
	resourceID string,
	limit int,
) ([]entities.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.AuditEvent, 0)
	for _, event := range s.events {
		if event.ResourceType == resourceType && event.ResourceID == resourceID {
			items = append(items, event)
		}
	}
	return newestFirst(items, limit), nil
}

func (s *Store) ListRecentAuditEvents(_ context.Context, limit int) ([]entities.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.AuditEvent, len(s.events))
	copy(items, s.events)
	return newestFirst(items, limit), nil
}

func newestFirst(items []entities.AuditEvent, limit int) []entities.AuditEvent {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].OccurredAt.After(items[j].OccurredAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
