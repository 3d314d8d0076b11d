package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	domainerrors "groundwork/contexts/project-delivery/workflow-gate-service/domain/errors"
	"groundwork/contexts/project-delivery/workflow-gate-service/ports"

	"github.com/google/uuid"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type outboxRecord struct {
	Message ports.OutboxMessage
	Status  string
}

// Store is the in-memory adapter for tests and local runs. Upstream project
// state is seeded; submissions, reviews, and outbox rows are written through
// the ports.
type Store struct {
	mu sync.RWMutex

	projects    map[string]entities.ProjectState
	contracts   map[string]entities.ContractState
	designs     map[string]entities.DesignState
	readiness   map[string]entities.ReadinessState
	closeouts   map[string]entities.CloseoutState
	payments    map[string]entities.PaymentState
	releases    map[string]entities.ReleaseState
	submissions map[string]entities.PermitSubmission
	reviews     map[string]entities.Review
	outbox      map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		projects:    make(map[string]entities.ProjectState),
		contracts:   make(map[string]entities.ContractState),
		designs:     make(map[string]entities.DesignState),
		readiness:   make(map[string]entities.ReadinessState),
		closeouts:   make(map[string]entities.CloseoutState),
		payments:    make(map[string]entities.PaymentState),
		releases:    make(map[string]entities.ReleaseState),
		submissions: make(map[string]entities.PermitSubmission),
		reviews:     make(map[string]entities.Review),
		outbox:      make(map[string]outboxRecord),
	}
}

// Seed helpers set upstream state per project id.

func (s *Store) SeedProject(projectID string, state entities.ProjectState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[projectID] = state
}

func (s *Store) SeedContract(projectID string, state entities.ContractState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[projectID] = state
}

func (s *Store) SeedDesign(projectID string, state entities.DesignState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.designs[projectID] = state
}

func (s *Store) SeedReadiness(projectID string, state entities.ReadinessState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness[projectID] = state
}

func (s *Store) SeedCloseout(projectID string, state entities.CloseoutState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeouts[projectID] = state
}

func (s *Store) SeedPayment(projectID string, state entities.PaymentState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[projectID] = state
}

func (s *Store) SeedRelease(transactionID string, state entities.ReleaseState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases[transactionID] = state
}

func (s *Store) GetProjectState(_ context.Context, projectID string) (entities.ProjectState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects[strings.TrimSpace(projectID)], nil
}

func (s *Store) GetLatestContractState(_ context.Context, projectID string) (entities.ContractState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contracts[strings.TrimSpace(projectID)], nil
}

func (s *Store) GetLatestDesignState(_ context.Context, projectID string) (entities.DesignState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.designs[strings.TrimSpace(projectID)], nil
}

func (s *Store) GetReadinessState(_ context.Context, projectID string) (entities.ReadinessState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readiness[strings.TrimSpace(projectID)], nil
}

func (s *Store) GetCloseoutState(_ context.Context, projectID string) (entities.CloseoutState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closeouts[strings.TrimSpace(projectID)], nil
}

func (s *Store) GetFinalPaymentState(_ context.Context, projectID string) (entities.PaymentState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payments[strings.TrimSpace(projectID)], nil
}

func (s *Store) GetReleaseState(_ context.Context, transactionID string) (entities.ReleaseState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.releases[strings.TrimSpace(transactionID)], nil
}

func (s *Store) CreatePermitSubmission(
	_ context.Context,
	submission entities.PermitSubmission,
	envelope ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(submission.SubmissionID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.submissions[id]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.submissions[id] = submission
	return s.appendOutboxLocked(envelope)
}

func (s *Store) ListPermitSubmissionsByProject(_ context.Context, projectID string) ([]entities.PermitSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.PermitSubmission, 0)
	for _, submission := range s.submissions {
		if submission.ProjectID == strings.TrimSpace(projectID) {
			items = append(items, submission)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})
	return items, nil
}

func (s *Store) CreateReview(_ context.Context, review entities.Review, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(review.ReviewID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.reviews[id]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	for _, existing := range s.reviews {
		if existing.ProjectID == review.ProjectID && existing.ReviewerID == review.ReviewerID {
			return domainerrors.ErrDuplicateReview
		}
	}
	s.reviews[id] = review
	return s.appendOutboxLocked(envelope)
}

func (s *Store) ListReviewsByProject(_ context.Context, projectID string) ([]entities.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Review, 0)
	for _, review := range s.reviews {
		if review.ProjectID == strings.TrimSpace(projectID) {
			items = append(items, review)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) HasReviewByReviewer(_ context.Context, projectID string, reviewerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, review := range s.reviews {
		if review.ProjectID == strings.TrimSpace(projectID) && review.ReviewerID == strings.TrimSpace(reviewerID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.outbox[outboxID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}

	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	row.Status = outboxStatusSent
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
