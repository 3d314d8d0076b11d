package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	"groundwork/contexts/finance-core/escrow-service/ports"

	"github.com/google/uuid"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type outboxRecord struct {
	Message ports.OutboxMessage
	Status  string
	SentAt  *time.Time
}

// Store is the in-memory adapter backing tests and local runs. It implements
// every escrow port with the same guard semantics as the postgres adapter,
// including version-conditional transaction updates.
type Store struct {
	mu sync.RWMutex

	agreements   map[string]entities.Agreement
	transactions map[string]entities.Transaction
	receipts     map[string]entities.Receipt
	milestones   map[string]entities.Milestone
	idempotency  map[string]ports.IdempotencyRecord
	outbox       map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		agreements:   make(map[string]entities.Agreement),
		transactions: make(map[string]entities.Transaction),
		receipts:     make(map[string]entities.Receipt),
		milestones:   make(map[string]entities.Milestone),
		idempotency:  make(map[string]ports.IdempotencyRecord),
		outbox:       make(map[string]outboxRecord),
	}
}

// SeedMilestones loads contract milestones owned by the upstream contract
// service. Tests and local runs use this in place of the projection feed.
func (s *Store) SeedMilestones(milestones []entities.Milestone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, milestone := range milestones {
		s.milestones[milestone.MilestoneID] = milestone
	}
}

func (s *Store) CreateAgreement(_ context.Context, agreement entities.Agreement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(agreement.AgreementID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.agreements[id]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.agreements[id] = agreement
	return nil
}

func (s *Store) GetAgreement(_ context.Context, agreementID string) (entities.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agreement, ok := s.agreements[strings.TrimSpace(agreementID)]
	if !ok {
		return entities.Agreement{}, domainerrors.ErrAgreementNotFound
	}
	return agreement, nil
}

func (s *Store) ListAgreementsByProject(_ context.Context, projectID string) ([]entities.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Agreement, 0)
	for _, agreement := range s.agreements {
		if agreement.ProjectID == strings.TrimSpace(projectID) {
			items = append(items, agreement)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateAgreementStatus(
	_ context.Context,
	agreementID string,
	expected entities.AgreementStatus,
	next entities.AgreementStatus,
	updatedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agreement, ok := s.agreements[strings.TrimSpace(agreementID)]
	if !ok {
		return domainerrors.ErrAgreementNotFound
	}
	if agreement.Status != expected {
		return domainerrors.ErrStaleState
	}
	agreement.Status = next
	agreement.UpdatedAt = updatedAt.UTC()
	s.agreements[agreement.AgreementID] = agreement
	return nil
}

func (s *Store) FundAgreementWithDeposit(
	_ context.Context,
	agreementID string,
	deposit entities.Transaction,
	fundedAt time.Time,
	envelope ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agreement, ok := s.agreements[strings.TrimSpace(agreementID)]
	if !ok {
		return domainerrors.ErrAgreementNotFound
	}
	if !agreement.Fundable() {
		return domainerrors.ErrStaleState
	}
	if _, exists := s.transactions[deposit.TransactionID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}

	agreement.Status = entities.AgreementStatusFunded
	agreement.Funded = true
	agreement.FundedAmount = agreement.TotalAmount
	agreement.UpdatedAt = fundedAt.UTC()
	s.agreements[agreement.AgreementID] = agreement
	s.transactions[deposit.TransactionID] = deposit
	return s.appendOutboxLocked(envelope)
}

func (s *Store) CreateTransactionWithOutbox(
	_ context.Context,
	txn entities.Transaction,
	envelope ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(txn.TransactionID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.transactions[id]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.transactions[id] = txn
	return s.appendOutboxLocked(envelope)
}

func (s *Store) GetTransaction(_ context.Context, transactionID string) (entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.transactions[strings.TrimSpace(transactionID)]
	if !ok {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	return txn, nil
}

func (s *Store) ListTransactionsByAgreement(_ context.Context, agreementID string) ([]entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Transaction, 0)
	for _, txn := range s.transactions {
		if txn.AgreementID == strings.TrimSpace(agreementID) {
			items = append(items, txn)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) FindOpenReleaseByMilestone(_ context.Context, milestoneID string) (entities.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, txn := range s.transactions {
		if txn.MilestoneID == strings.TrimSpace(milestoneID) && txn.OpenRelease() {
			return txn, true, nil
		}
	}
	return entities.Transaction{}, false, nil
}

func (s *Store) CompleteReleaseWithOutbox(
	_ context.Context,
	txn entities.Transaction,
	expectedVersion int,
	envelope ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.transactions[strings.TrimSpace(txn.TransactionID)]
	if !ok {
		return domainerrors.ErrTransactionNotFound
	}
	if current.Status != entities.TransactionStatusPendingApproval || current.Version != expectedVersion {
		return domainerrors.ErrStaleState
	}

	current.Status = entities.TransactionStatusCompleted
	current.ApprovedBy = txn.ApprovedBy
	current.ApprovedAt = txn.ApprovedAt
	current.ProviderTransferID = txn.ProviderTransferID
	current.Version = expectedVersion + 1
	current.UpdatedAt = txn.UpdatedAt
	s.transactions[current.TransactionID] = current
	return s.appendOutboxLocked(envelope)
}

func (s *Store) MarkTransactionRejected(
	_ context.Context,
	transactionID string,
	expectedStatus entities.TransactionStatus,
	expectedVersion int,
	rejectedBy string,
	reason string,
	rejectedAt time.Time,
	envelope ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.transactions[strings.TrimSpace(transactionID)]
	if !ok {
		return domainerrors.ErrTransactionNotFound
	}
	if current.Status != expectedStatus || current.Version != expectedVersion || !current.Rejectable() {
		return domainerrors.ErrStaleState
	}

	current.Status = entities.TransactionStatusRejected
	current.RejectedBy = rejectedBy
	current.RejectionReason = reason
	current.RejectedAt = rejectedAt.UTC()
	current.Version = expectedVersion + 1
	current.UpdatedAt = rejectedAt.UTC()
	s.transactions[current.TransactionID] = current
	return s.appendOutboxLocked(envelope)
}

func (s *Store) SetTransactionVerification(
	_ context.Context,
	transactionID string,
	expectedVersion int,
	verificationComplete bool,
	next entities.TransactionStatus,
	updatedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.transactions[strings.TrimSpace(transactionID)]
	if !ok {
		return domainerrors.ErrTransactionNotFound
	}
	if current.Version != expectedVersion {
		return domainerrors.ErrStaleState
	}

	current.VerificationComplete = verificationComplete
	current.Status = next
	current.Version = expectedVersion + 1
	current.UpdatedAt = updatedAt.UTC()
	s.transactions[current.TransactionID] = current
	return nil
}

func (s *Store) CreateReceipt(_ context.Context, receipt entities.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(receipt.ReceiptID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.receipts[id]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.receipts[id] = receipt
	return nil
}

func (s *Store) GetReceipt(_ context.Context, receiptID string) (entities.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipt, ok := s.receipts[strings.TrimSpace(receiptID)]
	if !ok {
		return entities.Receipt{}, domainerrors.ErrReceiptNotFound
	}
	return receipt, nil
}

func (s *Store) ListReceiptsByTransaction(_ context.Context, transactionID string) ([]entities.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Receipt, 0)
	for _, receipt := range s.receipts {
		if receipt.TransactionID == strings.TrimSpace(transactionID) {
			items = append(items, receipt)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateReceiptVerification(
	_ context.Context,
	receiptID string,
	verified bool,
	verifierID string,
	notes string,
	verifiedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, ok := s.receipts[strings.TrimSpace(receiptID)]
	if !ok {
		return domainerrors.ErrReceiptNotFound
	}
	receipt.Verified = verified
	receipt.VerifiedBy = verifierID
	receipt.Notes = strings.TrimSpace(notes)
	receipt.VerifiedAt = verifiedAt.UTC()
	s.receipts[receipt.ReceiptID] = receipt
	return nil
}

func (s *Store) GetMilestone(_ context.Context, milestoneID string) (entities.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	milestone, ok := s.milestones[strings.TrimSpace(milestoneID)]
	if !ok {
		return entities.Milestone{}, domainerrors.ErrMilestoneNotFound
	}
	return milestone, nil
}

func (s *Store) ListMilestonesByContract(_ context.Context, contractID string) ([]entities.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Milestone, 0)
	for _, milestone := range s.milestones {
		if milestone.ContractID == strings.TrimSpace(contractID) {
			items = append(items, milestone)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].MilestoneID < items[j].MilestoneID
	})
	return items, nil
}

func (s *Store) MarkMilestonePaid(_ context.Context, milestoneID string, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	milestone, ok := s.milestones[strings.TrimSpace(milestoneID)]
	if !ok {
		return domainerrors.ErrMilestoneNotFound
	}
	milestone.Status = entities.MilestoneStatusPaid
	milestone.UpdatedAt = paidAt.UTC()
	s.milestones[milestone.MilestoneID] = milestone
	return nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrInvalidInput
	}
	if existing, ok := s.idempotency[key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return nil
	}
	s.idempotency[key] = record
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendOutboxLocked(envelope)
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

	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return nil
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

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrTransactionNotFound
	}
	ts := sentAt.UTC()
	row.Status = outboxStatusSent
	row.SentAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
