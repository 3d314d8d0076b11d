package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"groundwork/contexts/finance-core/escrow-service/domain/entities"
	domainerrors "groundwork/contexts/finance-core/escrow-service/domain/errors"
	"groundwork/contexts/finance-core/escrow-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateAgreement(ctx context.Context, agreement entities.Agreement) error {
	row := agreementModelFromEntity(agreement)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func (r *Repository) GetAgreement(ctx context.Context, agreementID string) (entities.Agreement, error) {
	var row agreementModel
	err := r.db.WithContext(ctx).
		Where("agreement_id = ?", agreementID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Agreement{}, domainerrors.ErrAgreementNotFound
		}
		return entities.Agreement{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAgreementsByProject(ctx context.Context, projectID string) ([]entities.Agreement, error) {
	var rows []agreementModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Agreement, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateAgreementStatus(
	ctx context.Context,
	agreementID string,
	expected entities.AgreementStatus,
	next entities.AgreementStatus,
	updatedAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&agreementModel{}).
		Where("agreement_id = ? AND status = ?", agreementID, string(expected)).
		Updates(map[string]any{
			"status":     string(next),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&agreementModel{}).
			Where("agreement_id = ?", agreementID).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrAgreementNotFound
		}
		return domainerrors.ErrStaleState
	}
	return nil
}

func (r *Repository) FundAgreementWithDeposit(
	ctx context.Context,
	agreementID string,
	deposit entities.Transaction,
	fundedAt time.Time,
	envelope ports.EventEnvelope,
) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&agreementModel{}).
			Where(
				"agreement_id = ? AND status IN ?",
				agreementID,
				[]string{string(entities.AgreementStatusDraft), string(entities.AgreementStatusPendingFunding)},
			).
			Updates(map[string]any{
				"status":        string(entities.AgreementStatusFunded),
				"funded":        true,
				"funded_amount": gorm.Expr("total_amount"),
				"updated_at":    fundedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.
				Model(&agreementModel{}).
				Where("agreement_id = ?", agreementID).
				Count(&count).
				Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrAgreementNotFound
			}
			return domainerrors.ErrStaleState
		}

		depositRow := transactionModelFromEntity(deposit)
		if err := tx.Create(&depositRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		return appendOutbox(tx, envelope, payload)
	})
}

func (r *Repository) CreateTransactionWithOutbox(
	ctx context.Context,
	txn entities.Transaction,
	envelope ports.EventEnvelope,
) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := transactionModelFromEntity(txn)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		return appendOutbox(tx, envelope, payload)
	})
}

func (r *Repository) GetTransaction(ctx context.Context, transactionID string) (entities.Transaction, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Transaction{}, domainerrors.ErrTransactionNotFound
		}
		return entities.Transaction{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListTransactionsByAgreement(ctx context.Context, agreementID string) ([]entities.Transaction, error) {
	var rows []transactionModel
	if err := r.db.WithContext(ctx).
		Where("agreement_id = ?", agreementID).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Transaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) FindOpenReleaseByMilestone(ctx context.Context, milestoneID string) (entities.Transaction, bool, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where(
			"milestone_id = ? AND type = ? AND status IN ?",
			milestoneID,
			string(entities.TransactionTypeRelease),
			[]string{
				string(entities.TransactionStatusPending),
				string(entities.TransactionStatusProcessing),
				string(entities.TransactionStatusVerificationRequired),
				string(entities.TransactionStatusPendingApproval),
				string(entities.TransactionStatusApproved),
			},
		).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Transaction{}, false, nil
		}
		return entities.Transaction{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CompleteReleaseWithOutbox(
	ctx context.Context,
	txn entities.Transaction,
	expectedVersion int,
	envelope ports.EventEnvelope,
) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&transactionModel{}).
			Where(
				"transaction_id = ? AND status = ? AND version = ?",
				txn.TransactionID,
				string(entities.TransactionStatusPendingApproval),
				expectedVersion,
			).
			Updates(map[string]any{
				"status":               string(entities.TransactionStatusCompleted),
				"approved_by":          txn.ApprovedBy,
				"approved_at":          txn.ApprovedAt.UTC(),
				"provider_transfer_id": txn.ProviderTransferID,
				"version":              expectedVersion + 1,
				"updated_at":           txn.UpdatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.
				Model(&transactionModel{}).
				Where("transaction_id = ?", txn.TransactionID).
				Count(&count).
				Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrTransactionNotFound
			}
			return domainerrors.ErrStaleState
		}
		return appendOutbox(tx, envelope, payload)
	})
}

func (r *Repository) MarkTransactionRejected(
	ctx context.Context,
	transactionID string,
	expectedStatus entities.TransactionStatus,
	expectedVersion int,
	rejectedBy string,
	reason string,
	rejectedAt time.Time,
	envelope ports.EventEnvelope,
) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&transactionModel{}).
			Where(
				"transaction_id = ? AND status = ? AND version = ?",
				transactionID,
				string(expectedStatus),
				expectedVersion,
			).
			Updates(map[string]any{
				"status":           string(entities.TransactionStatusRejected),
				"rejected_by":      rejectedBy,
				"rejection_reason": reason,
				"rejected_at":      rejectedAt.UTC(),
				"version":          expectedVersion + 1,
				"updated_at":       rejectedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.
				Model(&transactionModel{}).
				Where("transaction_id = ?", transactionID).
				Count(&count).
				Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrTransactionNotFound
			}
			return domainerrors.ErrStaleState
		}
		return appendOutbox(tx, envelope, payload)
	})
}

func (r *Repository) SetTransactionVerification(
	ctx context.Context,
	transactionID string,
	expectedVersion int,
	verificationComplete bool,
	next entities.TransactionStatus,
	updatedAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("transaction_id = ? AND version = ?", transactionID, expectedVersion).
		Updates(map[string]any{
			"verification_complete": verificationComplete,
			"status":                string(next),
			"version":               expectedVersion + 1,
			"updated_at":            updatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&transactionModel{}).
			Where("transaction_id = ?", transactionID).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrTransactionNotFound
		}
		return domainerrors.ErrStaleState
	}
	return nil
}

func (r *Repository) CreateReceipt(ctx context.Context, receipt entities.Receipt) error {
	row := receiptModelFromEntity(receipt)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func (r *Repository) GetReceipt(ctx context.Context, receiptID string) (entities.Receipt, error) {
	var row receiptModel
	err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Receipt{}, domainerrors.ErrReceiptNotFound
		}
		return entities.Receipt{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListReceiptsByTransaction(ctx context.Context, transactionID string) ([]entities.Receipt, error) {
	var rows []receiptModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Receipt, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateReceiptVerification(
	ctx context.Context,
	receiptID string,
	verified bool,
	verifierID string,
	notes string,
	verifiedAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&receiptModel{}).
		Where("receipt_id = ?", receiptID).
		Updates(map[string]any{
			"verified":    verified,
			"verified_by": verifierID,
			"notes":       notes,
			"verified_at": verifiedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrReceiptNotFound
	}
	return nil
}

func (r *Repository) GetMilestone(ctx context.Context, milestoneID string) (entities.Milestone, error) {
	var row milestoneModel
	err := r.db.WithContext(ctx).
		Where("milestone_id = ?", milestoneID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Milestone{}, domainerrors.ErrMilestoneNotFound
		}
		return entities.Milestone{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListMilestonesByContract(ctx context.Context, contractID string) ([]entities.Milestone, error) {
	var rows []milestoneModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("milestone_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Milestone, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MarkMilestonePaid(ctx context.Context, milestoneID string, paidAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&milestoneModel{}).
		Where("milestone_id = ?", milestoneID).
		Updates(map[string]any{
			"status":     string(entities.MilestoneStatusPaid),
			"updated_at": paidAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrMilestoneNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", key).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}

	return row.toPort(), true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModelFromPort(record)
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", record.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return appendOutbox(r.db.WithContext(ctx), envelope, payload)
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func appendOutbox(tx *gorm.DB, envelope ports.EventEnvelope, payload []byte) error {
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

type agreementModel struct {
	AgreementID  string    `gorm:"column:agreement_id;primaryKey"`
	ProjectID    string    `gorm:"column:project_id"`
	ContractID   string    `gorm:"column:contract_id"`
	PayerID      string    `gorm:"column:payer_id"`
	PayeeID      string    `gorm:"column:payee_id"`
	TotalAmount  float64   `gorm:"column:total_amount"`
	Currency     string    `gorm:"column:currency"`
	Funded       bool      `gorm:"column:funded"`
	FundedAmount float64   `gorm:"column:funded_amount"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (agreementModel) TableName() string {
	return "escrow_agreements"
}

func agreementModelFromEntity(agreement entities.Agreement) agreementModel {
	return agreementModel{
		AgreementID:  agreement.AgreementID,
		ProjectID:    agreement.ProjectID,
		ContractID:   agreement.ContractID,
		PayerID:      agreement.PayerID,
		PayeeID:      agreement.PayeeID,
		TotalAmount:  agreement.TotalAmount,
		Currency:     agreement.Currency,
		Funded:       agreement.Funded,
		FundedAmount: agreement.FundedAmount,
		Status:       string(agreement.Status),
		CreatedAt:    agreement.CreatedAt.UTC(),
		UpdatedAt:    agreement.UpdatedAt.UTC(),
	}
}

func (m agreementModel) toEntity() entities.Agreement {
	return entities.Agreement{
		AgreementID:  m.AgreementID,
		ProjectID:    m.ProjectID,
		ContractID:   m.ContractID,
		PayerID:      m.PayerID,
		PayeeID:      m.PayeeID,
		TotalAmount:  m.TotalAmount,
		Currency:     m.Currency,
		Funded:       m.Funded,
		FundedAmount: m.FundedAmount,
		Status:       entities.AgreementStatus(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type transactionModel struct {
	TransactionID        string    `gorm:"column:transaction_id;primaryKey"`
	AgreementID          string    `gorm:"column:agreement_id"`
	Type                 string    `gorm:"column:type"`
	Amount               float64   `gorm:"column:amount"`
	Currency             string    `gorm:"column:currency"`
	MilestoneID          string    `gorm:"column:milestone_id"`
	Status               string    `gorm:"column:status"`
	VerificationComplete bool      `gorm:"column:verification_complete"`
	RequestedBy          string    `gorm:"column:requested_by"`
	RequestedAt          time.Time `gorm:"column:requested_at"`
	RequestNotes         string    `gorm:"column:request_notes"`
	ApprovedBy           string    `gorm:"column:approved_by"`
	ApprovedAt           time.Time `gorm:"column:approved_at"`
	RejectedBy           string    `gorm:"column:rejected_by"`
	RejectedAt           time.Time `gorm:"column:rejected_at"`
	RejectionReason      string    `gorm:"column:rejection_reason"`
	ProviderTransferID   string    `gorm:"column:provider_transfer_id"`
	Version              int       `gorm:"column:version"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (transactionModel) TableName() string {
	return "escrow_transactions"
}

func transactionModelFromEntity(txn entities.Transaction) transactionModel {
	return transactionModel{
		TransactionID:        txn.TransactionID,
		AgreementID:          txn.AgreementID,
		Type:                 string(txn.Type),
		Amount:               txn.Amount,
		Currency:             txn.Currency,
		MilestoneID:          txn.MilestoneID,
		Status:               string(txn.Status),
		VerificationComplete: txn.VerificationComplete,
		RequestedBy:          txn.RequestedBy,
		RequestedAt:          txn.RequestedAt.UTC(),
		RequestNotes:         txn.RequestNotes,
		ApprovedBy:           txn.ApprovedBy,
		ApprovedAt:           txn.ApprovedAt.UTC(),
		RejectedBy:           txn.RejectedBy,
		RejectedAt:           txn.RejectedAt.UTC(),
		RejectionReason:      txn.RejectionReason,
		ProviderTransferID:   txn.ProviderTransferID,
		Version:              txn.Version,
		CreatedAt:            txn.CreatedAt.UTC(),
		UpdatedAt:            txn.UpdatedAt.UTC(),
	}
}

func (m transactionModel) toEntity() entities.Transaction {
	return entities.Transaction{
		TransactionID:        m.TransactionID,
		AgreementID:          m.AgreementID,
		Type:                 entities.TransactionType(m.Type),
		Amount:               m.Amount,
		Currency:             m.Currency,
		MilestoneID:          m.MilestoneID,
		Status:               entities.TransactionStatus(m.Status),
		VerificationComplete: m.VerificationComplete,
		RequestedBy:          m.RequestedBy,
		RequestedAt:          m.RequestedAt.UTC(),
		RequestNotes:         m.RequestNotes,
		ApprovedBy:           m.ApprovedBy,
		ApprovedAt:           m.ApprovedAt.UTC(),
		RejectedBy:           m.RejectedBy,
		RejectedAt:           m.RejectedAt.UTC(),
		RejectionReason:      m.RejectionReason,
		ProviderTransferID:   m.ProviderTransferID,
		Version:              m.Version,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}

type receiptModel struct {
	ReceiptID     string    `gorm:"column:receipt_id;primaryKey"`
	TransactionID string    `gorm:"column:transaction_id"`
	Amount        float64   `gorm:"column:amount"`
	Vendor        string    `gorm:"column:vendor"`
	IssuedAt      time.Time `gorm:"column:issued_at"`
	EvidenceURL   string    `gorm:"column:evidence_url"`
	OCRExtract    string    `gorm:"column:ocr_extract"`
	Verified      bool      `gorm:"column:verified"`
	VerifiedBy    string    `gorm:"column:verified_by"`
	VerifiedAt    time.Time `gorm:"column:verified_at"`
	Notes         string    `gorm:"column:notes"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (receiptModel) TableName() string {
	return "escrow_receipts"
}

func receiptModelFromEntity(receipt entities.Receipt) receiptModel {
	return receiptModel{
		ReceiptID:     receipt.ReceiptID,
		TransactionID: receipt.TransactionID,
		Amount:        receipt.Amount,
		Vendor:        receipt.Vendor,
		IssuedAt:      receipt.IssuedAt.UTC(),
		EvidenceURL:   receipt.EvidenceURL,
		OCRExtract:    receipt.OCRExtract,
		Verified:      receipt.Verified,
		VerifiedBy:    receipt.VerifiedBy,
		VerifiedAt:    receipt.VerifiedAt.UTC(),
		Notes:         receipt.Notes,
		CreatedAt:     receipt.CreatedAt.UTC(),
	}
}

func (m receiptModel) toEntity() entities.Receipt {
	return entities.Receipt{
		ReceiptID:     m.ReceiptID,
		TransactionID: m.TransactionID,
		Amount:        m.Amount,
		Vendor:        m.Vendor,
		IssuedAt:      m.IssuedAt.UTC(),
		EvidenceURL:   m.EvidenceURL,
		OCRExtract:    m.OCRExtract,
		Verified:      m.Verified,
		VerifiedBy:    m.VerifiedBy,
		VerifiedAt:    m.VerifiedAt.UTC(),
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

type milestoneModel struct {
	MilestoneID string    `gorm:"column:milestone_id;primaryKey"`
	ContractID  string    `gorm:"column:contract_id"`
	Title       string    `gorm:"column:title"`
	Amount      *float64  `gorm:"column:amount"`
	Status      string    `gorm:"column:status"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (milestoneModel) TableName() string {
	return "contract_milestones"
}

func (m milestoneModel) toEntity() entities.Milestone {
	return entities.Milestone{
		MilestoneID: m.MilestoneID,
		ContractID:  m.ContractID,
		Title:       m.Title,
		Amount:      m.Amount,
		Status:      entities.MilestoneStatus(m.Status),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key           string    `gorm:"column:key;primaryKey"`
	RequestHash   string    `gorm:"column:request_hash"`
	TransactionID string    `gorm:"column:transaction_id"`
	ExpiresAt     time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "escrow_idempotency"
}

func idempotencyModelFromPort(record ports.IdempotencyRecord) idempotencyModel {
	return idempotencyModel{
		Key:           record.Key,
		RequestHash:   record.RequestHash,
		TransactionID: record.TransactionID,
		ExpiresAt:     record.ExpiresAt.UTC(),
	}
}

func (m idempotencyModel) toPort() ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Key:           m.Key,
		RequestHash:   m.RequestHash,
		TransactionID: m.TransactionID,
		ExpiresAt:     m.ExpiresAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "escrow_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
