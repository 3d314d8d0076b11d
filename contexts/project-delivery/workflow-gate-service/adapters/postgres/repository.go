package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"groundwork/contexts/project-delivery/workflow-gate-service/domain/entities"
	domainerrors "groundwork/contexts/project-delivery/workflow-gate-service/domain/errors"
	"groundwork/contexts/project-delivery/workflow-gate-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

// Repository reads upstream project state from projection tables and writes
// submissions, reviews, and outbox rows. The projections are maintained by
// their owning services; this adapter never writes them.
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

func (r *Repository) GetProjectState(ctx context.Context, projectID string) (entities.ProjectState, error) {
	var row projectModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ProjectState{}, nil
		}
		return entities.ProjectState{}, err
	}
	return entities.ProjectState{Found: true, Status: row.Status}, nil
}

func (r *Repository) GetLatestContractState(ctx context.Context, projectID string) (entities.ContractState, error) {
	var row contractModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ContractState{}, nil
		}
		return entities.ContractState{}, err
	}
	return entities.ContractState{Found: true, Status: row.Status}, nil
}

func (r *Repository) GetLatestDesignState(ctx context.Context, projectID string) (entities.DesignState, error) {
	var row designVersionModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("version DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DesignState{}, nil
		}
		return entities.DesignState{}, err
	}
	return entities.DesignState{Found: true, Status: row.Status}, nil
}

func (r *Repository) GetReadinessState(ctx context.Context, projectID string) (entities.ReadinessState, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&readinessItemModel{}).
		Where("project_id = ? AND required = ?", projectID, true).
		Count(&total).
		Error; err != nil {
		return entities.ReadinessState{}, err
	}

	var completed int64
	if err := r.db.WithContext(ctx).
		Model(&readinessItemModel{}).
		Where("project_id = ? AND required = ? AND status = ?", projectID, true, "completed").
		Count(&completed).
		Error; err != nil {
		return entities.ReadinessState{}, err
	}

	return entities.ReadinessState{
		RequiredTotal:     int(total),
		RequiredCompleted: int(completed),
	}, nil
}

func (r *Repository) GetCloseoutState(ctx context.Context, projectID string) (entities.CloseoutState, error) {
	var row closeoutModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CloseoutState{}, nil
		}
		return entities.CloseoutState{}, err
	}
	return entities.CloseoutState{Found: true, Status: row.Status}, nil
}

func (r *Repository) GetFinalPaymentState(ctx context.Context, projectID string) (entities.PaymentState, error) {
	var row finalPaymentModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PaymentState{}, nil
		}
		return entities.PaymentState{}, err
	}
	return entities.PaymentState{FinalPaymentReleased: row.Released}, nil
}

func (r *Repository) CreatePermitSubmission(
	ctx context.Context,
	submission entities.PermitSubmission,
	envelope ports.EventEnvelope,
) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := permitSubmissionModel{
			SubmissionID: submission.SubmissionID,
			ProjectID:    submission.ProjectID,
			SubmittedBy:  submission.SubmittedBy,
			Status:       string(submission.Status),
			SubmittedAt:  submission.SubmittedAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		return appendOutbox(tx, envelope, payload)
	})
}

func (r *Repository) ListPermitSubmissionsByProject(ctx context.Context, projectID string) ([]entities.PermitSubmission, error) {
	var rows []permitSubmissionModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("submitted_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.PermitSubmission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateReview(ctx context.Context, review entities.Review, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := reviewModel{
			ReviewID:   review.ReviewID,
			ProjectID:  review.ProjectID,
			ReviewerID: review.ReviewerID,
			Rating:     review.Rating,
			Comment:    review.Comment,
			CreatedAt:  review.CreatedAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				if constraintName(err) == "project_reviews_unique_reviewer" {
					return domainerrors.ErrDuplicateReview
				}
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		return appendOutbox(tx, envelope, payload)
	})
}

func (r *Repository) ListReviewsByProject(ctx context.Context, projectID string) ([]entities.Review, error) {
	var rows []reviewModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Review, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) HasReviewByReviewer(ctx context.Context, projectID string, reviewerID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&reviewModel{}).
		Where("project_id = ? AND reviewer_id = ?", projectID, reviewerID).
		Count(&count).
		Error; err != nil {
		return false, err
	}
	return count > 0, nil
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
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
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

type projectModel struct {
	ProjectID string `gorm:"column:project_id;primaryKey"`
	Status    string `gorm:"column:status"`
}

func (projectModel) TableName() string {
	return "projects"
}

type contractModel struct {
	ContractID string    `gorm:"column:contract_id;primaryKey"`
	ProjectID  string    `gorm:"column:project_id"`
	Status     string    `gorm:"column:status"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (contractModel) TableName() string {
	return "contracts"
}

type designVersionModel struct {
	DesignID  string `gorm:"column:design_id;primaryKey"`
	ProjectID string `gorm:"column:project_id"`
	Version   int    `gorm:"column:version"`
	Status    string `gorm:"column:status"`
}

func (designVersionModel) TableName() string {
	return "design_versions"
}

type readinessItemModel struct {
	ItemID    string `gorm:"column:item_id;primaryKey"`
	ProjectID string `gorm:"column:project_id"`
	Required  bool   `gorm:"column:required"`
	Status    string `gorm:"column:status"`
}

func (readinessItemModel) TableName() string {
	return "readiness_items"
}

type closeoutModel struct {
	ProjectID string `gorm:"column:project_id;primaryKey"`
	Status    string `gorm:"column:status"`
}

func (closeoutModel) TableName() string {
	return "project_closeouts"
}

type finalPaymentModel struct {
	ProjectID string `gorm:"column:project_id;primaryKey"`
	Released  bool   `gorm:"column:released"`
}

func (finalPaymentModel) TableName() string {
	return "project_final_payments"
}

type permitSubmissionModel struct {
	SubmissionID string    `gorm:"column:submission_id;primaryKey"`
	ProjectID    string    `gorm:"column:project_id"`
	SubmittedBy  string    `gorm:"column:submitted_by"`
	Status       string    `gorm:"column:status"`
	SubmittedAt  time.Time `gorm:"column:submitted_at"`
}

func (permitSubmissionModel) TableName() string {
	return "permit_submissions"
}

func (m permitSubmissionModel) toEntity() entities.PermitSubmission {
	return entities.PermitSubmission{
		SubmissionID: m.SubmissionID,
		ProjectID:    m.ProjectID,
		SubmittedBy:  m.SubmittedBy,
		Status:       entities.PermitSubmissionStatus(m.Status),
		SubmittedAt:  m.SubmittedAt.UTC(),
	}
}

type reviewModel struct {
	ReviewID   string    `gorm:"column:review_id;primaryKey"`
	ProjectID  string    `gorm:"column:project_id"`
	ReviewerID string    `gorm:"column:reviewer_id"`
	Rating     int       `gorm:"column:rating"`
	Comment    string    `gorm:"column:comment"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (reviewModel) TableName() string {
	return "project_reviews"
}

func (m reviewModel) toEntity() entities.Review {
	return entities.Review{
		ReviewID:   m.ReviewID,
		ProjectID:  m.ProjectID,
		ReviewerID: m.ReviewerID,
		Rating:     m.Rating,
		Comment:    m.Comment,
		CreatedAt:  m.CreatedAt.UTC(),
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
	return "workflow_gate_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
