package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"groundwork/contexts/internal-ops/audit-trail-service/domain/entities"
	domainerrors "groundwork/contexts/internal-ops/audit-trail-service/domain/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) AppendAuditEvent(ctx context.Context, event entities.AuditEvent) error {
	row, err := auditEventModelFromEntity(event)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func (r *Repository) ListAuditEventsByResource(
	ctx context.Context,
	resourceType string,
	resourceID string,
	limit int,
) ([]entities.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []auditEventModel
	if err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return rowsToEntities(rows)
}

func (r *Repository) ListRecentAuditEvents(ctx context.Context, limit int) ([]entities.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []auditEventModel
	if err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return rowsToEntities(rows)
}

type auditEventModel struct {
	EventID      string    `gorm:"column:event_id;primaryKey"`
	ActorID      string    `gorm:"column:actor_id"`
	Action       string    `gorm:"column:action"`
	ResourceType string    `gorm:"column:resource_type"`
	ResourceID   string    `gorm:"column:resource_id"`
	Detail       []byte    `gorm:"column:detail"`
	OccurredAt   time.Time `gorm:"column:occurred_at"`
}

func (auditEventModel) TableName() string {
	return "audit_events"
}

func auditEventModelFromEntity(event entities.AuditEvent) (auditEventModel, error) {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return auditEventModel{}, err
	}
	return auditEventModel{
		EventID:      event.EventID,
		ActorID:      event.ActorID,
		Action:       event.Action,
		ResourceType: event.ResourceType,
		ResourceID:   event.ResourceID,
		Detail:       detail,
		OccurredAt:   event.OccurredAt.UTC(),
	}, nil
}

func (m auditEventModel) toEntity() (entities.AuditEvent, error) {
	detail := map[string]string{}
	if len(m.Detail) > 0 {
		if err := json.Unmarshal(m.Detail, &detail); err != nil {
			return entities.AuditEvent{}, err
		}
	}
	return entities.AuditEvent{
		EventID:      m.EventID,
		ActorID:      m.ActorID,
		Action:       m.Action,
		ResourceType: m.ResourceType,
		ResourceID:   m.ResourceID,
		Detail:       detail,
		OccurredAt:   m.OccurredAt.UTC(),
	}, nil
}

func rowsToEntities(rows []auditEventModel) ([]entities.AuditEvent, error) {
	items := make([]entities.AuditEvent, 0, len(rows))
	for _, row := range rows {
		event, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, event)
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SystemClock is the default runtime clock implementation.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator creates stable UUIDv4 identifiers for audit events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
