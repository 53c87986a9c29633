package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/elections/timeline/domain/entities"
	domainerrors "agora/contexts/elections/timeline/domain/errors"
	"agora/contexts/elections/timeline/ports"

	"github.com/jackc/pgerrcode"
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

// Migrate creates the stage table and the partial index that keeps
// non-"other" categories unique.
func (r *Repository) Migrate(ctx context.Context) error {
	tx := r.db.WithContext(ctx)
	if err := tx.AutoMigrate(&stageModel{}); err != nil {
		return r.logError("timeline_repo_migrate_failed", err)
	}
	if err := tx.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS election_stages_category_unique " +
			"ON election_stages (category) WHERE category <> 'other'",
	).Error; err != nil {
		return r.logError("timeline_repo_migrate_index_failed", err)
	}
	return nil
}

func (r *Repository) ListStages(ctx context.Context) ([]entities.Stage, error) {
	var rows []stageModel
	if err := r.db.WithContext(ctx).
		Order("start_time ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("timeline_repo_list_stages_failed", err)
	}
	items := make([]entities.Stage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetStage(ctx context.Context, stageID int64) (entities.Stage, error) {
	var row stageModel
	err := r.db.WithContext(ctx).
		Where("id = ?", stageID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Stage{}, domainerrors.ErrStageNotFound
		}
		return entities.Stage{}, r.logError("timeline_repo_get_stage_failed", err, "stage_id", stageID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveStage(ctx context.Context, stage entities.Stage) (entities.Stage, error) {
	row := stageModelFromEntity(stage)
	if row.ID == 0 {
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return entities.Stage{}, domainerrors.ErrCategoryConflict
			}
			return entities.Stage{}, r.logError("timeline_repo_create_stage_failed", err,
				"category", row.Category,
			)
		}
		return row.toEntity(), nil
	}

	result := r.db.WithContext(ctx).
		Model(&stageModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"stage_name": row.StageName,
			"category":   row.Category,
			"start_time": row.StartTime,
			"end_time":   row.EndTime,
			"is_active":  row.IsActive,
			"updated_at": row.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return entities.Stage{}, domainerrors.ErrCategoryConflict
		}
		return entities.Stage{}, r.logError("timeline_repo_update_stage_failed", result.Error,
			"stage_id", row.ID,
		)
	}
	if result.RowsAffected == 0 {
		return entities.Stage{}, domainerrors.ErrStageNotFound
	}
	return r.GetStage(ctx, row.ID)
}

func (r *Repository) DeleteStage(ctx context.Context, stageID int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", stageID).
		Delete(&stageModel{})
	if result.Error != nil {
		return r.logError("timeline_repo_delete_stage_failed", result.Error, "stage_id", stageID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStageNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "elections/timeline",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("timeline repository operation failed", fields...)
	return err
}

type stageModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	StageName string    `gorm:"column:stage_name;not null"`
	Category  string    `gorm:"column:category;not null;index"`
	StartTime time.Time `gorm:"column:start_time;not null"`
	EndTime   time.Time `gorm:"column:end_time;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (stageModel) TableName() string {
	return "election_stages"
}

func stageModelFromEntity(stage entities.Stage) stageModel {
	row := stageModel{
		ID:        stage.StageID,
		StageName: strings.TrimSpace(stage.Name),
		Category:  string(stage.Category),
		StartTime: stage.StartTime.UTC(),
		EndTime:   stage.EndTime.UTC(),
		IsActive:  stage.IsActive,
		CreatedAt: stage.CreatedAt.UTC(),
		UpdatedAt: stage.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m stageModel) toEntity() entities.Stage {
	return entities.Stage{
		StageID:   m.ID,
		Name:      m.StageName,
		Category:  entities.Category(m.Category),
		StartTime: m.StartTime.UTC(),
		EndTime:   m.EndTime.UTC(),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ ports.StageRepository = (*Repository)(nil)
