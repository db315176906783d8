package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pixelgate/server/internal/model"
	"github.com/pixelgate/server/internal/port/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// apiLimitAdapter implements outbound.APILimitStorePort.
// Counter changes are single upsert/update statements, so concurrent
// requests for the same user cannot overshoot the limit.
type apiLimitAdapter struct {
	db *gorm.DB
}

// NewAPILimitAdapter creates a new usage counter database adapter.
func NewAPILimitAdapter(db *gorm.DB) outbound.APILimitStorePort {
	return &apiLimitAdapter{db: db}
}

func (a *apiLimitAdapter) Get(ctx context.Context, userID string) (int, error) {
	var rec model.UserAPILimit
	err := a.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get api limit: %w", err)
	}
	return rec.Count, nil
}

func (a *apiLimitAdapter) Increment(ctx context.Context, userID string) (int, error) {
	rec, _, err := a.upsertIncrement(ctx, userID, nil)
	if err != nil {
		return 0, fmt.Errorf("increment api limit: %w", err)
	}
	return rec.Count, nil
}

func (a *apiLimitAdapter) IncrementIfBelow(ctx context.Context, userID string, limit int) (int, bool, error) {
	if limit <= 0 {
		count, err := a.Get(ctx, userID)
		return count, false, err
	}

	where := &clause.Where{Exprs: []clause.Expression{
		clause.Expr{SQL: "user_api_limits.count < ?", Vars: []any{limit}},
	}}
	rec, applied, err := a.upsertIncrement(ctx, userID, where)
	if err != nil {
		return 0, false, fmt.Errorf("reserve api limit: %w", err)
	}
	if !applied {
		count, err := a.Get(ctx, userID)
		return count, false, err
	}
	return rec.Count, true, nil
}

// upsertIncrement inserts the counter at 1 or adds one to it, optionally guarded by where.
func (a *apiLimitAdapter) upsertIncrement(ctx context.Context, userID string, where *clause.Where) (*model.UserAPILimit, bool, error) {
	now := time.Now()
	rec := &model.UserAPILimit{
		ID:        uuid.New(),
		UserID:    userID,
		Count:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("user_api_limits.count + 1"),
			"updated_at": now,
		}),
	}
	if where != nil {
		onConflict.Where = *where
	}

	result := a.db.WithContext(ctx).
		Clauses(onConflict, clause.Returning{Columns: []clause.Column{{Name: "count"}}}).
		Create(rec)
	if result.Error != nil {
		return nil, false, result.Error
	}
	return rec, result.RowsAffected > 0, nil
}

func (a *apiLimitAdapter) Decrement(ctx context.Context, userID string) (int, error) {
	var rec model.UserAPILimit
	result := a.db.WithContext(ctx).
		Model(&rec).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "count"}}}).
		Where("user_id = ? AND count > 0", userID).
		UpdateColumns(map[string]any{
			"count":      gorm.Expr("count - 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("release api limit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return a.Get(ctx, userID)
	}
	return rec.Count, nil
}

func (a *apiLimitAdapter) Reset(ctx context.Context, userID string) error {
	err := a.db.WithContext(ctx).
		Model(&model.UserAPILimit{}).
		Where("user_id = ?", userID).
		UpdateColumns(map[string]any{"count": 0, "updated_at": time.Now()}).
		Error
	if err != nil {
		return fmt.Errorf("reset api limit: %w", err)
	}
	return nil
}

// Compile-time check
var _ outbound.APILimitStorePort = (*apiLimitAdapter)(nil)
