package repository

import (
	"context"
	"time"

	"loyaltystay/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) *RateRepository {
	return &RateRepository{db: db}
}

// Upsert inserts or refreshes a rate keyed by (destination, code).
func (r *RateRepository) Upsert(ctx context.Context, rate *models.Rate) error {
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "destination_id"}, {Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "is_active", "synced_at", "company_id", "update_at"}),
	}).Create(rate).Error
	return dbError(err, "upsert rate", "")
}

// DeactivateMissing switches off every rate of the destination whose code is
// not in keep.
func (r *RateRepository) DeactivateMissing(ctx context.Context, destinationID uint, keep []string, at time.Time) (int64, error) {
	q := conn(ctx, r.db).Model(&models.Rate{}).Where("destination_id = ? AND is_active = ?", destinationID, true)
	if len(keep) > 0 {
		q = q.Where("code NOT IN ?", keep)
	}
	res := q.Updates(map[string]interface{}{"is_active": false, "synced_at": at})
	return res.RowsAffected, dbError(res.Error, "deactivate rates", "")
}

func (r *RateRepository) ListActive(ctx context.Context, destinationID uint) ([]models.Rate, error) {
	var out []models.Rate
	err := conn(ctx, r.db).Where("destination_id = ? AND is_active = ?", destinationID, true).Order("code").Find(&out).Error
	return out, dbError(err, "list rates", "")
}
