package repository

import (
	"context"

	"loyaltystay/constants"
	"loyaltystay/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PointRepository struct {
	db *gorm.DB
}

func NewPointRepository(db *gorm.DB) *PointRepository {
	return &PointRepository{db: db}
}

// ListReceived returns the user's earned batches oldest first. With lock set
// the rows are locked FOR UPDATE until the enclosing transaction ends.
func (r *PointRepository) ListReceived(ctx context.Context, userID uint, lock bool) ([]models.UserPoint, error) {
	q := conn(ctx, r.db)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out []models.UserPoint
	err := q.Where("user_id = ? AND status = ?", userID, constants.PointStatusReceived).Order("id").Find(&out).Error
	return out, dbError(err, "list received points", "")
}

// SpentByBatch sums the allocations drawn from each batch.
func (r *PointRepository) SpentByBatch(ctx context.Context, earnedIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(earnedIDs))
	if len(earnedIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		UserPointEarnedID uint
		Total             int64
	}
	err := conn(ctx, r.db).Model(&models.UserPointAllocationRecord{}).
		Select("user_point_earned_id, SUM(amount) AS total").
		Where("user_point_earned_id IN ?", earnedIDs).
		Group("user_point_earned_id").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError(err, "sum allocations", "")
	}
	for _, row := range rows {
		out[row.UserPointEarnedID] = row.Total
	}
	return out, nil
}

func (r *PointRepository) Get(ctx context.Context, id uint) (*models.UserPoint, error) {
	var p models.UserPoint
	if err := conn(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, dbError(err, "get user point", "User point not found")
	}
	return &p, nil
}

func (r *PointRepository) Create(ctx context.Context, p *models.UserPoint) error {
	return dbError(conn(ctx, r.db).Create(p).Error, "create user point", "")
}

func (r *PointRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	err := conn(ctx, r.db).Model(&models.UserPoint{}).Where("id = ?", id).Update("status", status).Error
	return dbError(err, "update user point status", "")
}

func (r *PointRepository) CreateAllocations(ctx context.Context, recs []models.UserPointAllocationRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return dbError(conn(ctx, r.db).Create(&recs).Error, "create allocations", "")
}

func (r *PointRepository) ListAllocationsBySpent(ctx context.Context, spentID uint) ([]models.UserPointAllocationRecord, error) {
	var out []models.UserPointAllocationRecord
	err := conn(ctx, r.db).Where("user_point_spent_id = ?", spentID).Order("id").Find(&out).Error
	return out, dbError(err, "list allocations", "")
}

func (r *PointRepository) DeleteAllocationsBySpent(ctx context.Context, spentID uint) error {
	err := conn(ctx, r.db).Where("user_point_spent_id = ?", spentID).Delete(&models.UserPointAllocationRecord{}).Error
	return dbError(err, "delete allocations", "")
}
