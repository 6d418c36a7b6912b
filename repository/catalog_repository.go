package repository

import (
	"context"

	"loyaltystay/models"

	"gorm.io/gorm"
)

// CatalogRepository reads destinations, accommodations and upsell packages.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetDestination(ctx context.Context, id uint) (*models.Destination, error) {
	var d models.Destination
	if err := conn(ctx, r.db).Preload("Fees").First(&d, id).Error; err != nil {
		return nil, dbError(err, "get destination", "Destination not found")
	}
	return &d, nil
}

func (r *CatalogRepository) ListDestinations(ctx context.Context, companyID uint) ([]models.Destination, error) {
	var out []models.Destination
	err := conn(ctx, r.db).Where("company_id = ? AND status = ?", companyID, 1).Order("id").Find(&out).Error
	return out, dbError(err, "list destinations", "")
}

func (r *CatalogRepository) GetAccommodation(ctx context.Context, id uint) (*models.Accommodation, error) {
	var a models.Accommodation
	if err := conn(ctx, r.db).First(&a, id).Error; err != nil {
		return nil, dbError(err, "get accommodation", "Accommodation not found")
	}
	return &a, nil
}

func (r *CatalogRepository) ListAccommodations(ctx context.Context, destinationID uint) ([]models.Accommodation, error) {
	var out []models.Accommodation
	err := conn(ctx, r.db).Where("destination_id = ? AND status = ?", destinationID, 1).Order("id").Find(&out).Error
	return out, dbError(err, "list accommodations", "")
}

// GetUpsellPackages returns the packages with the given ids, in id order.
func (r *CatalogRepository) GetUpsellPackages(ctx context.Context, ids []uint) ([]models.UpsellPackage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.UpsellPackage
	err := conn(ctx, r.db).Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, dbError(err, "get upsell packages", "")
}
