package repository

import (
	"context"

	"loyaltystay/models"

	"gorm.io/gorm"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) GetByID(ctx context.Context, id uint) (*models.Company, error) {
	var c models.Company
	if err := conn(ctx, r.db).First(&c, id).Error; err != nil {
		return nil, dbError(err, "get company", "Company not found")
	}
	return &c, nil
}

func (r *CompanyRepository) ListActive(ctx context.Context) ([]models.Company, error) {
	var out []models.Company
	err := conn(ctx, r.db).Where("status = ?", 1).Order("id").Find(&out).Error
	return out, dbError(err, "list companies", "")
}

// FindActiveService returns the active vendor configuration of one service
// type for a company.
func (r *CompanyRepository) FindActiveService(ctx context.Context, companyID uint, serviceType string) (*models.CompanyService, error) {
	var svc models.CompanyService
	err := conn(ctx, r.db).
		Where("company_id = ? AND service_type = ? AND is_active = ?", companyID, serviceType, true).
		First(&svc).Error
	if err != nil {
		return nil, dbError(err, "find company service", "Company service not found")
	}
	return &svc, nil
}

func (r *CompanyRepository) SaveService(ctx context.Context, svc *models.CompanyService) error {
	return dbError(conn(ctx, r.db).Save(svc).Error, "save company service", "")
}
