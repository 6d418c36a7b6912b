package repository

import (
	"context"
	"strings"

	"loyaltystay/models"

	"gorm.io/gorm"
)

// GuestRepository owns users and their billing data.
type GuestRepository struct {
	db *gorm.DB
}

func NewGuestRepository(db *gorm.DB) *GuestRepository {
	return &GuestRepository{db: db}
}

func (r *GuestRepository) FindUserByEmail(ctx context.Context, companyID uint, email string) (*models.User, error) {
	var u models.User
	err := conn(ctx, r.db).Where("company_id = ? AND LOWER(email) = ?", companyID, strings.ToLower(email)).First(&u).Error
	if err != nil {
		return nil, dbError(err, "find user", "User not found")
	}
	return &u, nil
}

func (r *GuestRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := conn(ctx, r.db).First(&u, id).Error; err != nil {
		return nil, dbError(err, "get user", "User not found")
	}
	return &u, nil
}

func (r *GuestRepository) CreateUser(ctx context.Context, u *models.User) error {
	return dbError(conn(ctx, r.db).Create(u).Error, "create user", "")
}

func (r *GuestRepository) UpdateUser(ctx context.Context, u *models.User) error {
	return dbError(conn(ctx, r.db).Save(u).Error, "update user", "")
}

func (r *GuestRepository) GetAddress(ctx context.Context, id uint) (*models.UserAddress, error) {
	var a models.UserAddress
	if err := conn(ctx, r.db).First(&a, id).Error; err != nil {
		return nil, dbError(err, "get address", "Address not found")
	}
	return &a, nil
}

func (r *GuestRepository) CreateAddress(ctx context.Context, a *models.UserAddress) error {
	return dbError(conn(ctx, r.db).Create(a).Error, "create address", "")
}

func (r *GuestRepository) GetPaymentMethod(ctx context.Context, id uint) (*models.UserPaymentMethod, error) {
	var pm models.UserPaymentMethod
	if err := conn(ctx, r.db).First(&pm, id).Error; err != nil {
		return nil, dbError(err, "get payment method", "Payment method not found")
	}
	return &pm, nil
}

func (r *GuestRepository) CreatePaymentMethod(ctx context.Context, pm *models.UserPaymentMethod) error {
	return dbError(conn(ctx, r.db).Create(pm).Error, "create payment method", "")
}

func (r *GuestRepository) UpdatePaymentMethod(ctx context.Context, pm *models.UserPaymentMethod) error {
	return dbError(conn(ctx, r.db).Save(pm).Error, "update payment method", "")
}
