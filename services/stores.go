package services

import (
	"context"
	"time"

	"loyaltystay/models"
)

// TxRunner runs fn in a transaction shared through ctx.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CompanyStore interface {
	GetByID(ctx context.Context, id uint) (*models.Company, error)
	ListActive(ctx context.Context) ([]models.Company, error)
}

type CatalogStore interface {
	GetDestination(ctx context.Context, id uint) (*models.Destination, error)
	ListDestinations(ctx context.Context, companyID uint) ([]models.Destination, error)
	GetAccommodation(ctx context.Context, id uint) (*models.Accommodation, error)
	ListAccommodations(ctx context.Context, destinationID uint) ([]models.Accommodation, error)
	GetUpsellPackages(ctx context.Context, ids []uint) ([]models.UpsellPackage, error)
}

type RateStore interface {
	Upsert(ctx context.Context, rate *models.Rate) error
	DeactivateMissing(ctx context.Context, destinationID uint, keep []string, at time.Time) (int64, error)
	ListActive(ctx context.Context, destinationID uint) ([]models.Rate, error)
}

type GuestStore interface {
	FindUserByEmail(ctx context.Context, companyID uint, email string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	GetAddress(ctx context.Context, id uint) (*models.UserAddress, error)
	CreateAddress(ctx context.Context, a *models.UserAddress) error
	GetPaymentMethod(ctx context.Context, id uint) (*models.UserPaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, pm *models.UserPaymentMethod) error
	UpdatePaymentMethod(ctx context.Context, pm *models.UserPaymentMethod) error
}

type ReservationStore interface {
	Create(ctx context.Context, res *models.Reservation) error
	Update(ctx context.Context, res *models.Reservation) error
	GetByID(ctx context.Context, id uint) (*models.Reservation, error)
	GetByConfirmationID(ctx context.Context, code string) (*models.Reservation, error)
	ListByItinerary(ctx context.Context, itineraryID string, includeCanceled bool) ([]models.Reservation, error)
	ReplacePackages(ctx context.Context, reservationID uint, links []models.ReservationUpsellPackage) error
	CreatePackages(ctx context.Context, reservationID uint, links []models.ReservationUpsellPackage) error
}

type PointStore interface {
	ListReceived(ctx context.Context, userID uint, lock bool) ([]models.UserPoint, error)
	SpentByBatch(ctx context.Context, earnedIDs []uint) (map[uint]int64, error)
	Get(ctx context.Context, id uint) (*models.UserPoint, error)
	Create(ctx context.Context, p *models.UserPoint) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	CreateAllocations(ctx context.Context, recs []models.UserPointAllocationRecord) error
	ListAllocationsBySpent(ctx context.Context, spentID uint) ([]models.UserPointAllocationRecord, error)
	DeleteAllocationsBySpent(ctx context.Context, spentID uint) error
}
