package repository

import (
	"context"

	"loyaltystay/models"

	"gorm.io/gorm"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	return dbError(conn(ctx, r.db).Omit("UpsellPackages").Create(res).Error, "create reservation", "")
}

// Update saves every column except the package links.
func (r *ReservationRepository) Update(ctx context.Context, res *models.Reservation) error {
	return dbError(conn(ctx, r.db).Omit("UpsellPackages").Save(res).Error, "update reservation", "")
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := conn(ctx, r.db).Preload("UpsellPackages", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).First(&res, id).Error
	if err != nil {
		return nil, dbError(err, "get reservation", "Reservation not found")
	}
	return &res, nil
}

func (r *ReservationRepository) GetByConfirmationID(ctx context.Context, code string) (*models.Reservation, error) {
	var res models.Reservation
	err := conn(ctx, r.db).Preload("UpsellPackages").Where("external_confirmation_id = ?", code).First(&res).Error
	if err != nil {
		return nil, dbError(err, "get reservation by confirmation", "Reservation not found")
	}
	return &res, nil
}

// ListByItinerary returns the stays of an itinerary, parent first.
func (r *ReservationRepository) ListByItinerary(ctx context.Context, itineraryID string, includeCanceled bool) ([]models.Reservation, error) {
	var out []models.Reservation
	q := conn(ctx, r.db).Preload("UpsellPackages").Where("itinerary_id = ?", itineraryID)
	if !includeCanceled {
		q = q.Where("canceled_on IS NULL")
	}
	err := q.Order("id").Find(&out).Error
	return out, dbError(err, "list itinerary", "")
}

// ReplacePackages unlinks every package of the reservation, then links the
// given ones.
func (r *ReservationRepository) ReplacePackages(ctx context.Context, reservationID uint, links []models.ReservationUpsellPackage) error {
	db := conn(ctx, r.db)
	if err := db.Where("reservation_id = ?", reservationID).Delete(&models.ReservationUpsellPackage{}).Error; err != nil {
		return dbError(err, "unlink packages", "")
	}
	return r.CreatePackages(ctx, reservationID, links)
}

func (r *ReservationRepository) CreatePackages(ctx context.Context, reservationID uint, links []models.ReservationUpsellPackage) error {
	if len(links) == 0 {
		return nil
	}
	for i := range links {
		links[i].ReservationID = reservationID
	}
	return dbError(conn(ctx, r.db).Create(&links).Error, "link packages", "")
}
