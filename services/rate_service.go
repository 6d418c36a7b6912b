package services

import (
	"context"

	"loyaltystay/clock"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/services/logger"
	"loyaltystay/vendors"
)

// RateService mirrors the vendor's rate codes into the local catalog.
type RateService struct {
	tx           TxRunner
	rates        RateStore
	catalog      CatalogStore
	reservations vendors.Provider[vendors.ReservationSystem]
	clock        clock.Clock
	logger       logger.Logger
}

type RateServiceOptions struct {
	Tx           TxRunner
	Rates        RateStore
	Catalog      CatalogStore
	Reservations vendors.Provider[vendors.ReservationSystem]
	Clock        clock.Clock
	Logger       logger.Logger
}

func NewRateService(opts RateServiceOptions) *RateService {
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem()
	}
	return &RateService{
		tx:           opts.Tx,
		rates:        opts.Rates,
		catalog:      opts.Catalog,
		reservations: opts.Reservations,
		clock:        opts.Clock,
		logger:       opts.Logger,
	}
}

// SyncRates upserts every rate code the vendor offers for the destination,
// deactivates the ones it stopped offering and returns the active catalog.
func (s *RateService) SyncRates(ctx context.Context, companyID, destinationID uint) ([]models.Rate, error) {
	dest, err := s.catalog.GetDestination(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	if dest.CompanyID != companyID {
		return nil, errors.NotFound("Destination not found")
	}
	resolved, err := s.reservations.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	offered, err := resolved.System.GetAvailableRateCodes(ctx, resolved.CompanyDetails, *dest)
	if err != nil {
		return nil, vendorError(err, "Failed to fetch rate codes from vendor")
	}

	now := s.clock.Now()
	var deactivated int64
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		keep := make([]string, 0, len(offered))
		for _, r := range offered {
			if r.Code == "" {
				continue
			}
			rate := models.Rate{
				CompanyID:     companyID,
				DestinationID: dest.ID,
				Code:          r.Code,
				Name:          r.Name,
				Description:   r.Description,
				IsActive:      true,
				SyncedAt:      &now,
			}
			if err := s.rates.Upsert(ctx, &rate); err != nil {
				return err
			}
			keep = append(keep, r.Code)
		}
		n, err := s.rates.DeactivateMissing(ctx, dest.ID, keep, now)
		deactivated = n
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("synced %d rate codes for destination %d, %d deactivated", len(offered), dest.ID, deactivated)
	return s.rates.ListActive(ctx, dest.ID)
}
