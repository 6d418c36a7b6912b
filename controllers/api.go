package controllers

import (
	"context"
	"strconv"

	"loyaltystay/dto"
	"loyaltystay/models"

	"github.com/gin-gonic/gin"
)

// The narrow service surfaces the handlers call.

type AvailabilityAPI interface {
	VerifyAvailability(ctx context.Context, req dto.StayRequest) (*dto.PricedStay, error)
	SyncAvailabilityBlock(ctx context.Context, companyID uint, key string) (map[string]models.AvailabilityBlock, error)
	GetAvailabilityRefreshKeys(ctx context.Context, companyID uint) ([]string, error)
}

type ItineraryAPI interface {
	CreateItinerary(ctx context.Context, req dto.CreateItineraryRequest) (*dto.ItineraryResponse, error)
	GetItinerary(ctx context.Context, itineraryID string) (*dto.ItineraryResponse, error)
	GetReservation(ctx context.Context, reservationID uint) (*models.Reservation, error)
	Update(ctx context.Context, reservationID uint, req dto.UpdateReservationRequest) (*models.Reservation, error)
	CancelReservation(ctx context.Context, reservationID uint) (*models.Reservation, error)
	CompleteReservation(ctx context.Context, confirmationCode string) (*models.Reservation, error)
}

type PointAPI interface {
	GetAvailablePointBreakdownByUserID(ctx context.Context, userID uint, minAvailability *int64) ([]dto.PointBatchBreakdown, error)
	GetPointAllocationForSpentPoints(ctx context.Context, userPointID uint) ([]models.UserPointAllocationRecord, error)
}

type RateAPI interface {
	SyncRates(ctx context.Context, companyID, destinationID uint) ([]models.Rate, error)
}

type PaymentMethodAPI interface {
	DeletePaymentMethod(ctx context.Context, companyID, userID, id uint) error
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func queryUint(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
