package dto

import (
	"time"

	"loyaltystay/models"
)

// StayRequest asks for one accommodation over one date range.
type StayRequest struct {
	CompanyID        uint   `json:"companyId" validate:"required"`
	DestinationID    uint   `json:"destinationId" validate:"required"`
	AccommodationID  uint   `json:"accommodationId" validate:"required"`
	RateCode         string `json:"rateCode" validate:"required,max=64"`
	ArrivalDate      string `json:"arrivalDate" validate:"required,datetime=2006-01-02"`
	DepartureDate    string `json:"departureDate" validate:"required,datetime=2006-01-02"`
	Quantity         int    `json:"quantity" validate:"omitempty,min=1,max=9"`
	Adults           int    `json:"adults" validate:"min=1,max=20"`
	Children         int    `json:"children" validate:"min=0,max=20"`
	UpsellPackageIDs []uint `json:"upsellPackageIds" validate:"omitempty,dive,required"`
	PointsToApply    int64  `json:"pointsToApply" validate:"min=0"`
}

// Units is the number of rooms requested, at least one.
func (s StayRequest) Units() int {
	if s.Quantity < 1 {
		return 1
	}
	return s.Quantity
}

// PricedStay is a verified stay with its price breakdown.
type PricedStay struct {
	CompanyID               uint                   `json:"companyId"`
	DestinationID           uint                   `json:"destinationId"`
	AccommodationID         uint                   `json:"accommodationId"`
	AccommodationExternalID string                 `json:"accommodationExternalId,omitempty"`
	RateCode                string                 `json:"rateCode"`
	ArrivalDate             time.Time              `json:"arrivalDate"`
	DepartureDate           time.Time              `json:"departureDate"`
	Nights                  int                    `json:"nights"`
	Quantity                int                    `json:"quantity"`
	Adults                  int                    `json:"adults"`
	Children                int                    `json:"children"`
	MinStay                 int                    `json:"minStay"`
	MaxStay                 int                    `json:"maxStay"`
	QuantityAvailable       int                    `json:"quantityAvailable"`
	Currency                string                 `json:"currency"`
	NightlyRates            []models.NightlyRate   `json:"nightlyRates"`
	UpsellPackages          []models.UpsellPackage `json:"-"`
	PriceDetail             models.PriceDetail     `json:"priceDetail"`
	Source                  string                 `json:"source"`
}

type SyncAvailabilityRequest struct {
	Key string `json:"key" validate:"required"`
}

type SyncAvailabilityResponse struct {
	Keys   []string                            `json:"keys"`
	Blocks map[string]models.AvailabilityBlock `json:"blocks,omitempty"`
}
