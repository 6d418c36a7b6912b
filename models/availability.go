package models

import "time"

// AvailabilityBlock is the cached availability of one destination on one
// calendar day. It is always written whole.
type AvailabilityBlock struct {
	CompanyID      uint                        `json:"companyId"`
	DestinationID  uint                        `json:"destinationId"`
	IndexDate      string                      `json:"indexDate"`
	Accommodations []AccommodationAvailability `json:"accommodations"`
	SyncedAt       time.Time                   `json:"syncedAt"`
}

type AccommodationAvailability struct {
	AccommodationID  uint        `json:"accommodationId"`
	ExternalSystemID string      `json:"externalSystemId,omitempty"`
	MinStay          int         `json:"minStay"`
	MaxStay          int         `json:"maxStay"` // 0 = unbounded
	Prices           []PriceTier `json:"prices"`
}

// PriceTier is the nightly price of one rate code.
type PriceTier struct {
	TotalInCents      int64  `json:"totalInCents"`
	Currency          string `json:"currency"`
	QuantityAvailable int    `json:"quantityAvailable"`
	RateCode          string `json:"rateCode"`
	RateID            uint   `json:"rateId,omitempty"`
	IsMinPrice        bool   `json:"isMinPrice"`
	IsMaxPrice        bool   `json:"isMaxPrice"`
}

// Find returns the accommodation entry for id.
func (b *AvailabilityBlock) Find(accommodationID uint) (*AccommodationAvailability, bool) {
	for i := range b.Accommodations {
		if b.Accommodations[i].AccommodationID == accommodationID {
			return &b.Accommodations[i], true
		}
	}
	return nil, false
}

// Tier returns the price tier for rateCode.
func (a *AccommodationAvailability) Tier(rateCode string) (*PriceTier, bool) {
	for i := range a.Prices {
		if a.Prices[i].RateCode == rateCode {
			return &a.Prices[i], true
		}
	}
	return nil, false
}

// MarkPriceExtremes sets IsMinPrice and IsMaxPrice across the tiers.
func (a *AccommodationAvailability) MarkPriceExtremes() {
	if len(a.Prices) == 0 {
		return
	}
	minIdx, maxIdx := 0, 0
	for i := range a.Prices {
		a.Prices[i].IsMinPrice = false
		a.Prices[i].IsMaxPrice = false
		if a.Prices[i].TotalInCents < a.Prices[minIdx].TotalInCents {
			minIdx = i
		}
		if a.Prices[i].TotalInCents > a.Prices[maxIdx].TotalInCents {
			maxIdx = i
		}
	}
	a.Prices[minIdx].IsMinPrice = true
	a.Prices[maxIdx].IsMaxPrice = true
}
