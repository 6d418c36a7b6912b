package models

import (
	"time"

	"gorm.io/datatypes"
)

type UpsellPackage struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CompanyID     uint      `json:"companyId" gorm:"index"`
	DestinationID uint      `json:"destinationId" gorm:"index"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PriceInCents  int64     `json:"priceInCents"`
	PricingType   string    `json:"pricingType" gorm:"type:varchar(16);default:PER_STAY"`
	IsActive      bool      `json:"isActive" gorm:"default:true"`
	CreatedAt     time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ReservationUpsellPackage links a package to a reservation with the price
// that was charged at booking time.
type ReservationUpsellPackage struct {
	ID              uint                                   `json:"id" gorm:"primaryKey"`
	ReservationID   uint                                   `json:"reservationId" gorm:"index;not null"`
	UpsellPackageID uint                                   `json:"upsellPackageId" gorm:"index;not null"`
	PriceDetail     datatypes.JSONType[PackagePriceDetail] `json:"priceDetail"`
	CreatedAt       time.Time                              `json:"createdAt" gorm:"autoCreateTime"`
}
