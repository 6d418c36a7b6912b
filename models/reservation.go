package models

import (
	"time"

	"gorm.io/datatypes"
)

// Reservation is one stay: one accommodation over one date range.
type Reservation struct {
	ID                  uint   `json:"id" gorm:"primaryKey"`
	CompanyID           uint   `json:"companyId" gorm:"index;not null"`
	UserID              uint   `json:"userId" gorm:"index;not null"`
	ItineraryID         string `json:"itineraryId" gorm:"type:varchar(36);index;not null"`
	ParentReservationID *uint  `json:"parentReservationId,omitempty" gorm:"index"`

	DestinationID   uint      `json:"destinationId" gorm:"index"`
	AccommodationID uint      `json:"accommodationId" gorm:"index"`
	RateCode        string    `json:"rateCode"`
	ArrivalDate     time.Time `json:"arrivalDate" gorm:"type:date"`
	DepartureDate   time.Time `json:"departureDate" gorm:"type:date"`
	Quantity        int       `json:"quantity" gorm:"default:1"`
	Adults          int       `json:"adults"`
	Children        int       `json:"children"`

	GuestFirstName string `json:"guestFirstName"`
	GuestLastName  string `json:"guestLastName"`
	GuestEmail     string `json:"guestEmail"`
	GuestPhone     string `json:"guestPhone,omitempty"`

	BillingAddressID *uint `json:"billingAddressId,omitempty"`
	PaymentMethodID  *uint `json:"paymentMethodId,omitempty"`

	ExternalReservationID   string `json:"externalReservationId"`
	ExternalConfirmationID  string `json:"externalConfirmationId" gorm:"index"`
	ExternalItineraryNumber string `json:"externalItineraryNumber,omitempty"`
	ExternalCancellationID  string `json:"externalCancellationId,omitempty"`

	PriceDetail      datatypes.JSONType[PriceDetail] `json:"priceDetail"`
	MetaData         datatypes.JSON                  `json:"metaData,omitempty"`
	UserPointSpentID *uint                           `json:"userPointSpentId,omitempty"`

	CanceledOn  *time.Time `json:"canceledOn,omitempty"`
	CompletedOn *time.Time `json:"completedOn,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`

	UpsellPackages []ReservationUpsellPackage `json:"upsellPackages,omitempty" gorm:"foreignKey:ReservationID"`
}

func (r *Reservation) IsCanceled() bool {
	return r.CanceledOn != nil
}

func (r *Reservation) IsCompleted() bool {
	return r.CompletedOn != nil
}

// Nights is the number of nights between arrival and departure.
func (r *Reservation) Nights() int {
	return int(r.DepartureDate.Sub(r.ArrivalDate).Hours() / 24)
}
