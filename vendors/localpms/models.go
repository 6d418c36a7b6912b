package localpms

import (
	"time"

	"gorm.io/datatypes"
)

const (
	BookingStatusBooked   = "BOOKED"
	BookingStatusCanceled = "CANCELED"
)

// InventoryRate prices a rate code of one accommodation over a date range.
// StartDate and EndDate are both bookable nights.
type InventoryRate struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	AccommodationID     uint      `gorm:"index;not null" json:"accommodationId"`
	RateCode            string    `gorm:"type:varchar(64);index;not null" json:"rateCode"`
	RateName            string    `json:"rateName"`
	StartDate           time.Time `gorm:"type:date;index" json:"startDate"`
	EndDate             time.Time `gorm:"type:date;index" json:"endDate"`
	NightlyPriceInCents int64     `json:"nightlyPriceInCents"`
	Currency            string    `gorm:"type:varchar(3);default:USD" json:"currency"`
	Units               int       `json:"units"`
	MinStay             int       `json:"minStay"`
	MaxStay             int       `json:"maxStay"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// InventoryBooking holds Quantity units of an accommodation for the nights
// in [ArrivalDate, DepartureDate).
type InventoryBooking struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ConfirmationCode string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"confirmationCode"`
	ItineraryID      string     `gorm:"type:varchar(36);index" json:"itineraryId"`
	AccommodationID  uint       `gorm:"index;not null" json:"accommodationId"`
	RateCode         string     `json:"rateCode"`
	ArrivalDate      time.Time  `gorm:"type:date;index" json:"arrivalDate"`
	DepartureDate    time.Time  `gorm:"type:date;index" json:"departureDate"`
	Quantity         int        `gorm:"default:1" json:"quantity"`
	Adults           int        `json:"adults"`
	Children         int        `json:"children"`
	Status           string     `gorm:"type:varchar(16);index;not null" json:"status"`
	CancellationCode string     `json:"cancellationCode,omitempty"`
	CanceledAt       *time.Time `json:"canceledAt,omitempty"`
	GuestFirstName   string     `json:"guestFirstName"`
	GuestLastName    string     `json:"guestLastName"`
	GuestEmail       string     `json:"guestEmail"`
	TotalInCents     int64      `json:"totalInCents"`
	MetaData         datatypes.JSON
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// covers reports whether the booking occupies night.
func (b *InventoryBooking) covers(night time.Time) bool {
	return !night.Before(b.ArrivalDate) && night.Before(b.DepartureDate)
}

// Models lists the tables this package owns, for migration.
func Models() []interface{} {
	return []interface{}{&InventoryRate{}, &InventoryBooking{}}
}
