package vendors

import (
	"context"
	"errors"
	"time"

	"loyaltystay/dto"
	"loyaltystay/models"
)

// ErrPaymentDeclined is returned by vendors when the card was refused.
var ErrPaymentDeclined = errors.New("payment declined")

// CompanyDetails is what a vendor needs to act on behalf of a company.
type CompanyDetails struct {
	CompanyID   uint
	ServiceType string
	ServiceKey  string
	ServiceName string
	Credentials map[string]string
}

type AvailabilityQuery struct {
	Destination   models.Destination
	Accommodation models.Accommodation
	RateCode      string
	ArrivalDate   time.Time
	DepartureDate time.Time
	Quantity      int
	Adults        int
	Children      int
}

type Guest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// ReservationRequest carries a verified stay to the vendor. The external ids
// are set on update only.
type ReservationRequest struct {
	ReservationID          uint
	ItineraryID            string
	Destination            models.Destination
	Accommodation          models.Accommodation
	RateCode               string
	ArrivalDate            time.Time
	DepartureDate          time.Time
	Quantity               int
	Adults                 int
	Children               int
	Guest                  Guest
	BillingAddress         *models.UserAddress
	PaymentMethod          *models.UserPaymentMethod
	PriceDetail            models.PriceDetail
	ExternalReservationID  string
	ExternalConfirmationID string
}

type ReservationResult struct {
	ID              string
	ConfirmationID  string
	ItineraryNumber string
	PriceDetail     *models.PriceDetail
	MetaData        map[string]interface{}
}

type CancelRequest struct {
	ReservationID          uint
	Destination            models.Destination
	ExternalReservationID  string
	ExternalConfirmationID string
}

type CancelResult struct {
	CancellationID string
}

// ReservationSystem is a property-management or channel system that owns
// inventory and bookings.
type ReservationSystem interface {
	VerifyAvailability(ctx context.Context, cd CompanyDetails, q AvailabilityQuery) (*dto.PricedStay, error)
	CreateReservation(ctx context.Context, cd CompanyDetails, req ReservationRequest) (*ReservationResult, error)
	UpdateReservation(ctx context.Context, cd CompanyDetails, req ReservationRequest) (*ReservationResult, error)
	CancelReservation(ctx context.Context, cd CompanyDetails, req CancelRequest) (*CancelResult, error)
	// GetAvailabilityForBlock returns availability for every day of the month,
	// keyed by day of month.
	GetAvailabilityForBlock(ctx context.Context, cd CompanyDetails, destination models.Destination, accommodations []models.Accommodation, month time.Month, year, daysInMonth int) (map[int][]models.AccommodationAvailability, error)
	GetAvailableRateCodes(ctx context.Context, cd CompanyDetails, destination models.Destination) ([]models.Rate, error)
}

type VaultRequest struct {
	UserID     uint
	Token      string
	NameOnCard string
}

type VaultedCard struct {
	Token           string
	Last4           string
	ExpirationMonth int
	ExpirationYear  int
	CardNumber      string
	CardBrand       string
	SystemProvider  string
}

// PaymentVault tokenizes and checks cards.
type PaymentVault interface {
	VaultToken(ctx context.Context, cd CompanyDetails, req VaultRequest) (*VaultedCard, error)
	AppendPaymentMethod(ctx context.Context, cd CompanyDetails, reservation *models.Reservation, paymentMethod *models.UserPaymentMethod) error
	IsPaymentMethodValid(ctx context.Context, cd CompanyDetails, paymentMethod *models.UserPaymentMethod) (bool, error)
}

type LoyaltyCard struct {
	ID     string
	Status string
}

// OffsiteLoyalty links cards to a third-party card-linked loyalty program.
type OffsiteLoyalty interface {
	Register(ctx context.Context, cd CompanyDetails, paymentMethod *models.UserPaymentMethod, vaultProvider string) (*LoyaltyCard, error)
	Delete(ctx context.Context, cd CompanyDetails, paymentMethod *models.UserPaymentMethod) (bool, error)
}
