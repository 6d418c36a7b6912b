package dto

import "loyaltystay/models"

type GuestRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	SignUp    int    `json:"signUp" validate:"oneof=0 1"`
	Password  string `json:"password,omitempty" validate:"required_if=SignUp 1"`
}

type AddressRequest struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
}

type PaymentMethodRequest struct {
	Token      string `json:"token" validate:"required"`
	NameOnCard string `json:"nameOnCard"`
}

// CreateItineraryRequest books one or more stays for one guest.
type CreateItineraryRequest struct {
	CompanyID               uint                  `json:"companyId" validate:"required"`
	UserID                  uint                  `json:"-"`
	Guest                   GuestRequest          `json:"guest"`
	ExistingAddressID       *uint                 `json:"existingAddressId"`
	NewAddress              *AddressRequest       `json:"newAddress"`
	ExistingPaymentMethodID *uint                 `json:"existingPaymentMethodId"`
	NewPaymentMethod        *PaymentMethodRequest `json:"newPaymentMethod"`
	Stays                   []StayRequest         `json:"stays" validate:"required,min=1,max=10,dive"`
}

// UpdateReservationRequest is a patch. Nil fields are left alone;
// UpsellPackageIDs set to an empty list removes every package.
type UpdateReservationRequest struct {
	ArrivalDate      *string `json:"arrivalDate" validate:"omitempty,datetime=2006-01-02"`
	DepartureDate    *string `json:"departureDate" validate:"omitempty,datetime=2006-01-02"`
	AccommodationID  *uint   `json:"accommodationId" validate:"omitempty,min=1"`
	RateCode         *string `json:"rateCode" validate:"omitempty,min=1,max=64"`
	Adults           *int    `json:"adults" validate:"omitempty,min=1,max=20"`
	Children         *int    `json:"children" validate:"omitempty,min=0,max=20"`
	UpsellPackageIDs *[]uint `json:"upsellPackageIds"`
}

// StayChanged reports whether the patch touches what the vendor priced.
func (r UpdateReservationRequest) StayChanged() bool {
	return r.ArrivalDate != nil || r.DepartureDate != nil || r.AccommodationID != nil || r.RateCode != nil
}

type ItineraryResponse struct {
	ItineraryID string               `json:"itineraryId"`
	Stays       []models.Reservation `json:"stays"`
}
