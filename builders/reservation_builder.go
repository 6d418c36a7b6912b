package builders

import (
	"loyaltystay/dto"
	"loyaltystay/models"
	"loyaltystay/vendors"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// ReservationBuilder assembles a reservation from the pieces a booking
// collects step by step.
type ReservationBuilder struct {
	res *models.Reservation
}

func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{res: &models.Reservation{Quantity: 1}}
}

// WithItinerary sets the itinerary and, for every stay but the first, the
// parent reservation.
func (b *ReservationBuilder) WithItinerary(itineraryID string, parentID *uint) *ReservationBuilder {
	b.res.ItineraryID = itineraryID
	b.res.ParentReservationID = parentID
	return b
}

// WithStay copies what was verified and priced.
func (b *ReservationBuilder) WithStay(p *dto.PricedStay) *ReservationBuilder {
	b.res.CompanyID = p.CompanyID
	b.res.DestinationID = p.DestinationID
	b.res.AccommodationID = p.AccommodationID
	b.res.RateCode = p.RateCode
	b.res.ArrivalDate = p.ArrivalDate
	b.res.DepartureDate = p.DepartureDate
	b.res.Quantity = p.Quantity
	b.res.Adults = p.Adults
	b.res.Children = p.Children
	b.res.PriceDetail = datatypes.NewJSONType(p.PriceDetail)
	b.res.UpsellPackages = PackageLinks(b.res.ID, p.PriceDetail)
	return b
}

// WithGuest fills guest contact details from the request, falling back to
// the stored user.
func (b *ReservationBuilder) WithGuest(u *models.User, g dto.GuestRequest) *ReservationBuilder {
	b.res.UserID = u.ID
	b.res.GuestFirstName = firstNonEmpty(g.FirstName, u.FirstName)
	b.res.GuestLastName = firstNonEmpty(g.LastName, u.LastName)
	b.res.GuestEmail = firstNonEmpty(u.Email, g.Email)
	b.res.GuestPhone = firstNonEmpty(g.Phone, u.PhoneNumber)
	return b
}

func (b *ReservationBuilder) WithBilling(addr *models.UserAddress, pm *models.UserPaymentMethod) *ReservationBuilder {
	if addr != nil {
		id := addr.ID
		b.res.BillingAddressID = &id
	}
	if pm != nil {
		id := pm.ID
		b.res.PaymentMethodID = &id
	}
	return b
}

// WithVendorResult records the vendor's identifiers and raw metadata.
func (b *ReservationBuilder) WithVendorResult(r *vendors.ReservationResult) *ReservationBuilder {
	if r == nil {
		return b
	}
	if r.ID != "" {
		b.res.ExternalReservationID = r.ID
	}
	if r.ConfirmationID != "" {
		b.res.ExternalConfirmationID = r.ConfirmationID
	}
	if r.ItineraryNumber != "" {
		b.res.ExternalItineraryNumber = r.ItineraryNumber
	}
	if len(r.MetaData) > 0 {
		if raw, err := json.Marshal(r.MetaData); err == nil {
			b.res.MetaData = datatypes.JSON(raw)
		}
	}
	return b
}

func (b *ReservationBuilder) WithSpend(spent *models.UserPoint) *ReservationBuilder {
	if spent == nil {
		b.res.UserPointSpentID = nil
		return b
	}
	id := spent.ID
	b.res.UserPointSpentID = &id
	return b
}

func (b *ReservationBuilder) Build() *models.Reservation {
	return b.res
}

// PackageLinks turns the package lines of a price breakdown into the rows
// linking them to a reservation.
func PackageLinks(reservationID uint, pd models.PriceDetail) []models.ReservationUpsellPackage {
	if len(pd.UpsellPackages) == 0 {
		return nil
	}
	links := make([]models.ReservationUpsellPackage, 0, len(pd.UpsellPackages))
	for _, p := range pd.UpsellPackages {
		links = append(links, models.ReservationUpsellPackage{
			ReservationID:   reservationID,
			UpsellPackageID: p.UpsellPackageID,
			PriceDetail:     datatypes.NewJSONType(p),
		})
	}
	return links
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
