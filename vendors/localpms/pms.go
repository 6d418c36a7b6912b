// Package localpms is a reservation system that keeps inventory in the
// application database. Companies without an external property management
// system are configured with service key "localpms".
package localpms

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"loyaltystay/clock"
	"loyaltystay/constants"
	"loyaltystay/dto"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/vendors"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ServiceKey = "localpms"

type PMS struct {
	db      *gorm.DB
	clock   clock.Clock
	newCode func() string
}

func New(db *gorm.DB, c clock.Clock) *PMS {
	if c == nil {
		c = clock.NewSystem()
	}
	return &PMS{db: db, clock: c, newCode: confirmationCode}
}

func confirmationCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type inventory struct {
	rates    []InventoryRate
	bookings []InventoryBooking
}

// load reads the rates and active bookings touching [from, to].
func load(db *gorm.DB, accommodationIDs []uint, from, to time.Time, lock bool) (*inventory, error) {
	inv := &inventory{}
	if len(accommodationIDs) == 0 {
		return inv, nil
	}
	q := db.Where("accommodation_id IN ? AND start_date <= ? AND end_date >= ?", accommodationIDs, to, from)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Order("id").Find(&inv.rates).Error; err != nil {
		return nil, fmt.Errorf("load inventory rates: %w", err)
	}
	err := db.Where("accommodation_id IN ? AND status = ? AND arrival_date <= ? AND departure_date > ?",
		accommodationIDs, BookingStatusBooked, to, from).
		Order("id").Find(&inv.bookings).Error
	if err != nil {
		return nil, fmt.Errorf("load inventory bookings: %w", err)
	}
	for i := range inv.rates {
		inv.rates[i].StartDate = day(inv.rates[i].StartDate)
		inv.rates[i].EndDate = day(inv.rates[i].EndDate)
	}
	for i := range inv.bookings {
		inv.bookings[i].ArrivalDate = day(inv.bookings[i].ArrivalDate)
		inv.bookings[i].DepartureDate = day(inv.bookings[i].DepartureDate)
	}
	return inv, nil
}

// rate returns the rate row of code covering night. Later rows win.
func (inv *inventory) rate(accommodationID uint, code string, night time.Time) *InventoryRate {
	var found *InventoryRate
	for i := range inv.rates {
		r := &inv.rates[i]
		if r.AccommodationID == accommodationID && r.RateCode == code && !night.Before(r.StartDate) && !night.After(r.EndDate) {
			found = r
		}
	}
	return found
}

// codes returns the rate codes priced for the accommodation on night.
func (inv *inventory) codes(accommodationID uint, night time.Time) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range inv.rates {
		if r.AccommodationID == accommodationID && !night.Before(r.StartDate) && !night.After(r.EndDate) && !seen[r.RateCode] {
			seen[r.RateCode] = true
			out = append(out, r.RateCode)
		}
	}
	sort.Strings(out)
	return out
}

// booked counts the units held on night, ignoring one booking.
func (inv *inventory) booked(accommodationID uint, night time.Time, ignore uint) int {
	n := 0
	for i := range inv.bookings {
		b := &inv.bookings[i]
		if b.AccommodationID == accommodationID && b.ID != ignore && b.covers(night) {
			n += b.Quantity
		}
	}
	return n
}

func (inv *inventory) available(r *InventoryRate, night time.Time, ignore uint) int {
	left := r.Units - inv.booked(r.AccommodationID, night, ignore)
	if left < 0 {
		return 0
	}
	return left
}

// price walks the nights of a stay and returns its nightly rates, the
// smallest quantity left on any night and the stay limits of the arrival
// night.
func (inv *inventory) price(accommodationID uint, code string, arrival, departure time.Time, ignore uint) (*dto.PricedStay, error) {
	priced := &dto.PricedStay{QuantityAvailable: -1}
	for night := arrival; night.Before(departure); night = night.AddDate(0, 0, 1) {
		r := inv.rate(accommodationID, code, night)
		if r == nil {
			return nil, errors.BadRequest("Invalid rate code")
		}
		if priced.Currency == "" {
			priced.Currency = r.Currency
			priced.MinStay = r.MinStay
			priced.MaxStay = r.MaxStay
		} else if priced.Currency != r.Currency {
			return nil, errors.Integration("Nightly rates use different currencies", nil)
		}
		left := inv.available(r, night, ignore)
		if priced.QuantityAvailable < 0 || left < priced.QuantityAvailable {
			priced.QuantityAvailable = left
		}
		priced.NightlyRates = append(priced.NightlyRates, models.NightlyRate{
			Date:          night.Format(constants.DateLayout),
			AmountInCents: r.NightlyPriceInCents,
		})
	}
	if priced.QuantityAvailable < 0 {
		priced.QuantityAvailable = 0
	}
	return priced, nil
}

func (p *PMS) VerifyAvailability(ctx context.Context, _ vendors.CompanyDetails, q vendors.AvailabilityQuery) (*dto.PricedStay, error) {
	arrival, departure := day(q.ArrivalDate), day(q.DepartureDate)
	inv, err := load(p.db.WithContext(ctx), []uint{q.Accommodation.ID}, arrival, departure, false)
	if err != nil {
		return nil, err
	}
	return inv.price(q.Accommodation.ID, q.RateCode, arrival, departure, 0)
}

func (p *PMS) GetAvailabilityForBlock(ctx context.Context, _ vendors.CompanyDetails, _ models.Destination, accommodations []models.Accommodation, month time.Month, year, daysInMonth int) (map[int][]models.AccommodationAvailability, error) {
	ids := make([]uint, len(accommodations))
	for i, a := range accommodations {
		ids[i] = a.ID
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, month, daysInMonth, 0, 0, 0, 0, time.UTC)
	inv, err := load(p.db.WithContext(ctx), ids, from, to, false)
	if err != nil {
		return nil, err
	}

	out := make(map[int][]models.AccommodationAvailability, daysInMonth)
	for d := 1; d <= daysInMonth; d++ {
		night := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
		for _, a := range accommodations {
			codes := inv.codes(a.ID, night)
			if len(codes) == 0 {
				continue
			}
			item := models.AccommodationAvailability{AccommodationID: a.ID, ExternalSystemID: a.ExternalSystemID}
			for i, code := range codes {
				r := inv.rate(a.ID, code, night)
				if i == 0 {
					item.MinStay, item.MaxStay = r.MinStay, r.MaxStay
				}
				item.Prices = append(item.Prices, models.PriceTier{
					TotalInCents:      r.NightlyPriceInCents,
					Currency:          r.Currency,
					QuantityAvailable: inv.available(r, night, 0),
					RateCode:          code,
				})
			}
			out[d] = append(out[d], item)
		}
	}
	return out, nil
}

// CreateReservation holds the units inside a transaction that locks the
// accommodation's rate rows, so two bookings cannot take the last unit.
func (p *PMS) CreateReservation(ctx context.Context, _ vendors.CompanyDetails, req vendors.ReservationRequest) (*vendors.ReservationResult, error) {
	arrival, departure := day(req.ArrivalDate), day(req.DepartureDate)
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	b := InventoryBooking{
		ConfirmationCode: p.newCode(),
		ItineraryID:      req.ItineraryID,
		AccommodationID:  req.Accommodation.ID,
		RateCode:         req.RateCode,
		ArrivalDate:      arrival,
		DepartureDate:    departure,
		Quantity:         quantity,
		Adults:           req.Adults,
		Children:         req.Children,
		Status:           BookingStatusBooked,
		GuestFirstName:   req.Guest.FirstName,
		GuestLastName:    req.Guest.LastName,
		GuestEmail:       req.Guest.Email,
		TotalInCents:     req.PriceDetail.GrandTotalInCents,
	}
	if raw, err := json.Marshal(map[string]interface{}{"destinationId": req.Destination.ID, "currency": req.PriceDetail.Currency}); err == nil {
		b.MetaData = datatypes.JSON(raw)
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := load(tx, []uint{b.AccommodationID}, arrival, departure, true)
		if err != nil {
			return err
		}
		priced, err := inv.price(b.AccommodationID, b.RateCode, arrival, departure, 0)
		if err != nil {
			return err
		}
		if priced.QuantityAvailable < quantity {
			return errors.Integration("Accommodation is not available", nil)
		}
		return tx.Create(&b).Error
	})
	if err != nil {
		return nil, err
	}
	return result(&b), nil
}

func result(b *InventoryBooking) *vendors.ReservationResult {
	return &vendors.ReservationResult{
		ID:              strconv.FormatUint(uint64(b.ID), 10),
		ConfirmationID:  b.ConfirmationCode,
		ItineraryNumber: b.ItineraryID,
		MetaData: map[string]interface{}{
			"system":    ServiceKey,
			"bookingId": b.ID,
		},
	}
}

func (p *PMS) find(db *gorm.DB, confirmationCode string, lock bool) (*InventoryBooking, error) {
	var b InventoryBooking
	q := db.Where("confirmation_code = ?", confirmationCode)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&b).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound(fmt.Sprintf("Booking %s not found", confirmationCode))
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return &b, nil
}

// UpdateReservation moves a booking to new dates, room or rate. The booking's
// own units are not counted against it.
func (p *PMS) UpdateReservation(ctx context.Context, _ vendors.CompanyDetails, req vendors.ReservationRequest) (*vendors.ReservationResult, error) {
	arrival, departure := day(req.ArrivalDate), day(req.DepartureDate)
	var b *InventoryBooking
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = p.find(tx, req.ExternalConfirmationID, true)
		if err != nil {
			return err
		}
		if b.Status != BookingStatusBooked {
			return errors.BadRequest(fmt.Sprintf("Booking %s is canceled", b.ConfirmationCode))
		}
		inv, err := load(tx, []uint{req.Accommodation.ID}, arrival, departure, true)
		if err != nil {
			return err
		}
		priced, err := inv.price(req.Accommodation.ID, req.RateCode, arrival, departure, b.ID)
		if err != nil {
			return err
		}
		if priced.QuantityAvailable < b.Quantity {
			return errors.Integration("Accommodation is not available", nil)
		}
		b.AccommodationID = req.Accommodation.ID
		b.RateCode = req.RateCode
		b.ArrivalDate = arrival
		b.DepartureDate = departure
		b.Adults = req.Adults
		b.Children = req.Children
		b.TotalInCents = req.PriceDetail.GrandTotalInCents
		return tx.Save(b).Error
	})
	if err != nil {
		return nil, err
	}
	return result(b), nil
}

// CancelReservation releases the booking. Canceling twice returns the first
// cancellation.
func (p *PMS) CancelReservation(ctx context.Context, _ vendors.CompanyDetails, req vendors.CancelRequest) (*vendors.CancelResult, error) {
	var b *InventoryBooking
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = p.find(tx, req.ExternalConfirmationID, true)
		if err != nil {
			return err
		}
		if b.Status == BookingStatusCanceled {
			return nil
		}
		now := p.clock.Now()
		b.Status = BookingStatusCanceled
		b.CancellationCode = "CX" + b.ConfirmationCode
		b.CanceledAt = &now
		return tx.Save(b).Error
	})
	if err != nil {
		return nil, err
	}
	return &vendors.CancelResult{CancellationID: b.CancellationCode}, nil
}

// GetAvailableRateCodes lists the rate codes with inventory from today on
// at any accommodation of the destination.
func (p *PMS) GetAvailableRateCodes(ctx context.Context, _ vendors.CompanyDetails, destination models.Destination) ([]models.Rate, error) {
	type row struct {
		RateCode string
		RateName string
	}
	var rows []row
	err := p.db.WithContext(ctx).Model(&InventoryRate{}).
		Select("inventory_rates.rate_code AS rate_code, MAX(inventory_rates.rate_name) AS rate_name").
		Joins("JOIN accommodations ON accommodations.id = inventory_rates.accommodation_id").
		Where("accommodations.destination_id = ? AND inventory_rates.end_date >= ?", destination.ID, day(p.clock.Now())).
		Group("inventory_rates.rate_code").
		Order("inventory_rates.rate_code").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list rate codes: %w", err)
	}
	out := make([]models.Rate, 0, len(rows))
	for _, r := range rows {
		name := r.RateName
		if name == "" {
			name = r.RateCode
		}
		out = append(out, models.Rate{Code: r.RateCode, Name: name})
	}
	return out, nil
}

var _ vendors.ReservationSystem = (*PMS)(nil)
