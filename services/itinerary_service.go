package services

import (
	"context"
	"fmt"
	"sort"

	"loyaltystay/builders"
	"loyaltystay/clock"
	"loyaltystay/constants"
	"loyaltystay/dto"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/services/logger"
	"loyaltystay/validator"
	"loyaltystay/vendors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StayVerifier prices stays.
type StayVerifier interface {
	VerifyAvailability(ctx context.Context, req dto.StayRequest) (*dto.PricedStay, error)
	QuoteStay(ctx context.Context, req dto.StayRequest, keep []models.PackagePriceDetail) (*dto.PricedStay, error)
	RepricePackages(ctx context.Context, res *models.Reservation, packageIDs []uint) (models.PriceDetail, error)
}

// PointLedger is the part of the point ledger a booking touches.
type PointLedger interface {
	GetPointBalance(ctx context.Context, userID uint) (int64, error)
	SpendPoints(ctx context.Context, in dto.SpendPointsInput) (*models.UserPoint, error)
	RollBackSpentPoints(ctx context.Context, spentID uint) (int64, error)
	AwardPoints(ctx context.Context, in dto.AwardPointsInput) (*models.UserPoint, error)
}

type GuestResolver interface {
	ResolveGuest(ctx context.Context, companyID, userID uint, g dto.GuestRequest) (*models.User, error)
	ResolveAddress(ctx context.Context, user *models.User, existingID *uint, addr *dto.AddressRequest) (*models.UserAddress, error)
}

type PaymentResolver interface {
	Resolve(ctx context.Context, companyID uint, user *models.User, existingID *uint, card *dto.PaymentMethodRequest) (*models.UserPaymentMethod, error)
	AppendToReservation(ctx context.Context, companyID uint, res *models.Reservation, pm *models.UserPaymentMethod)
	EnrollOffsiteLoyalty(ctx context.Context, companyID uint, res *models.Reservation, pm *models.UserPaymentMethod)
}

// ItineraryService books, changes, cancels and completes stays. Each stay of
// an itinerary is booked on its own; a failing stay does not undo the stays
// the vendor already confirmed.
type ItineraryService struct {
	tx           TxRunner
	reservations ReservationStore
	companies    CompanyStore
	catalog      CatalogStore
	availability StayVerifier
	points       PointLedger
	guests       GuestResolver
	payments     PaymentResolver
	systems      vendors.Provider[vendors.ReservationSystem]
	clock        clock.Clock
	logger       logger.Logger
	newID        func() string
}

type ItineraryServiceOptions struct {
	Tx           TxRunner
	Reservations ReservationStore
	Companies    CompanyStore
	Catalog      CatalogStore
	Availability StayVerifier
	Points       PointLedger
	Guests       GuestResolver
	Payments     PaymentResolver
	Systems      vendors.Provider[vendors.ReservationSystem]
	Clock        clock.Clock
	Logger       logger.Logger
	NewID        func() string
}

func NewItineraryService(opts ItineraryServiceOptions) *ItineraryService {
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &ItineraryService{
		tx:           opts.Tx,
		reservations: opts.Reservations,
		companies:    opts.Companies,
		catalog:      opts.Catalog,
		availability: opts.Availability,
		points:       opts.Points,
		guests:       opts.Guests,
		payments:     opts.Payments,
		systems:      opts.Systems,
		clock:        opts.Clock,
		logger:       opts.Logger,
		newID:        opts.NewID,
	}
}

// booking is what every stay of one itinerary shares.
type booking struct {
	itineraryID string
	companyID   uint
	user        *models.User
	guest       dto.GuestRequest
	address     *models.UserAddress
	payment     *models.UserPaymentMethod
	parentID    *uint
}

// CreateItinerary books every stay of the request in order. All request
// checks run before the first vendor call. Redeeming points or reusing a
// saved address or payment method needs a signed-in user.
func (s *ItineraryService) CreateItinerary(ctx context.Context, req dto.CreateItineraryRequest) (*dto.ItineraryResponse, error) {
	stays := make([]dto.StayRequest, len(req.Stays))
	copy(stays, req.Stays)
	for i := range stays {
		if stays[i].CompanyID == 0 {
			stays[i].CompanyID = req.CompanyID
		}
	}
	req.Stays = stays

	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	var pointsRequested int64
	for i, st := range req.Stays {
		if st.CompanyID != req.CompanyID {
			return nil, errors.BadRequest(fmt.Sprintf("Stay %d belongs to another company", i+1))
		}
		if _, _, err := validator.ParseStayDates(st.ArrivalDate, st.DepartureDate); err != nil {
			return nil, errors.Prefix(err, fmt.Sprintf("Stay %d", i+1))
		}
		pointsRequested += st.PointsToApply
	}
	if req.ExistingAddressID == nil && req.NewAddress == nil {
		return nil, errors.BadRequest("Address is required")
	}
	// an email alone never unlocks an account's points or saved details
	if req.UserID == 0 && (pointsRequested > 0 || req.ExistingAddressID != nil || req.ExistingPaymentMethodID != nil) {
		return nil, errors.BadRequest("Sign in to use points or saved billing details")
	}

	user, err := s.guests.ResolveGuest(ctx, req.CompanyID, req.UserID, req.Guest)
	if err != nil {
		return nil, err
	}
	addr, err := s.guests.ResolveAddress(ctx, user, req.ExistingAddressID, req.NewAddress)
	if err != nil {
		return nil, err
	}
	pm, err := s.payments.Resolve(ctx, req.CompanyID, user, req.ExistingPaymentMethodID, req.NewPaymentMethod)
	if err != nil {
		return nil, err
	}
	if pointsRequested > 0 {
		balance, err := s.points.GetPointBalance(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if balance < pointsRequested {
			return nil, errors.NewAppError(errors.ErrCodeBadRequest,
				fmt.Sprintf("Insufficient points: %d available, %d requested", balance, pointsRequested), errors.ErrInsufficientPoints)
		}
	}

	b := &booking{
		itineraryID: s.newID(),
		companyID:   req.CompanyID,
		user:        user,
		guest:       req.Guest,
		address:     addr,
		payment:     pm,
	}
	resp := &dto.ItineraryResponse{ItineraryID: b.itineraryID}
	for i, st := range req.Stays {
		res, err := s.bookStay(ctx, b, i+1, st)
		if err != nil {
			if len(resp.Stays) > 0 {
				s.logger.Warn("itinerary %s stopped at stay %d, %d earlier stays stay booked", b.itineraryID, i+1, len(resp.Stays))
			}
			return nil, err
		}
		if b.parentID == nil {
			id := res.ID
			b.parentID = &id
		}
		resp.Stays = append(resp.Stays, *res)
	}
	s.logger.Info("itinerary %s booked with %d stays for user %d", b.itineraryID, len(resp.Stays), user.ID)
	return resp, nil
}

func (s *ItineraryService) bookStay(ctx context.Context, b *booking, n int, st dto.StayRequest) (*models.Reservation, error) {
	step := func(name string) string { return fmt.Sprintf("Stay %d %s", n, name) }

	priced, err := s.availability.VerifyAvailability(ctx, st)
	if err != nil {
		return nil, errors.Prefix(err, step("verify"))
	}
	dest, err := s.catalog.GetDestination(ctx, priced.DestinationID)
	if err != nil {
		return nil, errors.Prefix(err, step("verify"))
	}
	acc, err := s.catalog.GetAccommodation(ctx, priced.AccommodationID)
	if err != nil {
		return nil, errors.Prefix(err, step("verify"))
	}
	system, err := s.systems.Get(ctx, b.companyID)
	if err != nil {
		return nil, errors.Prefix(err, step("reservation"))
	}

	pd := priced.PriceDetail
	var spent *models.UserPoint
	if pd.PointsApplied > 0 {
		spent, err = s.points.SpendPoints(ctx, dto.SpendPointsInput{
			UserID:      b.user.ID,
			CompanyID:   b.companyID,
			Amount:      pd.PointsApplied,
			Reason:      constants.PointReasonReservation,
			Description: fmt.Sprintf("Itinerary %s stay %d", b.itineraryID, n),
		})
		if err != nil {
			return nil, errors.Prefix(err, step("points"))
		}
	}

	result, err := system.System.CreateReservation(ctx, system.CompanyDetails, vendors.ReservationRequest{
		ItineraryID:    b.itineraryID,
		Destination:    *dest,
		Accommodation:  *acc,
		RateCode:       priced.RateCode,
		ArrivalDate:    priced.ArrivalDate,
		DepartureDate:  priced.DepartureDate,
		Quantity:       priced.Quantity,
		Adults:         priced.Adults,
		Children:       priced.Children,
		Guest:          vendorGuest(b.user, b.guest),
		BillingAddress: b.address,
		PaymentMethod:  b.payment,
		PriceDetail:    pd,
	})
	if err == nil && result == nil {
		err = errors.Integration("Vendor returned no reservation", nil)
	}
	if err != nil {
		s.refundSpend(ctx, spent)
		return nil, errors.Prefix(vendorError(err, "Vendor rejected reservation"), step("vendor create"))
	}

	res := builders.NewReservationBuilder().
		WithItinerary(b.itineraryID, b.parentID).
		WithStay(priced).
		WithGuest(b.user, b.guest).
		WithBilling(b.address, b.payment).
		WithVendorResult(result).
		WithSpend(spent).
		Build()
	links := res.UpsellPackages
	res.UpsellPackages = nil

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.reservations.Create(ctx, res); err != nil {
			return err
		}
		if res.ParentReservationID == nil {
			id := res.ID
			res.ParentReservationID = &id
			if err := s.reservations.Update(ctx, res); err != nil {
				return err
			}
		}
		return s.reservations.CreatePackages(ctx, res.ID, links)
	})
	if err != nil {
		s.logger.Error("stay %d of itinerary %s confirmed by vendor as %s but not saved: %v", n, b.itineraryID, result.ConfirmationID, err)
		s.undoVendorReservation(ctx, system, *dest, result)
		s.refundSpend(ctx, spent)
		return nil, errors.Prefix(err, step("persist"))
	}
	for i := range links {
		links[i].ReservationID = res.ID
	}
	res.UpsellPackages = links

	if b.payment != nil {
		s.payments.AppendToReservation(ctx, b.companyID, res, b.payment)
		s.payments.EnrollOffsiteLoyalty(ctx, b.companyID, res, b.payment)
	}
	return res, nil
}

func vendorGuest(u *models.User, g dto.GuestRequest) vendors.Guest {
	out := vendors.Guest{FirstName: g.FirstName, LastName: g.LastName, Email: u.Email, Phone: g.Phone}
	if out.FirstName == "" {
		out.FirstName = u.FirstName
	}
	if out.LastName == "" {
		out.LastName = u.LastName
	}
	if out.Phone == "" {
		out.Phone = u.PhoneNumber
	}
	return out
}

func (s *ItineraryService) refundSpend(ctx context.Context, spent *models.UserPoint) {
	if spent == nil {
		return
	}
	if _, err := s.points.RollBackSpentPoints(ctx, spent.ID); err != nil {
		s.logger.Error("failed to roll back spend %d: %v", spent.ID, err)
	}
}

func (s *ItineraryService) undoVendorReservation(ctx context.Context, system vendors.Resolved[vendors.ReservationSystem], dest models.Destination, result *vendors.ReservationResult) {
	_, err := system.System.CancelReservation(ctx, system.CompanyDetails, vendors.CancelRequest{
		Destination:            dest,
		ExternalReservationID:  result.ID,
		ExternalConfirmationID: result.ConfirmationID,
	})
	if err != nil {
		s.logger.Error("failed to cancel unsaved vendor reservation %s: %v", result.ConfirmationID, err)
	}
}

// GetItinerary returns the active stays of an itinerary, parent first.
func (s *ItineraryService) GetItinerary(ctx context.Context, itineraryID string) (*dto.ItineraryResponse, error) {
	stays, err := s.reservations.ListByItinerary(ctx, itineraryID, false)
	if err != nil {
		return nil, err
	}
	if len(stays) == 0 {
		return nil, errors.NotFound("Itinerary not found")
	}
	sort.SliceStable(stays, func(i, j int) bool {
		pi := stays[i].ParentReservationID != nil && *stays[i].ParentReservationID == stays[i].ID
		pj := stays[j].ParentReservationID != nil && *stays[j].ParentReservationID == stays[j].ID
		if pi != pj {
			return pi
		}
		return stays[i].ID < stays[j].ID
	})
	return &dto.ItineraryResponse{ItineraryID: itineraryID, Stays: stays}, nil
}

// GetReservation returns one stay with its package links.
func (s *ItineraryService) GetReservation(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	return s.reservations.GetByID(ctx, reservationID)
}

func (s *ItineraryService) openReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.GetReservationState(res).Modify(); err != nil {
		return nil, err
	}
	return res, nil
}

// packageLines returns the price snapshots of the stay's linked packages.
func packageLines(res *models.Reservation) []models.PackagePriceDetail {
	lines := make([]models.PackagePriceDetail, 0, len(res.UpsellPackages))
	for _, p := range res.UpsellPackages {
		lines = append(lines, p.PriceDetail.Data())
	}
	return lines
}

// Update applies a patch to one stay. Date, room or rate changes are priced
// again and sent to the vendor, occupancy changes go to the vendor at the
// booked price, and a package-only change is repriced locally. Omitting
// UpsellPackageIDs leaves the package links and their prices as booked.
// Points already applied carry over and shrink with the total.
func (s *ItineraryService) Update(ctx context.Context, reservationID uint, req dto.UpdateReservationRequest) (*models.Reservation, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	res, err := s.openReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	stayChanged := req.StayChanged()
	occupancyChanged := req.Adults != nil || req.Children != nil
	packagesChanged := req.UpsellPackageIDs != nil
	if !stayChanged && !occupancyChanged && !packagesChanged {
		return res, nil
	}
	current := res.PriceDetail.Data()

	var (
		pd     models.PriceDetail
		priced *dto.PricedStay
	)
	switch {
	case stayChanged:
		stay := dto.StayRequest{
			CompanyID:       res.CompanyID,
			DestinationID:   res.DestinationID,
			AccommodationID: res.AccommodationID,
			RateCode:        res.RateCode,
			ArrivalDate:     res.ArrivalDate.Format(constants.DateLayout),
			DepartureDate:   res.DepartureDate.Format(constants.DateLayout),
			Quantity:        res.Quantity,
			Adults:          res.Adults,
			Children:        res.Children,
			PointsToApply:   current.PointsApplied,
		}
		if req.ArrivalDate != nil {
			stay.ArrivalDate = *req.ArrivalDate
		}
		if req.DepartureDate != nil {
			stay.DepartureDate = *req.DepartureDate
		}
		if req.AccommodationID != nil {
			stay.AccommodationID = *req.AccommodationID
		}
		if req.RateCode != nil {
			stay.RateCode = *req.RateCode
		}
		var keep []models.PackagePriceDetail
		if packagesChanged {
			stay.UpsellPackageIDs = *req.UpsellPackageIDs
		} else {
			keep = packageLines(res)
		}
		priced, err = s.availability.QuoteStay(ctx, stay, keep)
		if err != nil {
			return nil, err
		}
		pd = priced.PriceDetail
	case packagesChanged:
		pd, err = s.availability.RepricePackages(ctx, res, *req.UpsellPackageIDs)
		if err != nil {
			return nil, err
		}
	default:
		pd = current
	}

	if stayChanged || occupancyChanged {
		if priced == nil {
			priced = bookedStay(res)
		}
		if req.Adults != nil {
			priced.Adults = *req.Adults
		}
		if req.Children != nil {
			priced.Children = *req.Children
		}
		priced.PriceDetail = pd
		if err := s.updateAtVendor(ctx, res, priced); err != nil {
			return nil, err
		}
		res.AccommodationID = priced.AccommodationID
		res.RateCode = priced.RateCode
		res.ArrivalDate = priced.ArrivalDate
		res.DepartureDate = priced.DepartureDate
		res.Adults = priced.Adults
		res.Children = priced.Children
	}
	res.PriceDetail = datatypes.NewJSONType(pd)

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if res.UserPointSpentID != nil && pd.PointsApplied < current.PointsApplied {
			if _, err := s.points.RollBackSpentPoints(ctx, *res.UserPointSpentID); err != nil {
				return err
			}
			res.UserPointSpentID = nil
			if pd.PointsApplied > 0 {
				spent, err := s.points.SpendPoints(ctx, dto.SpendPointsInput{
					UserID:        res.UserID,
					CompanyID:     res.CompanyID,
					Amount:        pd.PointsApplied,
					ReservationID: &res.ID,
					Reason:        constants.PointReasonReservation,
					Description:   fmt.Sprintf("Reservation %d repriced", res.ID),
				})
				if err != nil {
					return err
				}
				res.UserPointSpentID = &spent.ID
			}
		}
		if err := s.reservations.Update(ctx, res); err != nil {
			return err
		}
		if !packagesChanged {
			return nil
		}
		return s.reservations.ReplacePackages(ctx, res.ID, builders.PackageLinks(res.ID, pd))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("reservation %d updated", res.ID)
	return s.reservations.GetByID(ctx, res.ID)
}

// bookedStay describes the stay as it is booked now.
func bookedStay(res *models.Reservation) *dto.PricedStay {
	pd := res.PriceDetail.Data()
	return &dto.PricedStay{
		CompanyID:       res.CompanyID,
		DestinationID:   res.DestinationID,
		AccommodationID: res.AccommodationID,
		RateCode:        res.RateCode,
		ArrivalDate:     res.ArrivalDate,
		DepartureDate:   res.DepartureDate,
		Nights:          res.Nights(),
		Quantity:        res.Quantity,
		Adults:          res.Adults,
		Children:        res.Children,
		Currency:        pd.Currency,
		NightlyRates:    pd.NightlyRates,
		PriceDetail:     pd,
	}
}

func (s *ItineraryService) updateAtVendor(ctx context.Context, res *models.Reservation, priced *dto.PricedStay) error {
	dest, err := s.catalog.GetDestination(ctx, priced.DestinationID)
	if err != nil {
		return err
	}
	acc, err := s.catalog.GetAccommodation(ctx, priced.AccommodationID)
	if err != nil {
		return err
	}
	system, err := s.systems.Get(ctx, res.CompanyID)
	if err != nil {
		return err
	}
	req := vendors.ReservationRequest{
		ReservationID: res.ID,
		ItineraryID:   res.ItineraryID,
		Destination:   *dest,
		Accommodation: *acc,
		RateCode:      priced.RateCode,
		ArrivalDate:   priced.ArrivalDate,
		DepartureDate: priced.DepartureDate,
		Quantity:      priced.Quantity,
		Adults:        priced.Adults,
		Children:      priced.Children,
		Guest: vendors.Guest{
			FirstName: res.GuestFirstName,
			LastName:  res.GuestLastName,
			Email:     res.GuestEmail,
			Phone:     res.GuestPhone,
		},
		PriceDetail:            priced.PriceDetail,
		ExternalReservationID:  res.ExternalReservationID,
		ExternalConfirmationID: res.ExternalConfirmationID,
	}
	result, err := system.System.UpdateReservation(ctx, system.CompanyDetails, req)
	if err != nil {
		return vendorError(err, "Vendor rejected reservation change")
	}
	if result != nil {
		if result.ID != "" {
			res.ExternalReservationID = result.ID
		}
		if result.ConfirmationID != "" {
			res.ExternalConfirmationID = result.ConfirmationID
		}
	}
	return nil
}

// CancelReservation cancels the stay at the vendor, then marks it canceled
// and gives back the points it spent in one transaction.
func (s *ItineraryService) CancelReservation(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := models.GetReservationState(res).Cancel(); err != nil {
		return nil, err
	}
	dest, err := s.catalog.GetDestination(ctx, res.DestinationID)
	if err != nil {
		return nil, err
	}
	system, err := s.systems.Get(ctx, res.CompanyID)
	if err != nil {
		return nil, err
	}
	result, err := system.System.CancelReservation(ctx, system.CompanyDetails, vendors.CancelRequest{
		ReservationID:          res.ID,
		Destination:            *dest,
		ExternalReservationID:  res.ExternalReservationID,
		ExternalConfirmationID: res.ExternalConfirmationID,
	})
	if err != nil {
		return nil, vendorError(err, "Vendor rejected cancellation")
	}

	var restored int64
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()
		res.CanceledOn = &now
		if result != nil {
			res.ExternalCancellationID = result.CancellationID
		}
		if err := s.reservations.Update(ctx, res); err != nil {
			return err
		}
		if res.UserPointSpentID == nil {
			return nil
		}
		n, err := s.points.RollBackSpentPoints(ctx, *res.UserPointSpentID)
		restored = n
		return err
	})
	if err != nil {
		s.logger.Error("reservation %d canceled at vendor but not locally: %v", res.ID, err)
		return nil, err
	}
	s.logger.Info("reservation %d canceled, %d points restored", res.ID, restored)
	return res, nil
}

// CompleteReservation marks a stay completed by its confirmation code and
// awards points on the cash paid.
func (s *ItineraryService) CompleteReservation(ctx context.Context, confirmationCode string) (*models.Reservation, error) {
	res, err := s.reservations.GetByConfirmationID(ctx, confirmationCode)
	if err != nil {
		return nil, err
	}
	if err := models.GetReservationState(res).Complete(); err != nil {
		return nil, err
	}
	company, err := s.companies.GetByID(ctx, res.CompanyID)
	if err != nil {
		return nil, err
	}
	earned := EarnedPoints(res.PriceDetail.Data().CashDueInCents, company.EarnPointsPerDollar)

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()
		res.CompletedOn = &now
		if err := s.reservations.Update(ctx, res); err != nil {
			return err
		}
		if earned <= 0 {
			return nil
		}
		_, err := s.points.AwardPoints(ctx, dto.AwardPointsInput{
			UserID:        res.UserID,
			CompanyID:     res.CompanyID,
			Amount:        earned,
			ReservationID: &res.ID,
			Reason:        constants.PointReasonStayCompleted,
			Description:   fmt.Sprintf("Stay %s completed", confirmationCode),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("reservation %d completed, %d points earned", res.ID, earned)
	return res, nil
}
