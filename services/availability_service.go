package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"loyaltystay/cache"
	"loyaltystay/clock"
	"loyaltystay/constants"
	"loyaltystay/dto"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/services/logger"
	"loyaltystay/validator"
	"loyaltystay/vendors"

	"github.com/goccy/go-json"
)

const DefaultAvailabilityTTL = 26 * time.Hour

// AvailabilityService keeps per destination-day availability blocks in the
// cache and prices stays from them, falling back to the vendor on a miss.
type AvailabilityService struct {
	cache        cache.Store
	catalog      CatalogStore
	companies    CompanyStore
	reservations vendors.Provider[vendors.ReservationSystem]
	clock        clock.Clock
	logger       logger.Logger
	ttl          time.Duration
}

type AvailabilityServiceOptions struct {
	Cache        cache.Store
	Catalog      CatalogStore
	Companies    CompanyStore
	Reservations vendors.Provider[vendors.ReservationSystem]
	Clock        clock.Clock
	Logger       logger.Logger
	TTL          time.Duration
}

func NewAvailabilityService(opts AvailabilityServiceOptions) *AvailabilityService {
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultAvailabilityTTL
	}
	return &AvailabilityService{
		cache:        opts.Cache,
		catalog:      opts.Catalog,
		companies:    opts.Companies,
		reservations: opts.Reservations,
		clock:        opts.Clock,
		logger:       opts.Logger,
		ttl:          opts.TTL,
	}
}

// vendorError keeps AppErrors and maps everything else onto
// INTEGRATION_ERROR or DECLINED_PAYMENT.
func vendorError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.IsAppError(err) {
		return err
	}
	if stderrors.Is(err, vendors.ErrPaymentDeclined) {
		return errors.DeclinedPayment("Payment was declined", err)
	}
	return errors.Integration(message, err)
}

func (s *AvailabilityService) companyDestination(ctx context.Context, companyID, destinationID uint) (*models.Destination, error) {
	dest, err := s.catalog.GetDestination(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	if dest.CompanyID != companyID {
		return nil, errors.NotFound("Destination not found")
	}
	return dest, nil
}

// SyncAvailabilityBlock refreshes the whole month that key falls in with one
// vendor call and replaces every day's block. It returns the blocks written.
func (s *AvailabilityService) SyncAvailabilityBlock(ctx context.Context, companyID uint, key string) (map[string]models.AvailabilityBlock, error) {
	k, err := cache.ParseAvailabilityKey(key)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCodeBadRequest, "Invalid availability key", err)
	}
	if k.CompanyID != companyID {
		return nil, errors.BadRequest("Availability key belongs to another company")
	}
	dest, err := s.companyDestination(ctx, companyID, k.DestinationID)
	if err != nil {
		return nil, err
	}
	accommodations, err := s.catalog.ListAccommodations(ctx, dest.ID)
	if err != nil {
		return nil, err
	}
	resolved, err := s.reservations.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	year, month := k.Date.Year(), k.Date.Month()
	days := cache.DaysIn(year, month)
	perDay, err := resolved.System.GetAvailabilityForBlock(ctx, resolved.CompanyDetails, *dest, accommodations, month, year, days)
	if err != nil {
		return nil, vendorError(err, "Failed to fetch availability from vendor")
	}

	byExternal := make(map[string]uint, len(accommodations))
	known := make(map[uint]bool, len(accommodations))
	for _, a := range accommodations {
		known[a.ID] = true
		if a.ExternalSystemID != "" {
			byExternal[a.ExternalSystemID] = a.ID
		}
	}

	now := s.clock.Now()
	written := make(map[string]models.AvailabilityBlock, days)
	for day := 1; day <= days; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		block := models.AvailabilityBlock{
			CompanyID:      companyID,
			DestinationID:  dest.ID,
			IndexDate:      date.Format(constants.DateLayout),
			Accommodations: []models.AccommodationAvailability{},
			SyncedAt:       now,
		}
		for _, item := range perDay[day] {
			if item.AccommodationID == 0 {
				item.AccommodationID = byExternal[item.ExternalSystemID]
			}
			if !known[item.AccommodationID] {
				s.logger.Debug("availability sync %s: skipping unknown accommodation %q", block.IndexDate, item.ExternalSystemID)
				continue
			}
			item.MarkPriceExtremes()
			block.Accommodations = append(block.Accommodations, item)
		}
		sort.Slice(block.Accommodations, func(i, j int) bool {
			return block.Accommodations[i].AccommodationID < block.Accommodations[j].AccommodationID
		})

		blockKey := cache.NewAvailabilityKey(companyID, dest.ID, date).String()
		if err := s.cache.Set(ctx, blockKey, block, s.ttl); err != nil {
			return nil, err
		}
		written[blockKey] = block
	}

	s.logger.Info("synced availability for company %d destination %d %04d-%02d (%d days)", companyID, dest.ID, year, int(month), days)
	return written, nil
}

// GetAvailabilityRefreshKeys lists the cached block keys of a company.
func (s *AvailabilityService) GetAvailabilityRefreshKeys(ctx context.Context, companyID uint) ([]string, error) {
	keys, err := s.cache.Keys(ctx, cache.AvailabilityPattern(companyID))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// VerifyAvailability checks and prices a stay.
func (s *AvailabilityService) VerifyAvailability(ctx context.Context, req dto.StayRequest) (*dto.PricedStay, error) {
	return s.price(ctx, req, nil, true)
}

// QuoteStay prices a change to a booked stay. Units are not checked here:
// the availability seen from outside still counts the stay's own units, so
// the vendor's update call decides. keep holds package lines already priced
// for the stay; they are added as they are.
func (s *AvailabilityService) QuoteStay(ctx context.Context, req dto.StayRequest, keep []models.PackagePriceDetail) (*dto.PricedStay, error) {
	return s.price(ctx, req, keep, false)
}

func (s *AvailabilityService) price(ctx context.Context, req dto.StayRequest, keep []models.PackagePriceDetail, checkUnits bool) (*dto.PricedStay, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	arrival, departure, err := validator.ParseStayDates(req.ArrivalDate, req.DepartureDate)
	if err != nil {
		return nil, err
	}

	company, err := s.companies.GetByID(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	dest, err := s.companyDestination(ctx, req.CompanyID, req.DestinationID)
	if err != nil {
		return nil, err
	}
	acc, err := s.catalog.GetAccommodation(ctx, req.AccommodationID)
	if err != nil {
		return nil, err
	}
	if acc.DestinationID != dest.ID {
		return nil, errors.BadRequest("Accommodation does not belong to destination")
	}
	if !acc.AllowsRate(req.RateCode) {
		return nil, errors.BadRequest("Invalid rate code")
	}
	packages, err := s.loadPackages(ctx, dest.ID, req.UpsellPackageIDs)
	if err != nil {
		return nil, err
	}

	priced, err := s.priceFromCache(ctx, req, arrival, departure)
	if err != nil {
		return nil, err
	}
	if priced == nil {
		priced, err = s.priceFromVendor(ctx, req, *dest, *acc, arrival, departure)
		if err != nil {
			return nil, err
		}
	}

	nights := len(priced.NightlyRates)
	if nights == 0 {
		return nil, errors.Integration("Vendor returned no nightly rates", nil)
	}
	if priced.MinStay > 0 && nights < priced.MinStay {
		return nil, errors.BadRequest(fmt.Sprintf("Minimum stay is %d nights", priced.MinStay))
	}
	if priced.MaxStay > 0 && nights > priced.MaxStay {
		return nil, errors.BadRequest(fmt.Sprintf("Maximum stay is %d nights", priced.MaxStay))
	}
	if checkUnits && priced.QuantityAvailable < req.Units() {
		return nil, errors.Integration("Accommodation is not available", nil)
	}

	currency := priced.Currency
	if currency == "" {
		currency = company.Currency
	}

	priced.CompanyID = req.CompanyID
	priced.DestinationID = dest.ID
	priced.AccommodationID = acc.ID
	priced.AccommodationExternalID = acc.ExternalSystemID
	priced.RateCode = req.RateCode
	priced.ArrivalDate = arrival
	priced.DepartureDate = departure
	priced.Nights = nights
	priced.Quantity = req.Units()
	priced.Adults = req.Adults
	priced.Children = req.Children
	priced.Currency = currency
	priced.UpsellPackages = packages
	priced.PriceDetail = BuildPriceDetail(PriceInput{
		Currency:        currency,
		NightlyRates:    priced.NightlyRates,
		Quantity:        req.Units(),
		Packages:        packages,
		PackageLines:    keep,
		Fees:            dest.Fees,
		PointsPerDollar: company.PointsPerDollar,
		PointsToApply:   req.PointsToApply,
	})
	return priced, nil
}

func (s *AvailabilityService) loadPackages(ctx context.Context, destinationID uint, ids []uint) ([]models.UpsellPackage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	pkgs, err := s.catalog.GetUpsellPackages(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(pkgs) != len(unique) {
		return nil, errors.BadRequest("Invalid upsell package")
	}
	for _, p := range pkgs {
		if !p.IsActive || p.DestinationID != destinationID {
			return nil, errors.BadRequest(fmt.Sprintf("Upsell package %d is not available", p.ID))
		}
	}
	return pkgs, nil
}

// priceFromCache returns nil when any night's block is missing.
func (s *AvailabilityService) priceFromCache(ctx context.Context, req dto.StayRequest, arrival, departure time.Time) (*dto.PricedStay, error) {
	var keys []string
	for d := arrival; d.Before(departure); d = d.AddDate(0, 0, 1) {
		keys = append(keys, cache.NewAvailabilityKey(req.CompanyID, req.DestinationID, d).String())
	}
	raw, err := s.cache.GetMany(ctx, keys)
	if err != nil {
		s.logger.Warn("availability cache read failed, asking vendor: %v", err)
		return nil, nil
	}
	if len(raw) < len(keys) {
		s.logger.Debug("availability cache miss for destination %d %s..%s", req.DestinationID, req.ArrivalDate, req.DepartureDate)
		return nil, nil
	}

	priced := &dto.PricedStay{Source: constants.PriceSourceCache, QuantityAvailable: -1}
	for i, key := range keys {
		var block models.AvailabilityBlock
		if err := json.Unmarshal(raw[key], &block); err != nil {
			s.logger.Warn("availability block %s unreadable, asking vendor: %v", key, err)
			return nil, nil
		}
		acc, ok := block.Find(req.AccommodationID)
		if !ok {
			return nil, errors.BadRequest("Invalid rate code")
		}
		tier, ok := acc.Tier(req.RateCode)
		if !ok {
			return nil, errors.BadRequest("Invalid rate code")
		}
		if i == 0 {
			priced.MinStay = acc.MinStay
			priced.MaxStay = acc.MaxStay
			priced.Currency = tier.Currency
		} else if tier.Currency != priced.Currency {
			return nil, errors.Integration("Nightly rates use different currencies", nil)
		}
		if priced.QuantityAvailable < 0 || tier.QuantityAvailable < priced.QuantityAvailable {
			priced.QuantityAvailable = tier.QuantityAvailable
		}
		priced.NightlyRates = append(priced.NightlyRates, models.NightlyRate{
			Date:          block.IndexDate,
			AmountInCents: tier.TotalInCents,
		})
	}
	return priced, nil
}

func (s *AvailabilityService) priceFromVendor(ctx context.Context, req dto.StayRequest, dest models.Destination, acc models.Accommodation, arrival, departure time.Time) (*dto.PricedStay, error) {
	resolved, err := s.reservations.Get(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	priced, err := resolved.System.VerifyAvailability(ctx, resolved.CompanyDetails, vendors.AvailabilityQuery{
		Destination:   dest,
		Accommodation: acc,
		RateCode:      req.RateCode,
		ArrivalDate:   arrival,
		DepartureDate: departure,
		Quantity:      req.Units(),
		Adults:        req.Adults,
		Children:      req.Children,
	})
	if err != nil {
		return nil, vendorError(err, "Failed to verify availability with vendor")
	}
	if priced == nil {
		return nil, errors.Integration("Vendor returned no availability", nil)
	}
	priced.Source = constants.PriceSourceVendor
	return priced, nil
}

// RepricePackages reprices a booked stay for a new package selection
// without asking the vendor again. Nightly rates and applied points are
// carried over.
func (s *AvailabilityService) RepricePackages(ctx context.Context, res *models.Reservation, packageIDs []uint) (models.PriceDetail, error) {
	company, err := s.companies.GetByID(ctx, res.CompanyID)
	if err != nil {
		return models.PriceDetail{}, err
	}
	dest, err := s.companyDestination(ctx, res.CompanyID, res.DestinationID)
	if err != nil {
		return models.PriceDetail{}, err
	}
	packages, err := s.loadPackages(ctx, dest.ID, packageIDs)
	if err != nil {
		return models.PriceDetail{}, err
	}
	current := res.PriceDetail.Data()
	ppd := current.PointsPerDollar
	if ppd == 0 {
		ppd = company.PointsPerDollar
	}
	return BuildPriceDetail(PriceInput{
		Currency:        current.Currency,
		NightlyRates:    current.NightlyRates,
		Quantity:        current.Quantity,
		Packages:        packages,
		Fees:            dest.Fees,
		PointsPerDollar: ppd,
		PointsToApply:   current.PointsApplied,
	}), nil
}
