package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"loyaltystay/clock"
	"loyaltystay/constants"
	"loyaltystay/dto"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/services/logger"
	"loyaltystay/vendors"

	"gorm.io/datatypes"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func testClock() clock.Clock { return clock.NewFixed(testNow) }

// memDB is an in-memory stand-in for the database. WithTx serializes
// transactions and restores a snapshot when fn fails.
type memDB struct {
	mu   sync.Mutex
	txMu sync.Mutex

	nextID         uint
	companies      map[uint]models.Company
	destinations   map[uint]models.Destination
	accommodations map[uint]models.Accommodation
	packages       map[uint]models.UpsellPackage
	rates          map[string]models.Rate
	users          map[uint]models.User
	addresses      map[uint]models.UserAddress
	paymentMethods map[uint]models.UserPaymentMethod
	reservations   map[uint]models.Reservation
	links          map[uint][]models.ReservationUpsellPackage
	points         map[uint]models.UserPoint
	allocations    []models.UserPointAllocationRecord

	fail map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		nextID:         1000,
		companies:      map[uint]models.Company{},
		destinations:   map[uint]models.Destination{},
		accommodations: map[uint]models.Accommodation{},
		packages:       map[uint]models.UpsellPackage{},
		rates:          map[string]models.Rate{},
		users:          map[uint]models.User{},
		addresses:      map[uint]models.UserAddress{},
		paymentMethods: map[uint]models.UserPaymentMethod{},
		reservations:   map[uint]models.Reservation{},
		links:          map[uint][]models.ReservationUpsellPackage{},
		points:         map[uint]models.UserPoint{},
		fail:           map[string]error{},
	}
}

func (db *memDB) id() uint {
	db.nextID++
	return db.nextID
}

func (db *memDB) failure(op string) error {
	return db.fail[op]
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() *memDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	links := make(map[uint][]models.ReservationUpsellPackage, len(db.links))
	for k, v := range db.links {
		links[k] = append([]models.ReservationUpsellPackage(nil), v...)
	}
	return &memDB{
		nextID:         db.nextID,
		companies:      copyMap(db.companies),
		destinations:   copyMap(db.destinations),
		accommodations: copyMap(db.accommodations),
		packages:       copyMap(db.packages),
		rates:          copyMap(db.rates),
		users:          copyMap(db.users),
		addresses:      copyMap(db.addresses),
		paymentMethods: copyMap(db.paymentMethods),
		reservations:   copyMap(db.reservations),
		links:          links,
		points:         copyMap(db.points),
		allocations:    append([]models.UserPointAllocationRecord(nil), db.allocations...),
	}
}

func (db *memDB) restore(s *memDB) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.companies = s.companies
	db.destinations = s.destinations
	db.accommodations = s.accommodations
	db.packages = s.packages
	db.rates = s.rates
	db.users = s.users
	db.addresses = s.addresses
	db.paymentMethods = s.paymentMethods
	db.reservations = s.reservations
	db.links = s.links
	db.points = s.points
	db.allocations = s.allocations
}

type memTxKey struct{}

type memTx struct {
	db    *memDB
	count int
}

func (t *memTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()
	t.count++
	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

type memCompanies struct{ *memDB }

func (m memCompanies) GetByID(_ context.Context, id uint) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, errors.NotFound("Company not found")
	}
	return &c, nil
}

func (m memCompanies) ListActive(_ context.Context) ([]models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Company
	for _, c := range m.companies {
		if c.Status == constants.StatusActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memCatalog struct{ *memDB }

func (m memCatalog) GetDestination(_ context.Context, id uint) (*models.Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.destinations[id]
	if !ok {
		return nil, errors.NotFound("Destination not found")
	}
	return &d, nil
}

func (m memCatalog) ListDestinations(_ context.Context, companyID uint) ([]models.Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Destination
	for _, d := range m.destinations {
		if d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memCatalog) GetAccommodation(_ context.Context, id uint) (*models.Accommodation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accommodations[id]
	if !ok {
		return nil, errors.NotFound("Accommodation not found")
	}
	return &a, nil
}

func (m memCatalog) ListAccommodations(_ context.Context, destinationID uint) ([]models.Accommodation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Accommodation
	for _, a := range m.accommodations {
		if a.DestinationID == destinationID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memCatalog) GetUpsellPackages(_ context.Context, ids []uint) ([]models.UpsellPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UpsellPackage
	for _, id := range ids {
		if p, ok := m.packages[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memRates struct{ *memDB }

func rateKey(destinationID uint, code string) string {
	return fmt.Sprintf("%d:%s", destinationID, code)
}

func (m memRates) Upsert(_ context.Context, r *models.Rate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := rateKey(r.DestinationID, r.Code)
	if old, ok := m.rates[k]; ok {
		r.ID = old.ID
	} else {
		r.ID = m.id()
	}
	m.rates[k] = *r
	return nil
}

func (m memRates) DeactivateMissing(_ context.Context, destinationID uint, keep []string, _ time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := map[string]bool{}
	for _, c := range keep {
		kept[c] = true
	}
	var n int64
	for k, r := range m.rates {
		if r.DestinationID == destinationID && r.IsActive && !kept[r.Code] {
			r.IsActive = false
			m.rates[k] = r
			n++
		}
	}
	return n, nil
}

func (m memRates) ListActive(_ context.Context, destinationID uint) ([]models.Rate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Rate
	for _, r := range m.rates {
		if r.DestinationID == destinationID && r.IsActive {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type memGuests struct{ *memDB }

func (m memGuests) FindUserByEmail(_ context.Context, companyID uint, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.CompanyID == companyID && u.Email == email {
			return &u, nil
		}
	}
	return nil, errors.NotFound("User not found")
}

func (m memGuests) GetUser(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, errors.NotFound("User not found")
	}
	return &u, nil
}

func (m memGuests) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.CompanyID == u.CompanyID && other.Email == u.Email {
			return errors.Duplicate("create user: already exists")
		}
	}
	u.ID = m.id()
	m.users[u.ID] = *u
	return nil
}

func (m memGuests) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m memGuests) GetAddress(_ context.Context, id uint) (*models.UserAddress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[id]
	if !ok {
		return nil, errors.NotFound("Address not found")
	}
	return &a, nil
}

func (m memGuests) CreateAddress(_ context.Context, a *models.UserAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	m.addresses[a.ID] = *a
	return nil
}

func (m memGuests) GetPaymentMethod(_ context.Context, id uint) (*models.UserPaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pm, ok := m.paymentMethods[id]
	if !ok {
		return nil, errors.NotFound("Payment method not found")
	}
	return &pm, nil
}

func (m memGuests) CreatePaymentMethod(_ context.Context, pm *models.UserPaymentMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pm.ID = m.id()
	m.paymentMethods[pm.ID] = *pm
	return nil
}

func (m memGuests) UpdatePaymentMethod(_ context.Context, pm *models.UserPaymentMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentMethods[pm.ID] = *pm
	return nil
}

type memReservations struct{ *memDB }

func (m memReservations) Create(_ context.Context, res *models.Reservation) error {
	if err := m.failure("reservations.Create"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	res.ID = m.id()
	stored := *res
	stored.UpsellPackages = nil
	m.reservations[res.ID] = stored
	return nil
}

func (m memReservations) Update(_ context.Context, res *models.Reservation) error {
	if err := m.failure("reservations.Update"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[res.ID]; !ok {
		return errors.NotFound("Reservation not found")
	}
	stored := *res
	stored.UpsellPackages = nil
	m.reservations[res.ID] = stored
	return nil
}

func (m memReservations) load(res models.Reservation) *models.Reservation {
	res.UpsellPackages = append([]models.ReservationUpsellPackage(nil), m.links[res.ID]...)
	return &res
}

func (m memReservations) GetByID(_ context.Context, id uint) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[id]
	if !ok {
		return nil, errors.NotFound("Reservation not found")
	}
	return m.load(res), nil
}

func (m memReservations) GetByConfirmationID(_ context.Context, code string) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, res := range m.reservations {
		if res.ExternalConfirmationID == code {
			return m.load(res), nil
		}
	}
	return nil, errors.NotFound("Reservation not found")
}

func (m memReservations) ListByItinerary(_ context.Context, itineraryID string, includeCanceled bool) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reservation
	for _, res := range m.reservations {
		if res.ItineraryID != itineraryID || (!includeCanceled && res.IsCanceled()) {
			continue
		}
		out = append(out, *m.load(res))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memReservations) ReplacePackages(ctx context.Context, reservationID uint, links []models.ReservationUpsellPackage) error {
	m.mu.Lock()
	delete(m.links, reservationID)
	m.mu.Unlock()
	return m.CreatePackages(ctx, reservationID, links)
}

func (m memReservations) CreatePackages(_ context.Context, reservationID uint, links []models.ReservationUpsellPackage) error {
	if err := m.failure("reservations.CreatePackages"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range links {
		l.ID = m.id()
		l.ReservationID = reservationID
		m.links[reservationID] = append(m.links[reservationID], l)
	}
	return nil
}

type memPoints struct{ *memDB }

func (m memPoints) ListReceived(_ context.Context, userID uint, _ bool) ([]models.UserPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserPoint
	for _, p := range m.points {
		if p.UserID == userID && p.Status == constants.PointStatusReceived {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memPoints) SpentByBatch(_ context.Context, earnedIDs []uint) (map[uint]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[uint]bool{}
	for _, id := range earnedIDs {
		want[id] = true
	}
	out := map[uint]int64{}
	for _, a := range m.allocations {
		if want[a.UserPointEarnedID] {
			out[a.UserPointEarnedID] += a.Amount
		}
	}
	return out, nil
}

func (m memPoints) Get(_ context.Context, id uint) (*models.UserPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.points[id]
	if !ok {
		return nil, errors.NotFound("User point not found")
	}
	return &p, nil
}

func (m memPoints) Create(_ context.Context, p *models.UserPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.points[p.ID] = *p
	return nil
}

func (m memPoints) UpdateStatus(_ context.Context, id uint, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.points[id]
	if !ok {
		return errors.NotFound("User point not found")
	}
	p.Status = status
	m.points[id] = p
	return nil
}

func (m memPoints) CreateAllocations(_ context.Context, recs []models.UserPointAllocationRecord) error {
	if err := m.failure("points.CreateAllocations"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		r.ID = m.id()
		m.allocations = append(m.allocations, r)
	}
	return nil
}

func (m memPoints) ListAllocationsBySpent(_ context.Context, spentID uint) ([]models.UserPointAllocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserPointAllocationRecord
	for _, a := range m.allocations {
		if a.UserPointSpentID == spentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m memPoints) DeleteAllocationsBySpent(_ context.Context, spentID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.allocations[:0]
	for _, a := range m.allocations {
		if a.UserPointSpentID != spentID {
			kept = append(kept, a)
		}
	}
	m.allocations = kept
	return nil
}

// seed helpers

func (db *memDB) addCompany(c models.Company) models.Company {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.Status == 0 {
		c.Status = constants.StatusActive
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	db.companies[c.ID] = c
	return c
}

func (db *memDB) addDestination(d models.Destination) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.destinations[d.ID] = d
}

func (db *memDB) addAccommodation(a models.Accommodation) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.accommodations[a.ID] = a
}

func (db *memDB) addPackage(p models.UpsellPackage) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.packages[p.ID] = p
}

func (db *memDB) addUser(u models.User) models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.ID == 0 {
		u.ID = db.id()
	}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addAddress(a models.UserAddress) models.UserAddress {
	db.mu.Lock()
	defer db.mu.Unlock()
	a.ID = db.id()
	db.addresses[a.ID] = a
	return a
}

func (db *memDB) addPaymentMethod(pm models.UserPaymentMethod) models.UserPaymentMethod {
	db.mu.Lock()
	defer db.mu.Unlock()
	pm.ID = db.id()
	db.paymentMethods[pm.ID] = pm
	return pm
}

// addBatch stores a RECEIVED batch available since availableOn.
func (db *memDB) addBatch(userID uint, amount int64, availableOn time.Time, expireOn *time.Time) models.UserPoint {
	db.mu.Lock()
	defer db.mu.Unlock()
	p := models.UserPoint{
		ID:          db.id(),
		UserID:      userID,
		CompanyID:   1,
		PointAmount: amount,
		Status:      constants.PointStatusReceived,
		Reason:      constants.PointReasonAdjustment,
		AvailableOn: availableOn,
		ExpireOn:    expireOn,
	}
	db.points[p.ID] = p
	return p
}

func (db *memDB) countPoints(status string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, p := range db.points {
		if p.Status == status {
			n++
		}
	}
	return n
}

// vendor fakes

type fakeProvider[T any] struct {
	system T
	err    error
	key    string
}

func (p fakeProvider[T]) Get(_ context.Context, companyID uint) (vendors.Resolved[T], error) {
	if p.err != nil {
		return vendors.Resolved[T]{}, p.err
	}
	return vendors.Resolved[T]{
		System:         p.system,
		CompanyDetails: vendors.CompanyDetails{CompanyID: companyID, ServiceKey: p.key},
	}, nil
}

func unavailable[T any]() fakeProvider[T] {
	return fakeProvider[T]{err: errors.ServiceUnavailable("No service configured")}
}

type fakePMS struct {
	mu sync.Mutex

	priced    *dto.PricedStay
	verifyErr error
	month     map[int][]models.AccommodationAvailability
	monthErr  error
	rates     []models.Rate

	createErr    error
	failCreateOn int // 1-based call number that fails with createErr
	updateErr    error
	cancelErr    error

	verifyCalls int
	monthCalls  int
	created     []vendors.ReservationRequest
	updated     []vendors.ReservationRequest
	canceled    []vendors.CancelRequest
}

func (f *fakePMS) VerifyAvailability(_ context.Context, _ vendors.CompanyDetails, q vendors.AvailabilityQuery) (*dto.PricedStay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.priced == nil {
		return nil, nil
	}
	p := *f.priced
	p.NightlyRates = append([]models.NightlyRate(nil), f.priced.NightlyRates...)
	return &p, nil
}

func (f *fakePMS) CreateReservation(_ context.Context, _ vendors.CompanyDetails, req vendors.ReservationRequest) (*vendors.ReservationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.created) + 1
	if f.createErr != nil && (f.failCreateOn == 0 || f.failCreateOn == n) {
		f.created = append(f.created, req)
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &vendors.ReservationResult{
		ID:             fmt.Sprintf("ext-%d", n),
		ConfirmationID: fmt.Sprintf("CONF%d", n),
		MetaData:       map[string]interface{}{"call": n},
	}, nil
}

func (f *fakePMS) UpdateReservation(_ context.Context, _ vendors.CompanyDetails, req vendors.ReservationRequest) (*vendors.ReservationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, req)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &vendors.ReservationResult{ID: req.ExternalReservationID, ConfirmationID: req.ExternalConfirmationID}, nil
}

func (f *fakePMS) CancelReservation(_ context.Context, _ vendors.CompanyDetails, req vendors.CancelRequest) (*vendors.CancelResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, req)
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &vendors.CancelResult{CancellationID: "X-" + req.ExternalConfirmationID}, nil
}

func (f *fakePMS) GetAvailabilityForBlock(_ context.Context, _ vendors.CompanyDetails, _ models.Destination, _ []models.Accommodation, _ time.Month, _, _ int) (map[int][]models.AccommodationAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthCalls++
	return f.month, f.monthErr
}

func (f *fakePMS) GetAvailableRateCodes(_ context.Context, _ vendors.CompanyDetails, _ models.Destination) ([]models.Rate, error) {
	return f.rates, nil
}

type fakeVault struct {
	mu sync.Mutex

	vaultErr  error
	invalid   bool
	validErr  error
	appendErr error

	vaulted  int
	appended []uint
}

func (f *fakeVault) VaultToken(_ context.Context, _ vendors.CompanyDetails, req vendors.VaultRequest) (*vendors.VaultedCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.vaultErr != nil {
		return nil, f.vaultErr
	}
	f.vaulted++
	return &vendors.VaultedCard{
		Token:           "vault_" + req.Token,
		Last4:           "4242",
		ExpirationMonth: 12,
		ExpirationYear:  2030,
		CardNumber:      "************4242",
		CardBrand:       "visa",
	}, nil
}

func (f *fakeVault) AppendPaymentMethod(_ context.Context, _ vendors.CompanyDetails, res *models.Reservation, _ *models.UserPaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, res.ID)
	return nil
}

func (f *fakeVault) IsPaymentMethodValid(_ context.Context, _ vendors.CompanyDetails, _ *models.UserPaymentMethod) (bool, error) {
	return !f.invalid, f.validErr
}

type fakeLoyalty struct {
	mu          sync.Mutex
	registerErr error
	registered  int
	deleted     int
}

func (f *fakeLoyalty) Register(_ context.Context, _ vendors.CompanyDetails, pm *models.UserPaymentMethod, _ string) (*vendors.LoyaltyCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered++
	return &vendors.LoyaltyCard{ID: fmt.Sprintf("card-%d", pm.ID), Status: "ACTIVE"}, nil
}

func (f *fakeLoyalty) Delete(_ context.Context, _ vendors.CompanyDetails, _ *models.UserPaymentMethod) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted++
	return true, nil
}

var nopLogger logger.Logger = logger.Nop{}

func jsonPrice(pd models.PriceDetail) datatypes.JSONType[models.PriceDetail] {
	return datatypes.NewJSONType(pd)
}
