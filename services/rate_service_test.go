package services

import (
	"context"
	"testing"

	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/vendors"
)

func TestSyncRates(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	db.addDestination(models.Destination{ID: 10, CompanyID: 1})
	pms := &fakePMS{rates: []models.Rate{{Code: "BAR", Name: "Best available"}, {Code: "PKG", Name: "Package"}, {Code: ""}}}
	svc := NewRateService(RateServiceOptions{
		Tx:           &memTx{db: db},
		Rates:        memRates{db},
		Catalog:      memCatalog{db},
		Reservations: fakeProvider[vendors.ReservationSystem]{system: pms},
		Clock:        testClock(),
		Logger:       nopLogger,
	})
	if err := (memRates{db}).Upsert(ctx, &models.Rate{DestinationID: 10, Code: "OLD", IsActive: true}); err != nil {
		t.Fatal(err)
	}

	active, err := svc.SyncRates(ctx, 1, 10)
	if err != nil {
		t.Fatalf("SyncRates: %v", err)
	}
	if len(active) != 2 || active[0].Code != "BAR" || active[1].Code != "PKG" {
		t.Fatalf("active = %+v", active)
	}
	if active[0].SyncedAt == nil || !active[0].SyncedAt.Equal(testNow) {
		t.Fatalf("synced at = %v", active[0].SyncedAt)
	}
	barID := active[0].ID

	pms.rates = pms.rates[:1]
	active, err = svc.SyncRates(ctx, 1, 10)
	if err != nil {
		t.Fatalf("SyncRates again: %v", err)
	}
	if len(active) != 1 || active[0].ID != barID {
		t.Fatalf("second sync = %+v, want BAR kept with id %d", active, barID)
	}

	if _, err := svc.SyncRates(ctx, 2, 10); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("foreign destination err = %v", err)
	}
}
