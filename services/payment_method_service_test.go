package services

import (
	"context"
	stderrors "errors"
	"testing"

	"loyaltystay/dto"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/vendors"
)

type paymentFixture struct {
	svc     *PaymentMethodService
	db      *memDB
	vault   *fakeVault
	loyalty *fakeLoyalty
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	db := newMemDB()
	vault := &fakeVault{}
	loyalty := &fakeLoyalty{}
	svc := NewPaymentMethodService(PaymentMethodServiceOptions{
		Guests:  memGuests{db},
		Vaults:  fakeProvider[vendors.PaymentVault]{system: vault, key: "stripe"},
		Loyalty: fakeProvider[vendors.OffsiteLoyalty]{system: loyalty, key: "cardlinx"},
		Logger:  nopLogger,
	})
	return &paymentFixture{svc: svc, db: db, vault: vault, loyalty: loyalty}
}

func TestResolvePaymentMethod(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: 7}

	t.Run("none requested", func(t *testing.T) {
		f := newPaymentFixture(t)
		pm, err := f.svc.Resolve(ctx, 1, user, nil, nil)
		if err != nil || pm != nil {
			t.Fatalf("Resolve = %+v, %v", pm, err)
		}
	})

	t.Run("new card is vaulted", func(t *testing.T) {
		f := newPaymentFixture(t)
		pm, err := f.svc.Resolve(ctx, 1, user, nil, &dto.PaymentMethodRequest{Token: "pm_123", NameOnCard: "Ana"})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if pm.ID == 0 || pm.Token != "vault_pm_123" || pm.Last4 != "4242" || pm.SystemProvider != "stripe" || !pm.IsActive {
			t.Fatalf("vaulted = %+v", pm)
		}
	})

	t.Run("declined card", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.vault.vaultErr = vendors.ErrPaymentDeclined
		_, err := f.svc.Resolve(ctx, 1, user, nil, &dto.PaymentMethodRequest{Token: "pm_bad"})
		if !errors.IsCode(err, errors.ErrCodeDeclinedPayment) {
			t.Fatalf("err = %v, want DECLINED_PAYMENT", err)
		}
	})

	t.Run("vault outage", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.vault.vaultErr = stderrors.New("503 from vault")
		_, err := f.svc.Resolve(ctx, 1, user, nil, &dto.PaymentMethodRequest{Token: "pm_1"})
		if !errors.IsCode(err, errors.ErrCodeIntegration) {
			t.Fatalf("err = %v, want INTEGRATION_ERROR", err)
		}
	})

	t.Run("existing card must be valid", func(t *testing.T) {
		f := newPaymentFixture(t)
		stored := &models.UserPaymentMethod{UserID: 7, Token: "tok", IsActive: true}
		memGuests{f.db}.CreatePaymentMethod(ctx, stored)

		pm, err := f.svc.Resolve(ctx, 1, user, &stored.ID, nil)
		if err != nil || pm.ID != stored.ID {
			t.Fatalf("Resolve = %+v, %v", pm, err)
		}
		f.vault.invalid = true
		if _, err := f.svc.Resolve(ctx, 1, user, &stored.ID, nil); !errors.IsCode(err, errors.ErrCodeDeclinedPayment) {
			t.Fatalf("invalid card err = %v", err)
		}
		if _, err := f.svc.Resolve(ctx, 1, &models.User{ID: 8}, &stored.ID, nil); !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Fatalf("foreign card err = %v", err)
		}
	})

	t.Run("existing card without vault", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.svc.vaults = unavailable[vendors.PaymentVault]()
		stored := &models.UserPaymentMethod{UserID: 7, Token: "tok", IsActive: true}
		memGuests{f.db}.CreatePaymentMethod(ctx, stored)
		if _, err := f.svc.Resolve(ctx, 1, user, &stored.ID, nil); err != nil {
			t.Fatalf("Resolve without vault: %v", err)
		}
	})
}

func TestPaymentSideEffectsNeverFail(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	pm := &models.UserPaymentMethod{UserID: 7, Token: "tok", IsActive: true, SystemProvider: "stripe"}
	memGuests{f.db}.CreatePaymentMethod(ctx, pm)
	res := &models.Reservation{ID: 99}

	f.svc.AppendToReservation(ctx, 1, res, pm)
	f.svc.EnrollOffsiteLoyalty(ctx, 1, res, pm)
	if len(f.vault.appended) != 1 || f.loyalty.registered != 1 {
		t.Fatalf("appended %v, registered %d", f.vault.appended, f.loyalty.registered)
	}
	stored, _ := memGuests{f.db}.GetPaymentMethod(ctx, pm.ID)
	if stored.OffsiteLoyaltyCardID == "" {
		t.Fatalf("loyalty card id not stored")
	}

	// already enrolled
	f.svc.EnrollOffsiteLoyalty(ctx, 1, res, stored)
	if f.loyalty.registered != 1 {
		t.Fatalf("enrolled twice")
	}

	f.vault.appendErr = stderrors.New("boom")
	f.loyalty.registerErr = stderrors.New("boom")
	f.svc.AppendToReservation(ctx, 1, res, pm)
	f.svc.loyalty = unavailable[vendors.OffsiteLoyalty]()
	f.svc.EnrollOffsiteLoyalty(ctx, 1, res, &models.UserPaymentMethod{ID: 3})
}

func TestDeletePaymentMethod(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	pm := &models.UserPaymentMethod{UserID: 7, Token: "tok", IsActive: true, OffsiteLoyaltyCardID: "card-1"}
	memGuests{f.db}.CreatePaymentMethod(ctx, pm)

	if err := f.svc.DeletePaymentMethod(ctx, 1, 8, pm.ID); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("foreign delete err = %v", err)
	}
	if err := f.svc.DeletePaymentMethod(ctx, 1, 7, pm.ID); err != nil {
		t.Fatalf("DeletePaymentMethod: %v", err)
	}
	stored, _ := memGuests{f.db}.GetPaymentMethod(ctx, pm.ID)
	if stored.IsActive || stored.OffsiteLoyaltyCardID != "" || f.loyalty.deleted != 1 {
		t.Fatalf("after delete = %+v, unlinked %d", stored, f.loyalty.deleted)
	}
	if err := f.svc.DeletePaymentMethod(ctx, 1, 7, pm.ID); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}
