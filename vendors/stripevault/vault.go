// Package stripevault keeps guest cards as Stripe payment methods. The card
// token a guest submits is a Stripe payment method id.
package stripevault

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"loyaltystay/clock"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/vendors"

	"github.com/stripe/stripe-go/v82"
)

const (
	ServiceKey = "stripe"

	credentialSecretKey = "secret_key"
)

type Vault struct {
	backends *stripe.Backends
	clock    clock.Clock
}

// New returns a vault talking to api.stripe.com. Each company brings its own
// secret key in its credentials.
func New(c clock.Clock) *Vault {
	return NewWithBackends(nil, c)
}

// NewWithBackends points the vault at custom backends.
func NewWithBackends(b *stripe.Backends, c clock.Clock) *Vault {
	if c == nil {
		c = clock.NewSystem()
	}
	return &Vault{backends: b, clock: c}
}

func (v *Vault) client(cd vendors.CompanyDetails) (*stripe.Client, error) {
	key := cd.Credentials[credentialSecretKey]
	if key == "" {
		return nil, errors.ServiceUnavailable(fmt.Sprintf("Stripe is not configured for company %d", cd.CompanyID))
	}
	if v.backends != nil {
		return stripe.NewClient(key, stripe.WithBackends(v.backends)), nil
	}
	return stripe.NewClient(key), nil
}

func (v *Vault) VaultToken(ctx context.Context, cd vendors.CompanyDetails, req vendors.VaultRequest) (*vendors.VaultedCard, error) {
	sc, err := v.client(cd)
	if err != nil {
		return nil, err
	}
	pm, err := sc.V1PaymentMethods.Retrieve(ctx, req.Token, nil)
	if err != nil {
		return nil, stripeError(err)
	}
	if pm.Card == nil {
		return nil, fmt.Errorf("%w: payment method %s is not a card", vendors.ErrPaymentDeclined, pm.ID)
	}
	card := &vendors.VaultedCard{
		Token:           pm.ID,
		Last4:           pm.Card.Last4,
		ExpirationMonth: int(pm.Card.ExpMonth),
		ExpirationYear:  int(pm.Card.ExpYear),
		CardNumber:      "**** **** **** " + pm.Card.Last4,
		CardBrand:       string(pm.Card.Brand),
		SystemProvider:  ServiceKey,
	}
	if v.expired(card.ExpirationMonth, card.ExpirationYear) {
		return nil, fmt.Errorf("%w: card expired %02d/%d", vendors.ErrPaymentDeclined, card.ExpirationMonth, card.ExpirationYear)
	}
	return card, nil
}

// AppendPaymentMethod tags the payment method with the reservation it paid
// for.
func (v *Vault) AppendPaymentMethod(ctx context.Context, cd vendors.CompanyDetails, reservation *models.Reservation, paymentMethod *models.UserPaymentMethod) error {
	sc, err := v.client(cd)
	if err != nil {
		return err
	}
	params := &stripe.PaymentMethodUpdateParams{}
	params.AddMetadata("reservation_id", strconv.FormatUint(uint64(reservation.ID), 10))
	params.AddMetadata("itinerary_id", reservation.ItineraryID)
	params.AddMetadata("confirmation_id", reservation.ExternalConfirmationID)
	if _, err := sc.V1PaymentMethods.Update(ctx, paymentMethod.Token, params); err != nil {
		return stripeError(err)
	}
	return nil
}

// IsPaymentMethodValid reports whether the card still exists and has not
// expired.
func (v *Vault) IsPaymentMethodValid(ctx context.Context, cd vendors.CompanyDetails, paymentMethod *models.UserPaymentMethod) (bool, error) {
	sc, err := v.client(cd)
	if err != nil {
		return false, err
	}
	pm, err := sc.V1PaymentMethods.Retrieve(ctx, paymentMethod.Token, nil)
	if err != nil {
		var se *stripe.Error
		if stderrors.As(err, &se) && se.Code == stripe.ErrorCodeResourceMissing {
			return false, nil
		}
		return false, stripeError(err)
	}
	if pm.Card == nil {
		return false, nil
	}
	return !v.expired(int(pm.Card.ExpMonth), int(pm.Card.ExpYear)), nil
}

// expired treats a card as usable through the last day of its expiry month.
func (v *Vault) expired(month, year int) bool {
	now := v.clock.Now()
	if year != now.Year() {
		return year < now.Year()
	}
	return month < int(now.Month())
}

func stripeError(err error) error {
	var se *stripe.Error
	if stderrors.As(err, &se) {
		if se.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("%w: %s", vendors.ErrPaymentDeclined, se.Msg)
		}
		return errors.Integration(fmt.Sprintf("Stripe request failed: %s", se.Msg), err)
	}
	return errors.Integration("Stripe request failed", err)
}

var _ vendors.PaymentVault = (*Vault)(nil)
