package services

import (
	"context"
	stderrors "errors"
	"fmt"

	"loyaltystay/dto"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/services/logger"
	"loyaltystay/vendors"
)

// PaymentMethodService vaults cards and runs the card side effects of a
// booking.
type PaymentMethodService struct {
	guests  GuestStore
	vaults  vendors.Provider[vendors.PaymentVault]
	loyalty vendors.Provider[vendors.OffsiteLoyalty]
	logger  logger.Logger
}

type PaymentMethodServiceOptions struct {
	Guests  GuestStore
	Vaults  vendors.Provider[vendors.PaymentVault]
	Loyalty vendors.Provider[vendors.OffsiteLoyalty]
	Logger  logger.Logger
}

func NewPaymentMethodService(opts PaymentMethodServiceOptions) *PaymentMethodService {
	return &PaymentMethodService{
		guests:  opts.Guests,
		vaults:  opts.Vaults,
		loyalty: opts.Loyalty,
		logger:  opts.Logger,
	}
}

// Resolve returns the payment method a booking is charged to, or nil when
// the request names none. A new card is vaulted first; a failure there
// fails the booking.
func (s *PaymentMethodService) Resolve(ctx context.Context, companyID uint, user *models.User, existingID *uint, card *dto.PaymentMethodRequest) (*models.UserPaymentMethod, error) {
	if existingID != nil {
		return s.existing(ctx, companyID, user, *existingID)
	}
	if card == nil {
		return nil, nil
	}

	vault, err := s.vaults.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	vaulted, err := vault.System.VaultToken(ctx, vault.CompanyDetails, vendors.VaultRequest{
		UserID:     user.ID,
		Token:      card.Token,
		NameOnCard: card.NameOnCard,
	})
	if err != nil {
		if stderrors.Is(err, vendors.ErrPaymentDeclined) {
			return nil, errors.DeclinedPayment("Card was declined", err)
		}
		return nil, errors.Wrap(err, errors.ErrCodeIntegration, "Failed to vault payment method")
	}

	provider := vaulted.SystemProvider
	if provider == "" {
		provider = vault.CompanyDetails.ServiceKey
	}
	pm := &models.UserPaymentMethod{
		UserID:          user.ID,
		Token:           vaulted.Token,
		Last4:           vaulted.Last4,
		CardNumber:      vaulted.CardNumber,
		CardBrand:       vaulted.CardBrand,
		NameOnCard:      card.NameOnCard,
		ExpirationMonth: vaulted.ExpirationMonth,
		ExpirationYear:  vaulted.ExpirationYear,
		SystemProvider:  provider,
		IsActive:        true,
	}
	if err := s.guests.CreatePaymentMethod(ctx, pm); err != nil {
		return nil, err
	}
	return pm, nil
}

func (s *PaymentMethodService) existing(ctx context.Context, companyID uint, user *models.User, id uint) (*models.UserPaymentMethod, error) {
	pm, err := s.guests.GetPaymentMethod(ctx, id)
	if err != nil {
		return nil, err
	}
	if pm.UserID != user.ID || !pm.IsActive {
		return nil, errors.NotFound("Payment method not found")
	}

	vault, err := s.vaults.Get(ctx, companyID)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeServiceUnavailable) {
			s.logger.Info("no payment vault for company %d, skipping card check", companyID)
			return pm, nil
		}
		return nil, err
	}
	ok, err := vault.System.IsPaymentMethodValid(ctx, vault.CompanyDetails, pm)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIntegration, "Failed to check payment method")
	}
	if !ok {
		return nil, errors.DeclinedPayment("Payment method is no longer valid", nil)
	}
	return pm, nil
}

// AppendToReservation attaches the card to the booking at the vault. It
// never fails the booking.
func (s *PaymentMethodService) AppendToReservation(ctx context.Context, companyID uint, res *models.Reservation, pm *models.UserPaymentMethod) {
	vault, err := s.vaults.Get(ctx, companyID)
	if err != nil {
		s.logSideEffect(err, "append payment method", res.ID)
		return
	}
	if err := vault.System.AppendPaymentMethod(ctx, vault.CompanyDetails, res, pm); err != nil {
		s.logSideEffect(err, "append payment method", res.ID)
	}
}

// EnrollOffsiteLoyalty registers the card with the company's card-linked
// loyalty program once. It never fails the booking.
func (s *PaymentMethodService) EnrollOffsiteLoyalty(ctx context.Context, companyID uint, res *models.Reservation, pm *models.UserPaymentMethod) {
	if pm.OffsiteLoyaltyCardID != "" {
		return
	}
	loyalty, err := s.loyalty.Get(ctx, companyID)
	if err != nil {
		s.logSideEffect(err, "offsite loyalty enrollment", res.ID)
		return
	}
	card, err := loyalty.System.Register(ctx, loyalty.CompanyDetails, pm, pm.SystemProvider)
	if err != nil {
		s.logSideEffect(err, "offsite loyalty enrollment", res.ID)
		return
	}
	if card == nil || card.ID == "" {
		return
	}
	pm.OffsiteLoyaltyCardID = card.ID
	if err := s.guests.UpdatePaymentMethod(ctx, pm); err != nil {
		s.logSideEffect(err, "offsite loyalty enrollment", res.ID)
	}
}

func (s *PaymentMethodService) logSideEffect(err error, step string, reservationID uint) {
	if errors.IsCode(err, errors.ErrCodeServiceUnavailable) {
		s.logger.Info("%s skipped for reservation %d: %v", step, reservationID, err)
		return
	}
	s.logger.Warn("%s failed for reservation %d: %v", step, reservationID, err)
}

// DeletePaymentMethod unlinks the card from offsite loyalty, best effort, and
// deactivates it.
func (s *PaymentMethodService) DeletePaymentMethod(ctx context.Context, companyID, userID, id uint) error {
	pm, err := s.guests.GetPaymentMethod(ctx, id)
	if err != nil {
		return err
	}
	if pm.UserID != userID || !pm.IsActive {
		return errors.NotFound("Payment method not found")
	}

	if pm.OffsiteLoyaltyCardID != "" {
		if loyalty, err := s.loyalty.Get(ctx, companyID); err != nil {
			s.logger.Info("offsite loyalty unlink skipped for payment method %d: %v", pm.ID, err)
		} else if ok, err := loyalty.System.Delete(ctx, loyalty.CompanyDetails, pm); err != nil || !ok {
			s.logger.Warn("offsite loyalty unlink failed for payment method %d: %v", pm.ID, err)
		}
	}

	pm.IsActive = false
	pm.OffsiteLoyaltyCardID = ""
	if err := s.guests.UpdatePaymentMethod(ctx, pm); err != nil {
		return fmt.Errorf("deactivate payment method %d: %w", pm.ID, err)
	}
	return nil
}
