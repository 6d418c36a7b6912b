package vendors

import (
	"context"
	"fmt"

	"loyaltystay/constants"
	"loyaltystay/errors"
	"loyaltystay/models"

	"github.com/goccy/go-json"
)

// ServiceLookup finds the active vendor configuration of a company.
type ServiceLookup interface {
	FindActiveService(ctx context.Context, companyID uint, serviceType string) (*models.CompanyService, error)
}

// Resolved is a vendor system plus the company details to call it with.
type Resolved[T any] struct {
	System         T
	CompanyDetails CompanyDetails
}

// Provider resolves the vendor of one service type for a company.
type Provider[T any] interface {
	Get(ctx context.Context, companyID uint) (Resolved[T], error)
}

// Registry dispatches on the configured service key.
type Registry[T any] struct {
	serviceType string
	lookup      ServiceLookup
	systems     map[string]T
}

func NewRegistry[T any](serviceType string, lookup ServiceLookup, systems map[string]T) *Registry[T] {
	if systems == nil {
		systems = map[string]T{}
	}
	return &Registry[T]{serviceType: serviceType, lookup: lookup, systems: systems}
}

type (
	ReservationSystemProvider = Registry[ReservationSystem]
	PaymentVaultProvider      = Registry[PaymentVault]
	OffsiteLoyaltyProvider    = Registry[OffsiteLoyalty]
)

func NewReservationSystemProvider(lookup ServiceLookup, systems map[string]ReservationSystem) *ReservationSystemProvider {
	return NewRegistry(constants.ServiceTypeReservation, lookup, systems)
}

func NewPaymentVaultProvider(lookup ServiceLookup, systems map[string]PaymentVault) *PaymentVaultProvider {
	return NewRegistry(constants.ServiceTypePayment, lookup, systems)
}

func NewOffsiteLoyaltyProvider(lookup ServiceLookup, systems map[string]OffsiteLoyalty) *OffsiteLoyaltyProvider {
	return NewRegistry(constants.ServiceTypeOffsiteLoyalty, lookup, systems)
}

// Get returns the company's configured system, or SERVICE_UNAVAILABLE when
// nothing usable is configured.
func (r *Registry[T]) Get(ctx context.Context, companyID uint) (Resolved[T], error) {
	var zero Resolved[T]

	svc, err := r.lookup.FindActiveService(ctx, companyID, r.serviceType)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return zero, errors.ServiceUnavailable(fmt.Sprintf("No %s service configured for company %d", r.serviceType, companyID))
		}
		return zero, err
	}
	if svc == nil || !svc.IsActive {
		return zero, errors.ServiceUnavailable(fmt.Sprintf("No %s service configured for company %d", r.serviceType, companyID))
	}

	system, ok := r.systems[svc.ServiceKey]
	if !ok {
		return zero, errors.ServiceUnavailable(fmt.Sprintf("%s service %q is not supported", r.serviceType, svc.ServiceKey))
	}

	creds := map[string]string{}
	if len(svc.Credentials) > 0 {
		if err := json.Unmarshal(svc.Credentials, &creds); err != nil {
			return zero, errors.NewAppError(errors.ErrCodeServiceUnavailable, fmt.Sprintf("%s service credentials are unreadable", r.serviceType), err)
		}
	}

	return Resolved[T]{
		System: system,
		CompanyDetails: CompanyDetails{
			CompanyID:   companyID,
			ServiceType: svc.ServiceType,
			ServiceKey:  svc.ServiceKey,
			ServiceName: svc.ServiceName,
			Credentials: creds,
		},
	}, nil
}
