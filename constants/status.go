package constants

// Roles carried in the auth token
const (
	RoleGuest  = 0
	RoleMember = 1
	RoleAdmin  = 2
)

// User.PermissionLogin
const (
	PermissionLoginGuest   = 0
	PermissionLoginAccount = 1
)

// Record status
const (
	StatusInactive = 0
	StatusActive   = 1
)

// UserPoint.Status
const (
	PointStatusPending  = "PENDING"
	PointStatusReceived = "RECEIVED"
	PointStatusSpent    = "SPENT"
	PointStatusRefunded = "REFUNDED"
	PointStatusRevoked  = "REVOKED"
)

// UserPoint.Reason
const (
	PointReasonStayCompleted = "STAY_COMPLETED"
	PointReasonReservation   = "RESERVATION_REDEMPTION"
	PointReasonAdjustment    = "ADJUSTMENT"
)

// CompanyService.ServiceType
const (
	ServiceTypeReservation    = "RESERVATION"
	ServiceTypePayment        = "PAYMENT"
	ServiceTypeOffsiteLoyalty = "OFFSITE_LOYALTY"
)

// DestinationFee.Kind
const (
	FeeKindPercent  = "PERCENT"
	FeeKindPerNight = "PER_NIGHT"
	FeeKindPerStay  = "PER_STAY"
)

// UpsellPackage.PricingType
const (
	PricingPerStay  = "PER_STAY"
	PricingPerNight = "PER_NIGHT"
)

// Where a priced stay came from
const (
	PriceSourceCache  = "cache"
	PriceSourceVendor = "vendor"
)

const DateLayout = "2006-01-02"
