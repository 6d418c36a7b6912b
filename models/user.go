package models

import "time"

type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CompanyID       uint      `gorm:"uniqueIndex:idx_company_email;not null" json:"companyId"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex:idx_company_email;not null" json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	PhoneNumber     string    `gorm:"type:varchar(32)" json:"phoneNumber"`
	Password        string    `json:"-"`
	PermissionLogin int       `gorm:"default:0" json:"permissionLogin"` // 0 guest record, 1 full account
	Role            int       `gorm:"default:0" json:"role"`
	Status          int       `gorm:"default:1" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type UserAddress struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"userId"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `gorm:"type:varchar(2)" json:"country"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// UserPaymentMethod is a vaulted card. Token is the vault's reference, never
// the card number.
type UserPaymentMethod struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"index;not null" json:"userId"`
	Token                string    `gorm:"not null" json:"-"`
	Last4                string    `gorm:"type:varchar(4)" json:"last4"`
	CardNumber           string    `json:"cardNumber"` // masked
	CardBrand            string    `json:"cardBrand"`
	NameOnCard           string    `json:"nameOnCard"`
	ExpirationMonth      int       `json:"expirationMonth"`
	ExpirationYear       int       `json:"expirationYear"`
	SystemProvider       string    `json:"systemProvider"`
	OffsiteLoyaltyCardID string    `json:"offsiteLoyaltyCardId,omitempty"`
	IsActive             bool      `gorm:"default:true" json:"isActive"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
