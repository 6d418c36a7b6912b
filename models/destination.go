package models

import "time"

type Destination struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	CompanyID        uint             `json:"companyId" gorm:"index;not null"`
	Name             string           `json:"name"`
	ExternalSystemID string           `json:"externalSystemId"`
	TimeZone         string           `json:"timeZone" gorm:"default:UTC"`
	Status           int              `json:"status" gorm:"default:1"`
	Fees             []DestinationFee `json:"fees" gorm:"foreignKey:DestinationID"`
	CreatedAt        time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
}

// DestinationFee is a tax or resort fee. Amount is basis points for PERCENT,
// cents otherwise.
type DestinationFee struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	DestinationID uint   `json:"destinationId" gorm:"index;not null"`
	Name          string `json:"name"`
	Kind          string `json:"kind" gorm:"type:varchar(16)"`
	Amount        int64  `json:"amount"`
}
