package models

import "time"

// Rate is a vendor rate code available at a destination.
type Rate struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	CompanyID     uint       `json:"companyId" gorm:"index"`
	DestinationID uint       `json:"destinationId" gorm:"uniqueIndex:idx_destination_rate_code;not null"`
	Code          string     `json:"code" gorm:"type:varchar(64);uniqueIndex:idx_destination_rate_code;not null"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	IsActive      bool       `json:"isActive" gorm:"default:true"`
	SyncedAt      *time.Time `json:"syncedAt"`
	CreateAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdateAt      time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}
