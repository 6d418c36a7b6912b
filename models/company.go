package models

import (
	"time"

	"gorm.io/datatypes"
)

// Company is a loyalty program operator. Point conversion rates live here.
type Company struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	Name                string    `json:"name" gorm:"not null"`
	Currency            string    `json:"currency" gorm:"type:varchar(3);default:USD"`
	PointsPerDollar     float64   `json:"pointsPerDollar" gorm:"default:100"`    // redemption: points needed per dollar
	EarnPointsPerDollar float64   `json:"earnPointsPerDollar" gorm:"default:10"` // earning: points granted per dollar paid
	PointsExpireMonths  int       `json:"pointsExpireMonths"`                    // 0 = never
	PointsHoldDays      int       `json:"pointsHoldDays"`
	Status              int       `json:"status" gorm:"default:1"`
	CreatedAt           time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt           time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// CompanyService records which vendor integration a company uses for one
// service type.
type CompanyService struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CompanyID   uint           `json:"companyId" gorm:"uniqueIndex:idx_company_service_type;not null"`
	ServiceType string         `json:"serviceType" gorm:"type:varchar(32);uniqueIndex:idx_company_service_type;not null"`
	ServiceKey  string         `json:"serviceKey" gorm:"type:varchar(64);not null"`
	ServiceName string         `json:"serviceName"`
	Credentials datatypes.JSON `json:"-"`
	IsActive    bool           `json:"isActive" gorm:"default:true"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}
