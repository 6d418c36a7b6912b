package models

import (
	"time"

	"github.com/lib/pq"
)

// Accommodation is a bookable room type at a destination.
type Accommodation struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	DestinationID    uint           `json:"destinationId" gorm:"index;not null"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	ExternalSystemID string         `json:"externalSystemId" gorm:"index"`
	MaxOccupancy     int            `json:"maxOccupancy" gorm:"default:2"`
	AllowedRateCodes pq.StringArray `json:"allowedRateCodes" gorm:"type:text"` // postgres array literal; empty = every synced rate
	Status           int            `json:"status" gorm:"default:1"`
	CreateAt         time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdateAt         time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

// AllowsRate reports whether code may be booked for this accommodation.
func (a *Accommodation) AllowsRate(code string) bool {
	if len(a.AllowedRateCodes) == 0 {
		return true
	}
	for _, c := range a.AllowedRateCodes {
		if c == code {
			return true
		}
	}
	return false
}
