package models

import "time"

// UserPoint is either an earned batch (RECEIVED, PENDING, REVOKED) or a spend
// event (SPENT, REFUNDED). PointAmount is always positive.
type UserPoint struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"index;not null" json:"userId"`
	CompanyID     uint       `gorm:"index" json:"companyId"`
	PointAmount   int64      `gorm:"not null" json:"pointAmount"`
	Status        string     `gorm:"type:varchar(16);index;not null" json:"status"`
	Reason        string     `gorm:"type:varchar(32)" json:"reason"`
	Description   string     `json:"description,omitempty"`
	AvailableOn   time.Time  `json:"availableOn"`
	ExpireOn      *time.Time `json:"expireOn,omitempty"`
	ReservationID *uint      `gorm:"index" json:"reservationId,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Spendable reports whether an earned batch may fund a spend at now.
func (p *UserPoint) Spendable(now time.Time) bool {
	if p.AvailableOn.After(now) {
		return false
	}
	return p.ExpireOn == nil || p.ExpireOn.After(now)
}

// UserPointAllocationRecord moves Amount points from one earned batch to one
// spend event.
type UserPointAllocationRecord struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserPointEarnedID uint      `gorm:"index;not null" json:"userPointEarnedId"`
	UserPointSpentID  uint      `gorm:"index;not null" json:"userPointSpentId"`
	Amount            int64     `gorm:"not null" json:"amount"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
