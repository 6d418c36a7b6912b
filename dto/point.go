package dto

import "time"

// PointBatchBreakdown is an earned batch with what is left of it.
type PointBatchBreakdown struct {
	UserPointID     uint       `json:"userPointId"`
	PointAmount     int64      `json:"pointAmount"`
	SpentAmount     int64      `json:"spentAmount"`
	AvailablePoints int64      `json:"availablePoints"`
	Status          string     `json:"status"`
	Reason          string     `json:"reason"`
	AvailableOn     time.Time  `json:"availableOn"`
	ExpireOn        *time.Time `json:"expireOn,omitempty"`
}

type SpendPointsInput struct {
	UserID        uint
	CompanyID     uint
	Amount        int64
	ReservationID *uint
	Reason        string
	Description   string
}

type AwardPointsInput struct {
	UserID        uint
	CompanyID     uint
	Amount        int64
	ReservationID *uint
	Reason        string
	Description   string
}

type PointBalanceResponse struct {
	UserID    uint                  `json:"userId"`
	Available int64                 `json:"available"`
	Batches   []PointBatchBreakdown `json:"batches"`
}
