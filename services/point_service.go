package services

import (
	"context"
	"fmt"

	"loyaltystay/clock"
	"loyaltystay/constants"
	"loyaltystay/dto"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/services/logger"
)

// PointService is the point allocation ledger. Spends draw from earned
// batches oldest first and record one allocation per batch touched.
type PointService struct {
	tx        TxRunner
	points    PointStore
	companies CompanyStore
	clock     clock.Clock
	logger    logger.Logger
}

type PointServiceOptions struct {
	Tx        TxRunner
	Points    PointStore
	Companies CompanyStore
	Clock     clock.Clock
	Logger    logger.Logger
}

func NewPointService(opts PointServiceOptions) *PointService {
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem()
	}
	return &PointService{
		tx:        opts.Tx,
		points:    opts.Points,
		companies: opts.Companies,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}
}

func (s *PointService) breakdown(ctx context.Context, batches []models.UserPoint) ([]dto.PointBatchBreakdown, error) {
	ids := make([]uint, len(batches))
	for i, b := range batches {
		ids[i] = b.ID
	}
	spent, err := s.points.SpentByBatch(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PointBatchBreakdown, 0, len(batches))
	for _, b := range batches {
		used := spent[b.ID]
		avail := b.PointAmount - used
		if avail < 0 {
			avail = 0
		}
		out = append(out, dto.PointBatchBreakdown{
			UserPointID:     b.ID,
			PointAmount:     b.PointAmount,
			SpentAmount:     used,
			AvailablePoints: avail,
			Status:          b.Status,
			Reason:          b.Reason,
			AvailableOn:     b.AvailableOn,
			ExpireOn:        b.ExpireOn,
		})
	}
	return out, nil
}

// GetAvailablePointBreakdownByUserID lists every RECEIVED batch of the user
// oldest first with what is left of it. With minAvailability set only
// batches holding more than that many points are returned.
func (s *PointService) GetAvailablePointBreakdownByUserID(ctx context.Context, userID uint, minAvailability *int64) ([]dto.PointBatchBreakdown, error) {
	batches, err := s.points.ListReceived(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	all, err := s.breakdown(ctx, batches)
	if err != nil {
		return nil, err
	}
	if minAvailability == nil {
		return all, nil
	}
	filtered := all[:0]
	for _, b := range all {
		if b.AvailablePoints > *minAvailability {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// GetPointBalance is the spendable balance right now.
func (s *PointService) GetPointBalance(ctx context.Context, userID uint) (int64, error) {
	batches, err := s.points.ListReceived(ctx, userID, false)
	if err != nil {
		return 0, err
	}
	bd, err := s.breakdown(ctx, batches)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, b := range spendable(bd, s.clock) {
		total += b.AvailablePoints
	}
	return total, nil
}

func spendable(bd []dto.PointBatchBreakdown, c clock.Clock) []dto.PointBatchBreakdown {
	now := c.Now()
	out := make([]dto.PointBatchBreakdown, 0, len(bd))
	for _, b := range bd {
		p := models.UserPoint{AvailableOn: b.AvailableOn, ExpireOn: b.ExpireOn}
		if b.AvailablePoints > 0 && p.Spendable(now) {
			out = append(out, b)
		}
	}
	return out
}

// allocateFIFO walks batches in order and takes from each until amount is
// covered. It fails without a plan when the batches cannot cover amount.
func allocateFIFO(batches []dto.PointBatchBreakdown, amount int64) ([]models.UserPointAllocationRecord, error) {
	var available int64
	for _, b := range batches {
		available += b.AvailablePoints
	}
	if available < amount {
		return nil, errors.NewAppError(errors.ErrCodeBadRequest,
			fmt.Sprintf("Insufficient points: %d available, %d requested", available, amount), errors.ErrInsufficientPoints)
	}

	remaining := amount
	var plan []models.UserPointAllocationRecord
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		take := b.AvailablePoints
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		plan = append(plan, models.UserPointAllocationRecord{UserPointEarnedID: b.UserPointID, Amount: take})
		remaining -= take
	}
	return plan, nil
}

// SpendPoints records a spend event and its allocations in one transaction.
// The user's earned batches stay locked until it commits, so concurrent
// spends by the same user are serialized.
func (s *PointService) SpendPoints(ctx context.Context, in dto.SpendPointsInput) (*models.UserPoint, error) {
	if in.Amount <= 0 {
		return nil, errors.BadRequest("Point amount must be positive")
	}
	reason := in.Reason
	if reason == "" {
		reason = constants.PointReasonReservation
	}

	var spent *models.UserPoint
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		batches, err := s.points.ListReceived(ctx, in.UserID, true)
		if err != nil {
			return err
		}
		bd, err := s.breakdown(ctx, batches)
		if err != nil {
			return err
		}
		plan, err := allocateFIFO(spendable(bd, s.clock), in.Amount)
		if err != nil {
			return err
		}

		p := &models.UserPoint{
			UserID:        in.UserID,
			CompanyID:     in.CompanyID,
			PointAmount:   in.Amount,
			Status:        constants.PointStatusSpent,
			Reason:        reason,
			Description:   in.Description,
			AvailableOn:   s.clock.Now(),
			ReservationID: in.ReservationID,
		}
		if err := s.points.Create(ctx, p); err != nil {
			return err
		}
		for i := range plan {
			plan[i].UserPointSpentID = p.ID
		}
		if err := s.points.CreateAllocations(ctx, plan); err != nil {
			return err
		}
		spent = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user %d spent %d points (spend %d)", in.UserID, in.Amount, spent.ID)
	return spent, nil
}

// RollBackSpentPoints deletes every allocation of a spend and marks it
// REFUNDED. It returns the points restored; a spend already rolled back
// restores nothing.
func (s *PointService) RollBackSpentPoints(ctx context.Context, spentID uint) (int64, error) {
	var restored int64
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.points.Get(ctx, spentID)
		if err != nil {
			return err
		}
		switch p.Status {
		case constants.PointStatusRefunded:
			return nil
		case constants.PointStatusSpent:
		default:
			return errors.BadRequest(fmt.Sprintf("User point %d is not a spend", spentID))
		}

		recs, err := s.points.ListAllocationsBySpent(ctx, spentID)
		if err != nil {
			return err
		}
		for _, r := range recs {
			restored += r.Amount
		}
		if err := s.points.DeleteAllocationsBySpent(ctx, spentID); err != nil {
			return err
		}
		return s.points.UpdateStatus(ctx, spentID, constants.PointStatusRefunded)
	})
	if err != nil {
		return 0, err
	}
	if restored > 0 {
		s.logger.Info("rolled back spend %d, %d points restored", spentID, restored)
	}
	return restored, nil
}

// GetPointAllocationForSpentPoints returns the allocations of one spend.
func (s *PointService) GetPointAllocationForSpentPoints(ctx context.Context, userPointID uint) ([]models.UserPointAllocationRecord, error) {
	if _, err := s.points.Get(ctx, userPointID); err != nil {
		return nil, err
	}
	return s.points.ListAllocationsBySpent(ctx, userPointID)
}

// AwardPoints creates a RECEIVED batch using the company's hold and expiry
// policy.
func (s *PointService) AwardPoints(ctx context.Context, in dto.AwardPointsInput) (*models.UserPoint, error) {
	if in.Amount <= 0 {
		return nil, errors.BadRequest("Point amount must be positive")
	}
	company, err := s.companies.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	p := &models.UserPoint{
		UserID:        in.UserID,
		CompanyID:     in.CompanyID,
		PointAmount:   in.Amount,
		Status:        constants.PointStatusReceived,
		Reason:        in.Reason,
		Description:   in.Description,
		AvailableOn:   now.AddDate(0, 0, company.PointsHoldDays),
		ReservationID: in.ReservationID,
	}
	if company.PointsExpireMonths > 0 {
		exp := now.AddDate(0, company.PointsExpireMonths, 0)
		p.ExpireOn = &exp
	}
	if err := s.points.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("awarded %d points to user %d (batch %d)", in.Amount, in.UserID, p.ID)
	return p, nil
}
