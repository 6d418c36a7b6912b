package controllers

import (
	"strconv"

	"loyaltystay/constants"
	"loyaltystay/middleware"
	"loyaltystay/response"

	"github.com/gin-gonic/gin"
)

type PointController struct {
	Points         PointAPI
	PaymentMethods PaymentMethodAPI
}

func NewPointController(points PointAPI, paymentMethods PaymentMethodAPI) PointController {
	return PointController{Points: points, PaymentMethods: paymentMethods}
}

// GetPointBreakdown lists the caller's batches that still have points.
// Admins may pass ?userId= to look at another user.
func (pc PointController) GetPointBreakdown(c *gin.Context) {
	userID := middleware.UserID(c)
	if role, _ := middleware.UserRole(c); role == constants.RoleAdmin {
		if other, ok := queryUint(c, "userId"); ok {
			userID = other
		}
	}

	var threshold *int64
	if raw := c.Query("minAvailability"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			response.BadRequest(c, "Invalid minAvailability")
			return
		}
		threshold = &n
	}

	batches, err := pc.Points.GetAvailablePointBreakdownByUserID(c.Request.Context(), userID, threshold)
	if err != nil {
		response.FromError(c, err)
		return
	}
	var available int64
	for _, b := range batches {
		available += b.AvailablePoints
	}
	response.SuccessWithTotal(c, batches, int(available))
}

func (pc PointController) GetAllocations(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid point id")
		return
	}
	records, err := pc.Points.GetPointAllocationForSpentPoints(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithTotal(c, records, len(records))
}

// DeletePaymentMethod deactivates one of the caller's cards. ?companyId= picks
// the loyalty program to unlink it from.
func (pc PointController) DeletePaymentMethod(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid payment method id")
		return
	}
	companyID, ok := queryUint(c, "companyId")
	if !ok {
		response.BadRequest(c, "companyId is required")
		return
	}
	if err := pc.PaymentMethods.DeletePaymentMethod(c.Request.Context(), companyID, middleware.UserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}
