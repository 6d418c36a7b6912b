package controllers

import (
	"sort"

	"loyaltystay/dto"
	"loyaltystay/response"

	"github.com/gin-gonic/gin"
)

type AvailabilityController struct {
	Availability AvailabilityAPI
	Rates        RateAPI
}

func NewAvailabilityController(availability AvailabilityAPI, rates RateAPI) AvailabilityController {
	return AvailabilityController{Availability: availability, Rates: rates}
}

func (ac AvailabilityController) VerifyAvailability(c *gin.Context) {
	var req dto.StayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	priced, err := ac.Availability.VerifyAvailability(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, priced)
}

// SyncAvailabilityBlock refreshes one destination-month. The response lists
// the keys written; ?include=blocks also returns their content.
func (ac AvailabilityController) SyncAvailabilityBlock(c *gin.Context) {
	companyID, ok := paramUint(c, "companyId")
	if !ok {
		response.BadRequest(c, "Invalid company id")
		return
	}
	var req dto.SyncAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	blocks, err := ac.Availability.SyncAvailabilityBlock(c.Request.Context(), companyID, req.Key)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out := dto.SyncAvailabilityResponse{Keys: make([]string, 0, len(blocks))}
	for k := range blocks {
		out.Keys = append(out.Keys, k)
	}
	sort.Strings(out.Keys)
	if c.Query("include") == "blocks" {
		out.Blocks = blocks
	}
	response.SuccessWithTotal(c, out, len(out.Keys))
}

func (ac AvailabilityController) GetAvailabilityRefreshKeys(c *gin.Context) {
	companyID, ok := paramUint(c, "companyId")
	if !ok {
		response.BadRequest(c, "Invalid company id")
		return
	}
	keys, err := ac.Availability.GetAvailabilityRefreshKeys(c.Request.Context(), companyID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithTotal(c, keys, len(keys))
}

func (ac AvailabilityController) SyncRates(c *gin.Context) {
	companyID, ok := paramUint(c, "companyId")
	if !ok {
		response.BadRequest(c, "Invalid company id")
		return
	}
	destinationID, ok := paramUint(c, "destinationId")
	if !ok {
		response.BadRequest(c, "Invalid destination id")
		return
	}
	rates, err := ac.Rates.SyncRates(c.Request.Context(), companyID, destinationID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithTotal(c, rates, len(rates))
}
