package controllers

import (
	"loyaltystay/constants"
	"loyaltystay/dto"
	"loyaltystay/errors"
	"loyaltystay/middleware"
	"loyaltystay/response"

	"github.com/gin-gonic/gin"
)

type ItineraryController struct {
	Itineraries ItineraryAPI
}

func NewItineraryController(itineraries ItineraryAPI) ItineraryController {
	return ItineraryController{Itineraries: itineraries}
}

// CreateItinerary books every stay of the request. Signed-in users book as
// themselves; anyone else books as a guest identified by email.
func (ic ItineraryController) CreateItinerary(c *gin.Context) {
	var req dto.CreateItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	req.UserID = middleware.UserID(c)

	res, err := ic.Itineraries.CreateItinerary(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, res)
}

func (ic ItineraryController) GetItinerary(c *gin.Context) {
	res, err := ic.Itineraries.GetItinerary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if len(res.Stays) > 0 && !canSee(c, res.Stays[0].UserID) {
		response.FromError(c, errors.NotFound("Itinerary not found"))
		return
	}
	response.Success(c, res)
}

// canSee reports whether the caller owns a booking or is an admin.
func canSee(c *gin.Context, ownerID uint) bool {
	if role, ok := middleware.UserRole(c); ok && role == constants.RoleAdmin {
		return true
	}
	return ownerID != 0 && ownerID == middleware.UserID(c)
}

// ownReservation answers NOT_FOUND for reservations the caller may not touch.
func (ic ItineraryController) ownReservation(c *gin.Context, id uint) bool {
	res, err := ic.Itineraries.GetReservation(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return false
	}
	if !canSee(c, res.UserID) {
		response.FromError(c, errors.NotFound("Reservation not found"))
		return false
	}
	return true
}

func (ic ItineraryController) UpdateReservation(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid reservation id")
		return
	}
	var req dto.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if !ic.ownReservation(c, id) {
		return
	}
	res, err := ic.Itineraries.Update(c.Request.Context(), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

func (ic ItineraryController) CancelReservation(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid reservation id")
		return
	}
	if !ic.ownReservation(c, id) {
		return
	}
	res, err := ic.Itineraries.CancelReservation(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

func (ic ItineraryController) CompleteReservation(c *gin.Context) {
	res, err := ic.Itineraries.CompleteReservation(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}
