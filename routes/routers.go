package routes

import (
	"net/http"

	"loyaltystay/constants"
	"loyaltystay/controllers"
	"loyaltystay/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles what SetupRoutes mounts.
type Handlers struct {
	Tokens       middleware.TokenParser
	Itineraries  controllers.ItineraryController
	Availability controllers.AvailabilityController
	Points       controllers.PointController
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	admin := middleware.AuthMiddleware(h.Tokens, constants.RoleAdmin)
	member := middleware.AuthMiddleware(h.Tokens)

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	v1 := router.Group("/api/v1")

	v1.POST("/availability/verify", h.Availability.VerifyAvailability)
	v1.POST("/itineraries", middleware.OptionalAuth(h.Tokens), h.Itineraries.CreateItinerary)
	v1.GET("/itineraries/:id", member, h.Itineraries.GetItinerary)
	v1.PUT("/reservations/:id", member, h.Itineraries.UpdateReservation)
	v1.POST("/reservations/:id/cancel", member, h.Itineraries.CancelReservation)
	v1.POST("/reservations/complete/:code", admin, h.Itineraries.CompleteReservation)

	v1.POST("/companies/:companyId/availability/sync", admin, h.Availability.SyncAvailabilityBlock)
	v1.GET("/companies/:companyId/availability/keys", admin, h.Availability.GetAvailabilityRefreshKeys)
	v1.POST("/companies/:companyId/destinations/:destinationId/rates/sync", admin, h.Availability.SyncRates)

	v1.GET("/points/breakdown", member, h.Points.GetPointBreakdown)
	v1.GET("/points/:id/allocations", admin, h.Points.GetAllocations)
	v1.DELETE("/payment-methods/:id", member, h.Points.DeletePaymentMethod)
}
