package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/busline/internal/helpers"
	"github.com/joshua-takyi/busline/internal/models"
	"github.com/joshua-takyi/busline/internal/services"
)

func ListTrips(t *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.TripFilter{
			Origin:      c.Query("origin"),
			Destination: c.Query("destination"),
		}
		if raw := c.Query("active"); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid active parameter"))
				return
			}
			filter.ActiveOnly = active
		}

		trips, err := t.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(trips, len(trips)))
	}
}

func GetTrip(t *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		trip, err := t.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(trip, ""))
	}
}

func TripSeats(t *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		layout, err := t.Seats(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(layout, ""))
	}
}

func CreateTrip(t *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var trip models.Trip
		if err := c.ShouldBindJSON(&trip); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		created, err := t.Create(c.Request.Context(), &trip)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(created, "Trip created successfully"))
	}
}

func UpdateTrip(t *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req services.TripUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		trip, err := t.Update(c.Request.Context(), actor, id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(trip, "Trip updated successfully"))
	}
}

func DeleteTrip(t *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := t.Delete(c.Request.Context(), actor, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Trip deleted successfully"))
	}
}
