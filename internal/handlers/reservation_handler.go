package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/busline/internal/helpers"
	"github.com/joshua-takyi/busline/internal/models"
	"github.com/joshua-takyi/busline/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bookingBody accepts either a seats array or a single seat, and the trip as
// trip_id or as an embedded {"id": ...} object.
type bookingBody struct {
	TripID string `json:"trip_id"`
	Trip   *struct {
		ID string `json:"id"`
	} `json:"trip"`
	Seats []int  `json:"seats"`
	Seat  *int   `json:"seat"`
	Date  string `json:"date"`
}

func (b bookingBody) toRequest() (services.BookingRequest, string) {
	var req services.BookingRequest

	rawID := b.TripID
	if rawID == "" && b.Trip != nil {
		rawID = b.Trip.ID
	}
	id, err := primitive.ObjectIDFromHex(helpers.StringTrim(rawID))
	if err != nil {
		return req, "a valid trip_id is required"
	}
	req.TripID = id

	req.Seats = b.Seats
	if len(req.Seats) == 0 && b.Seat != nil {
		req.Seats = []int{*b.Seat}
	}

	if b.Date != "" {
		d, err := time.Parse("2006-01-02", b.Date)
		if err != nil {
			d, err = time.Parse(time.RFC3339, b.Date)
		}
		if err != nil {
			return req, "date must be YYYY-MM-DD"
		}
		req.TravelDate = &d
	}
	return req, ""
}

func CreateReservation(r *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body bookingBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		req, msg := body.toRequest()
		if msg != "" {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(msg))
			return
		}

		created, err := r.Book(c.Request.Context(), actor, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(created, "Reservation confirmed"))
	}
}

func MyReservations(r *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		list, err := r.ListMine(c.Request.Context(), actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(list, len(list)))
	}
}

func TripReservedSeats(r *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		seats, err := r.ReservedSeats(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"trip_id": id.Hex(),
			"seats":   seats,
		}, ""))
	}
}

func CancelReservation(r *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		updated, err := r.Cancel(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(updated, "Reservation cancelled"))
	}
}

func ValidateReservation(r *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		updated, err := r.Validate(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(updated, "Reservation validated"))
	}
}

func DeleteReservation(r *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := r.Delete(c.Request.Context(), actor, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Reservation deleted"))
	}
}

func AdminReservations(r *services.ReservationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.ReservationFilter{Status: models.ReservationStatus(c.Query("status"))}
		if raw := c.Query("trip_id"); raw != "" {
			tripID, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid trip_id"))
				return
			}
			filter.TripID = &tripID
		}

		list, err := r.ListAll(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(list, len(list)))
	}
}
