package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/busline/internal/helpers"
	"github.com/joshua-takyi/busline/internal/middleware"
	"github.com/joshua-takyi/busline/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps service errors to status codes. Unknown errors are left to
// middleware.ErrorHandler, which logs them and answers 500.
func respondError(c *gin.Context, err error) {
	var conflict *services.SeatConflictError
	var ve *services.ValidationError

	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, helpers.ErrorWithDetails(conflict.Error(), gin.H{"seats": conflict.Seats}))
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse(ve.Msg))
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, helpers.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, helpers.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrBookingClosed):
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, helpers.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrUploadsDisabled):
		c.JSON(http.StatusServiceUnavailable, helpers.ErrorResponse(err.Error()))
	default:
		_ = c.Error(err)
	}
}

// currentActor reads the caller set by middleware.AuthMiddleware.
func currentActor(c *gin.Context) (services.Actor, bool) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
		return services.Actor{}, false
	}
	id, err := claims.ObjectID()
	if err != nil {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("invalid user ID in token"))
		return services.Actor{}, false
	}
	return services.Actor{UserID: id, IsAdmin: claims.IsAdmin()}, true
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(helpers.StringTrim(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid "+name))
		return primitive.NilObjectID, false
	}
	return id, true
}
