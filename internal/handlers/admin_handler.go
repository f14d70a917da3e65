package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/busline/internal/helpers"
	"github.com/joshua-takyi/busline/internal/models"
	"github.com/joshua-takyi/busline/internal/realtime"
	"github.com/joshua-takyi/busline/internal/services"
)

func Health(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":            "OK",
			"service":           "busline-api",
			"websocket_clients": hub.ClientCount(),
		})
	}
}

// Realtime upgrades the request to a WebSocket fed by the hub.
func Realtime(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	}
}

func Reports(r *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := services.ParseReportRange(c.Query("start_date"), c.Query("end_date"))
		if err != nil {
			respondError(c, err)
			return
		}
		report, err := r.Summary(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(report, ""))
	}
}

func GetSettings(s *services.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := s.Get(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(settings, ""))
	}
}

func SaveSettings(s *services.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.Settings
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		saved, err := s.Save(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(saved, "Settings saved"))
	}
}

func UploadLogo(s *services.SettingsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Image string `json:"image" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("image is required"))
			return
		}
		saved, err := s.UploadLogo(c.Request.Context(), req.Image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(saved, "Logo updated"))
	}
}

func ListNotifications(n *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid limit parameter"))
			return
		}
		unread, _ := strconv.ParseBool(c.Query("unread"))

		logs, err := n.List(c.Request.Context(), limit, unread)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(logs, len(logs)))
	}
}

func MarkNotificationRead(n *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := n.MarkRead(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Notification marked as read"))
	}
}

func MarkAllNotificationsRead(n *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := n.MarkAllRead(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"updated": count}, "Notifications marked as read"))
	}
}
