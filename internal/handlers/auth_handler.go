package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/busline/internal/helpers"
	"github.com/joshua-takyi/busline/internal/middleware"
	"github.com/joshua-takyi/busline/internal/services"
)

// CookieOptions controls the access_token cookie set next to the JSON token.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

func setSessionCookie(c *gin.Context, token string, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(opts.TTL.Seconds()), "/", "", opts.Secure, true)
}

func Register(u *services.UserService, cookies CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.RegisterInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		sess, err := u.Register(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		setSessionCookie(c, sess.Token, cookies)
		c.JSON(http.StatusCreated, helpers.SuccessResponse(sess, "Account created successfully"))
	}
}

func Login(u *services.UserService, cookies CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("email and password are required"))
			return
		}

		sess, err := u.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		setSessionCookie(c, sess.Token, cookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(sess, "Logged in successfully"))
	}
}

func Logout(u *services.UserService, cookies CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
			return
		}
		if err := u.Logout(c.Request.Context(), claims.CustomClaims); err != nil {
			respondError(c, err)
			return
		}

		c.SetCookie(middleware.TokenCookie, "", -1, "/", "", cookies.Secure, true)
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Logged out successfully"))
	}
}

func Me(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		user, err := u.Get(c.Request.Context(), actor, actor.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(user, ""))
	}
}

func CreateAdmin(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var req services.RegisterInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		user, err := u.CreateAdmin(c.Request.Context(), actor, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(user, "Admin created successfully"))
	}
}
