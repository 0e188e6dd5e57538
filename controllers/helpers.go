package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Clean-PRO/backend/middlewares"
	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	ErrNotAuthenticated = errors.New("authentication credentials were not provided")
	ErrInvalidID        = errors.New("invalid id")
)

// currentUser writes a 401 and returns false when no user is in context.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNotAuthenticated)
		return nil, false
	}
	return user, true
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidID)
		return 0, false
	}
	return uint(id), true
}

// respondServiceError maps service errors onto HTTP status codes.
func respondServiceError(c *gin.Context, err error) {
	if ve, ok := utils.AsValidationError(err); ok {
		utils.RespondValidation(c, ve)
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrForbiddenUpdate):
		utils.RespondError(c, http.StatusForbidden, err)
	default:
		utils.ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}
