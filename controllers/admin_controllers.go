package controllers

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/Clean-PRO/backend/dispatch"
	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var ErrNotCleaner = errors.New("user is not a cleaner")

type AdminController struct {
	DB      *gorm.DB
	Monitor *services.PaymentMonitor
	Hub     *dispatch.Hub
}

func NewAdminController(db *gorm.DB, monitor *services.PaymentMonitor, hub *dispatch.Hub) *AdminController {
	return &AdminController{DB: db, Monitor: monitor, Hub: hub}
}

// GetDashboardStats returns order counts by status and revenue.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats, err := services.CollectOrderStats(ac.DB)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}

// GetStatsChart renders the status counts as a PNG.
func (ac *AdminController) GetStatsChart(c *gin.Context) {
	stats, err := services.CollectOrderStats(ac.DB)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var buf bytes.Buffer
	if err := services.RenderStatusChart(stats, &buf); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// GetPaymentMetrics reports payment outcomes seen by this instance.
func (ac *AdminController) GetPaymentMetrics(c *gin.Context) {
	if ac.Monitor == nil {
		utils.RespondJSON(c, http.StatusOK, "Payment metrics", services.PaymentMetrics{})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment metrics", ac.Monitor.GetMetrics())
}

// GetCleaners lists cleaners with their vacation dates.
func (ac *AdminController) GetCleaners(c *gin.Context) {
	var cleaners []models.User
	if err := ac.DB.Where("is_cleaner = ?", true).Order("id").Find(&cleaners).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]gin.H, 0, len(cleaners))
	for i := range cleaners {
		out = append(out, profile(&cleaners[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of cleaners", out)
}

// SetVacation sets or clears a cleaner's vacation. Both dates are inclusive.
func (ac *AdminController) SetVacation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var body struct {
		OnVacationFrom *string `json:"on_vacation_from"`
		OnVacationTo   *string `json:"on_vacation_to"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if (body.OnVacationFrom == nil) != (body.OnVacationTo == nil) {
		utils.RespondValidation(c, utils.NewValidationError("both vacation dates are required", "on_vacation_from", "on_vacation_to"))
		return
	}
	if body.OnVacationFrom != nil {
		from, errFrom := time.Parse(models.DateFormat, *body.OnVacationFrom)
		to, errTo := time.Parse(models.DateFormat, *body.OnVacationTo)
		var fields []string
		if errFrom != nil {
			fields = append(fields, "on_vacation_from")
		}
		if errTo != nil {
			fields = append(fields, "on_vacation_to")
		}
		if len(fields) == 0 && to.Before(from) {
			fields = append(fields, "on_vacation_to")
		}
		if len(fields) > 0 {
			utils.RespondValidation(c, utils.NewValidationError("invalid vacation dates", fields...))
			return
		}
	}

	var cleaner models.User
	if err := ac.DB.First(&cleaner, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	if !cleaner.IsCleaner {
		utils.RespondError(c, http.StatusBadRequest, ErrNotCleaner)
		return
	}

	if err := ac.DB.Model(&cleaner).Updates(map[string]interface{}{
		"on_vacation_from": body.OnVacationFrom,
		"on_vacation_to":   body.OnVacationTo,
	}).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	cleaner.OnVacationFrom = body.OnVacationFrom
	cleaner.OnVacationTo = body.OnVacationTo

	if ac.Hub != nil {
		ac.Hub.BroadcastStaffNotification("vacation updated for " + cleaner.DisplayName())
	}
	utils.InfoLogger.Printf("Vacation for cleaner %d set to %v - %v", cleaner.ID, deref(body.OnVacationFrom), deref(body.OnVacationTo))
	utils.RespondJSON(c, http.StatusOK, "Vacation updated", profile(&cleaner))
}

func deref(s *string) string {
	if s == nil {
		return "none"
	}
	return *s
}
