package controllers

import (
	"net/http"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NotificationController exposes the outgoing mail log to staff.
type NotificationController struct {
	DB   *gorm.DB
	Mail *services.MailService
}

func NewNotificationController(db *gorm.DB, mail *services.MailService) *NotificationController {
	return &NotificationController{DB: db, Mail: mail}
}

// GetAllNotifications
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	limit, offset, err := utils.ParsePage(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	query := nc.DB.Model(&models.Notification{})
	if recipient := c.Query("recipient"); recipient != "" {
		query = query.Where("recipient = ?", utils.NormalizeEmail(recipient))
	}
	switch c.Query("delivered") {
	case "true":
		query = query.Where("delivered = ?", true)
	case "false":
		query = query.Where("delivered = ?", false)
	}
	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var notifs []models.Notification
	if err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&notifs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications", utils.Page{
		Count:   count,
		Limit:   limit,
		Offset:  offset,
		Results: notifs,
	})
}

// CreateNotification mails a message to a user and returns the log entry.
func (nc *NotificationController) CreateNotification(c *gin.Context) {
	type reqBody struct {
		UserID  uint   `json:"user_id" binding:"required"`
		Title   string `json:"title" binding:"required,max=100"`
		Message string `json:"message" binding:"required"`
	}
	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := nc.DB.First(&user, body.UserID).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	if err := nc.Mail.Notify(c.Request.Context(), &user.ID, user.Email, body.Title, body.Message); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var notif models.Notification
	if err := nc.DB.Where("user_id = ?", user.ID).Order("id DESC").First(&notif).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Notification %d sent to user %d", notif.ID, user.ID)
	utils.RespondJSON(c, http.StatusCreated, "Notification created", notif)
}

// GetNotificationByID
func (nc *NotificationController) GetNotificationByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var notif models.Notification
	if err := nc.DB.First(&notif, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Notification detail", notif)
}

// DeleteNotification
func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res := nc.DB.Delete(&models.Notification{}, id)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondServiceError(c, gorm.ErrRecordNotFound)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification deleted", gin.H{"id": id})
}
