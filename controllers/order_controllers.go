package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRatingExists      = utils.NewValidationError("you have already rated this order")
	ErrOrderNotFinished  = utils.NewValidationError("only finished orders can be rated")
	ErrRatingNotFound    = errors.New("rating not found")
	ErrInvalidRatingData = utils.NewValidationError("invalid rating", "score")
)

type OrderController struct {
	DB           *gorm.DB
	Orders       *services.OrderService
	Availability *services.AvailabilityService
	Payments     *services.PaymentService
	Reviews      *services.ReviewService
	Mail         *services.MailService
}

func NewOrderController(db *gorm.DB, orders *services.OrderService, payments *services.PaymentService,
	reviews *services.ReviewService, mail *services.MailService) *OrderController {
	return &OrderController{
		DB:           db,
		Orders:       orders,
		Availability: orders.Availability,
		Payments:     payments,
		Reviews:      reviews,
		Mail:         mail,
	}
}

// ordersFor scopes a query to the actor's orders. Staff see everything.
func (oc *OrderController) ordersFor(user *models.User) *gorm.DB {
	query := oc.DB.Model(&models.Order{})
	if !user.IsStaff() {
		query = query.Where("user_id = ?", user.ID)
	}
	return query.Session(&gorm.Session{})
}

// CreateOrder books a cleaning and assigns a free cleaner.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var body services.CreateOrderInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), user.ID, body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if oc.Mail != nil {
		var created models.Order
		err := oc.DB.Preload(clause.Associations).Preload("Services.Service").First(&created, order.ID).Error
		if err != nil {
			utils.ErrorLogger.Errorf("Failed to load order %d for mail: %v", order.ID, err)
		} else {
			oc.Mail.NotifyAsync(&created.UserID, created.User.Email, services.OrderSubject, services.OrderText(&created))
		}
	}

	// The booking is confirmed without echoing the stored order.
	utils.RespondJSON(c, http.StatusCreated, "Order created", nil)
}

// GetOrders lists the actor's orders, newest first.
func (oc *OrderController) GetOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	limit, offset, err := utils.ParsePage(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	query := oc.ordersFor(user)
	if status := c.Query("order_status"); status != "" {
		query = query.Where("order_status = ?", status).Session(&gorm.Session{})
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var orders []models.Order
	if err := query.Preload(clause.Associations).Preload("Services.Service").
		Order("id DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of orders", utils.Page{
		Count:   count,
		Limit:   limit,
		Offset:  offset,
		Results: orders,
	})
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := oc.ordersFor(user).Preload(clause.Associations).Preload("Services.Service").
		First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = services.ErrOrderNotFound
		}
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrder handles PUT /orders/:id for owners and staff.
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var body services.UpdateOrderInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateOrder(c.Request.Context(), user, orderID, body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

// PayOrder starts a payment. The manual gateway settles at once, Stripe
// returns a checkout URL in data.payment_url.
func (oc *OrderController) PayOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID := c.GetUint("order_id")
	if orderID == 0 {
		if orderID, ok = parseID(c, "id"); !ok {
			return
		}
	}

	payment, err := oc.Payments.Pay(c.Request.Context(), user, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var order models.Order
	if err := oc.DB.First(&order, orderID).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusAccepted, "Payment accepted", gin.H{
		"id":             order.ID,
		"pay_status":     order.PayStatus,
		"payment_status": payment.Status,
		"payment_url":    payment.PaymentURL,
	})
}

// GetAvailableTime returns the half-hour calendar for a day.
func (oc *OrderController) GetAvailableTime(c *gin.Context) {
	var body struct {
		CleaningDate string `json:"cleaning_date" binding:"required"`
		TotalTime    uint   `json:"total_time" binding:"required,min=1,max=1440"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := time.Parse(models.DateFormat, body.CleaningDate); err != nil {
		utils.RespondValidation(c, utils.NewValidationError("invalid cleaning date", "cleaning_date"))
		return
	}

	calendar, err := oc.Availability.AvailableTime(body.CleaningDate, body.TotalTime)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, calendar)
}

type ratingRequest struct {
	Text  string `json:"text" binding:"max=4096"`
	Score uint   `json:"score" binding:"required"`
}

func (r ratingRequest) validate() *utils.ValidationError {
	if r.Score < models.RatingScoreMin || r.Score > models.RatingScoreMax {
		return ErrInvalidRatingData
	}
	return nil
}

// RateOrder creates (POST) or updates (PUT) the owner's rating of a finished order.
func (oc *OrderController) RateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var body ratingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if ve := body.validate(); ve != nil {
		utils.RespondValidation(c, ve)
		return
	}

	var order models.Order
	if err := oc.DB.Where("user_id = ?", user.ID).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = services.ErrOrderNotFound
		}
		respondServiceError(c, err)
		return
	}

	var rating models.Rating
	err := oc.DB.Where("order_id = ? AND user_id = ?", order.ID, user.ID).First(&rating).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	code := http.StatusOK
	switch c.Request.Method {
	case http.MethodPost:
		if order.OrderStatus != models.OrderStatusFinished {
			utils.RespondValidation(c, ErrOrderNotFinished)
			return
		}
		if found {
			utils.RespondValidation(c, ErrRatingExists)
			return
		}
		rating = models.Rating{
			Username: user.DisplayName(),
			UserID:   &user.ID,
			OrderID:  &order.ID,
			PubDate:  time.Now(),
			Text:     strings.TrimSpace(body.Text),
			Score:    body.Score,
		}
		if err := oc.DB.Omit(clause.Associations).Create(&rating).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		code = http.StatusCreated
	default:
		if !found {
			utils.RespondError(c, http.StatusNotFound, ErrRatingNotFound)
			return
		}
		rating.Text = strings.TrimSpace(body.Text)
		rating.Score = body.Score
		if err := oc.DB.Omit(clause.Associations).Save(&rating).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	oc.Reviews.Invalidate(c.Request.Context())
	utils.RespondJSON(c, code, "Rating saved", rating)
}
