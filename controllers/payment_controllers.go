package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/gorm"
)

const maxWebhookBody = 65536

type PaymentController struct {
	DB            *gorm.DB
	Payments      *services.PaymentService
	WebhookSecret string
}

func NewPaymentController(db *gorm.DB, payments *services.PaymentService, webhookSecret string) *PaymentController {
	return &PaymentController{DB: db, Payments: payments, WebhookSecret: webhookSecret}
}

// GetAllPayments
func (pc *PaymentController) GetAllPayments(c *gin.Context) {
	limit, offset, err := utils.ParsePage(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	query := pc.DB.Model(&models.Payment{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var payments []models.Payment
	if err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&payments).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All payments", utils.Page{
		Count:   count,
		Limit:   limit,
		Offset:  offset,
		Results: payments,
	})
}

// GetPaymentByID
func (pc *PaymentController) GetPaymentByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var payment models.Payment
	if err := pc.DB.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = services.ErrPaymentNotFound
		}
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment detail", payment)
}

// StripeWebhook settles or fails payments from Checkout session events.
func (pc *PaymentController) StripeWebhook(c *gin.Context) {
	if pc.WebhookSecret == "" {
		utils.RespondError(c, http.StatusNotFound, errors.New("stripe webhook is not configured"))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, err)
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), pc.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		utils.ErrorLogger.Printf("Stripe webhook signature check failed: %v", err)
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid signature"))
		return
	}

	var session stripe.CheckoutSession
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			// Delayed methods complete later with async_payment_succeeded.
			break
		}
		if _, err := pc.Payments.ConfirmByReference(c.Request.Context(), session.ID); err != nil {
			pc.webhookFailed(c, event, err)
			return
		}
	case stripe.EventTypeCheckoutSessionExpired, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		if err := pc.Payments.FailByReference(c.Request.Context(), session.ID); err != nil {
			pc.webhookFailed(c, event, err)
			return
		}
	default:
		utils.InfoLogger.Printf("Ignoring stripe event %s", event.Type)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (pc *PaymentController) webhookFailed(c *gin.Context, event stripe.Event, err error) {
	utils.ErrorLogger.Printf("Stripe event %s (%s) failed: %v", event.ID, event.Type, err)
	if errors.Is(err, services.ErrPaymentNotFound) {
		// Not ours; acknowledge so Stripe stops retrying.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	utils.RespondError(c, http.StatusInternalServerError, err)
}
