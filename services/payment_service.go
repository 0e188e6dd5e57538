package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderAlreadyPaid = utils.NewValidationError("order is already paid")
	ErrOrderCancelled   = utils.NewValidationError("order is cancelled")
	ErrPaymentNotFound  = errors.New("payment not found")
)

// PaymentService records payment attempts and flips the order's pay status.
type PaymentService struct {
	db      *gorm.DB
	gateway PaymentGateway
	events  EventPublisher
	monitor *PaymentMonitor
}

func NewPaymentService(db *gorm.DB, gateway PaymentGateway, events EventPublisher) *PaymentService {
	if gateway == nil {
		gateway = ManualGateway{}
	}
	return &PaymentService{
		db:      db,
		gateway: gateway,
		events:  events,
	}
}

// WithMonitor makes settled payments show up in the monitor's metrics.
func (s *PaymentService) WithMonitor(m *PaymentMonitor) *PaymentService {
	s.monitor = m
	return s
}

func (s *PaymentService) Gateway() PaymentGateway {
	return s.gateway
}

// Pay starts a payment for the owner's order. With the manual gateway the
// order is marked paid right away.
func (s *PaymentService) Pay(ctx context.Context, actor *models.User, orderID uint) (*models.Payment, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != actor.ID {
		return nil, ErrOrderNotFound
	}
	if actor.IsStaff() {
		return nil, ErrForbiddenUpdate
	}
	if order.PayStatus {
		return nil, ErrOrderAlreadyPaid
	}
	if order.OrderStatus == models.OrderStatusCancelled {
		return nil, ErrOrderCancelled
	}

	res, err := s.gateway.Charge(ctx, &order)
	if err != nil {
		return nil, fmt.Errorf("charge order %d: %w", order.ID, err)
	}

	payment := models.Payment{
		OrderID:       order.ID,
		Amount:        order.TotalSum,
		Status:        models.PaymentStatusPending,
		PaymentMethod: s.gateway.Name(),
		ReferenceID:   res.ReferenceID,
		PaymentURL:    res.URL,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&payment).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if res.Status == models.PaymentStatusSuccess {
			return s.settle(tx, &payment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Payment %d for order %d via %s: %s", payment.ID, order.ID, payment.PaymentMethod, payment.Status)
	if payment.Status == models.PaymentStatusSuccess {
		s.afterSettle(order.ID)
	}
	return &payment, nil
}

// ConfirmByReference settles the pending payment created for a gateway session.
// Already settled payments are left as they are.
func (s *PaymentService) ConfirmByReference(ctx context.Context, referenceID string) (*models.Payment, error) {
	var payment models.Payment
	settled := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reference_id = ?", referenceID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if payment.Status != models.PaymentStatusPending {
			return nil
		}
		settled = true
		return s.settle(tx, &payment)
	})
	if err != nil {
		return nil, err
	}
	if settled {
		s.afterSettle(payment.OrderID)
	}
	return &payment, nil
}

// FailByReference marks a pending payment failed, e.g. when checkout expired.
func (s *PaymentService) FailByReference(ctx context.Context, referenceID string) error {
	res := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("reference_id = ? AND status = ?", referenceID, models.PaymentStatusPending).
		Update("status", models.PaymentStatusFailed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 && s.monitor != nil {
		s.monitor.updateMetrics(models.PaymentStatusFailed)
	}
	return nil
}

func (s *PaymentService) settle(tx *gorm.DB, payment *models.Payment) error {
	now := time.Now()
	payment.Status = models.PaymentStatusSuccess
	payment.PaymentTime = &now
	if err := tx.Omit(clause.Associations).Save(payment).Error; err != nil {
		return fmt.Errorf("update payment %d: %w", payment.ID, err)
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", payment.OrderID).Update("pay_status", true).Error; err != nil {
		return fmt.Errorf("update order %d: %w", payment.OrderID, err)
	}
	return nil
}

func (s *PaymentService) afterSettle(orderID uint) {
	if s.monitor != nil {
		s.monitor.updateMetrics(models.PaymentStatusSuccess)
	}
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to reload order %d after payment: %v", orderID, err)
		return
	}
	publishAsync(s.events, NewOrderEvent(EventOrderPaid, &order))
}
