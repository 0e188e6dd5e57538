package services

import (
	"sync"
	"time"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/utils"
	"gorm.io/gorm"
)

// PaymentMetrics counts payment outcomes since start.
type PaymentMetrics struct {
	SuccessfulPayments int64 `json:"successful_payments"`
	FailedPayments     int64 `json:"failed_payments"`
	ExpiredPayments    int64 `json:"expired_payments"`
	PendingPayments    int64 `json:"pending_payments"`
}

// PaymentMonitor fails pending payments whose checkout was abandoned.
type PaymentMonitor struct {
	db          *gorm.DB
	metrics     PaymentMetrics
	mutex       sync.Mutex
	StopChan    chan struct{}
	Interval    time.Duration
	ExpireAfter time.Duration
	Now         func() time.Time
}

func NewPaymentMonitor(db *gorm.DB) *PaymentMonitor {
	return &PaymentMonitor{
		db:       db,
		StopChan: make(chan struct{}),
		Interval: 5 * time.Minute,
		// Stripe Checkout sessions expire after 24 hours.
		ExpireAfter: 24 * time.Hour,
		Now:         time.Now,
	}
}

func (pm *PaymentMonitor) Start() {
	go func() {
		ticker := time.NewTicker(pm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				pm.ExpireStale()
			case <-pm.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Println("Payment monitor started")
}

func (pm *PaymentMonitor) Stop() {
	close(pm.StopChan)
}

// ExpireStale marks pending payments older than ExpireAfter as failed and
// returns how many were changed.
func (pm *PaymentMonitor) ExpireStale() int64 {
	cutoff := pm.Now().Add(-pm.ExpireAfter)
	res := pm.db.Model(&models.Payment{}).
		Where("status = ? AND created_at < ?", models.PaymentStatusPending, cutoff).
		Update("status", models.PaymentStatusFailed)
	if res.Error != nil {
		utils.ErrorLogger.Printf("Error expiring stale payments: %v", res.Error)
		return 0
	}

	var pending int64
	pm.db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusPending).Count(&pending)

	pm.mutex.Lock()
	pm.metrics.ExpiredPayments += res.RowsAffected
	pm.metrics.PendingPayments = pending
	pm.mutex.Unlock()

	if res.RowsAffected > 0 {
		utils.InfoLogger.Printf("Expired %d stale payments", res.RowsAffected)
	}
	return res.RowsAffected
}

func (pm *PaymentMonitor) updateMetrics(status string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	switch status {
	case models.PaymentStatusSuccess:
		pm.metrics.SuccessfulPayments++
	case models.PaymentStatusFailed:
		pm.metrics.FailedPayments++
	}
}

func (pm *PaymentMonitor) GetMetrics() PaymentMetrics {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	return pm.metrics
}
