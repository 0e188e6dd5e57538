package services

import (
	"context"
	"time"

	"github.com/Clean-PRO/backend/utils"
)

// ReviewMonitor imports maps reviews on start and then every Interval.
type ReviewMonitor struct {
	Reviews  *ReviewService
	StopChan chan struct{}
	Interval time.Duration
}

func NewReviewMonitor(reviews *ReviewService, interval time.Duration) *ReviewMonitor {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &ReviewMonitor{
		Reviews:  reviews,
		StopChan: make(chan struct{}),
		Interval: interval,
	}
}

func (rm *ReviewMonitor) Start() {
	go func() {
		rm.runOnce()

		ticker := time.NewTicker(rm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rm.runOnce()
			case <-rm.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Printf("Review monitor started, interval %s", rm.Interval)
}

func (rm *ReviewMonitor) Stop() {
	close(rm.StopChan)
}

func (rm *ReviewMonitor) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := rm.Reviews.Import(ctx); err != nil {
		utils.ErrorLogger.Printf("Review import failed: %v", err)
	}
}
