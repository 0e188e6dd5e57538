package services

import (
	"io"

	"github.com/Clean-PRO/backend/models"
	"github.com/wcharczuk/go-chart/v2"
	"gorm.io/gorm"
)

// OrderStats is the admin dashboard summary.
type OrderStats struct {
	TotalOrders  int64            `json:"total_orders"`
	ByStatus     map[string]int64 `json:"by_status"`
	PaidOrders   int64            `json:"paid_orders"`
	TotalRevenue int64            `json:"total_revenue"`
	Cleaners     int64            `json:"cleaners"`
}

var orderStatuses = []string{
	models.OrderStatusCreated,
	models.OrderStatusAccepted,
	models.OrderStatusFinished,
	models.OrderStatusCancelled,
}

func CollectOrderStats(db *gorm.DB) (*OrderStats, error) {
	stats := &OrderStats{ByStatus: make(map[string]int64, len(orderStatuses))}
	for _, s := range orderStatuses {
		stats.ByStatus[s] = 0
	}

	var rows []struct {
		OrderStatus string
		Count       int64
	}
	if err := db.Model(&models.Order{}).Select("order_status, COUNT(*) AS count").
		Group("order_status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByStatus[r.OrderStatus] = r.Count
		stats.TotalOrders += r.Count
	}

	if err := db.Model(&models.Order{}).Where("pay_status = ?", true).Count(&stats.PaidOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Where("pay_status = ?", true).
		Select("COALESCE(SUM(total_sum), 0)").Row().Scan(&stats.TotalRevenue); err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("is_cleaner = ?", true).Count(&stats.Cleaners).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// RenderStatusChart draws orders per status as a PNG bar chart.
func RenderStatusChart(stats *OrderStats, w io.Writer) error {
	bars := make([]chart.Value, 0, len(orderStatuses))
	top := 1.0
	for _, s := range orderStatuses {
		v := float64(stats.ByStatus[s])
		if v > top {
			top = v
		}
		bars = append(bars, chart.Value{Label: s, Value: v})
	}

	graph := chart.BarChart{
		Title: "Orders by status",
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		Height:   400,
		Width:    640,
		BarWidth: 80,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}
