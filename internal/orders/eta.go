package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ooprato/ooprato-backend/pkg/config"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
)

var minutesPerHour = decimal.NewFromInt(60)

// Estimator computes ready and delivery estimates.
type Estimator struct {
	DefaultPreparation time.Duration
	SpeedKmh           decimal.Decimal
	HandoffBuffer      time.Duration
}

// EstimatorFromConfig parses the delivery settings.
func EstimatorFromConfig(cfg config.DeliveryConfig) (Estimator, error) {
	speed, err := decimal.NewFromString(strings.TrimSpace(cfg.CourierSpeedKmh))
	if err != nil {
		return Estimator{}, fmt.Errorf("courier speed: %w", err)
	}
	if !speed.IsPositive() {
		return Estimator{}, fmt.Errorf("courier speed must be positive")
	}
	if cfg.DefaultPreparationMinutes < 0 || cfg.HandoffBufferMinutes < 0 {
		return Estimator{}, fmt.Errorf("delivery minutes must be non-negative")
	}
	return Estimator{
		DefaultPreparation: time.Duration(cfg.DefaultPreparationMinutes) * time.Minute,
		SpeedKmh:           speed,
		HandoffBuffer:      time.Duration(cfg.HandoffBufferMinutes) * time.Minute,
	}, nil
}

// ReadyAt uses the order's own preparation time when set.
func (e Estimator) ReadyAt(order models.Order, now time.Time) time.Time {
	prep := e.DefaultPreparation
	if order.PreparationMinutes != nil && *order.PreparationMinutes >= 0 {
		prep = time.Duration(*order.PreparationMinutes) * time.Minute
	}
	return now.Add(prep)
}

// DeliveryAt returns nil when the distance is unknown.
func (e Estimator) DeliveryAt(order models.Order, now time.Time) *time.Time {
	if order.DeliveryDistanceKm == nil || order.DeliveryDistanceKm.IsNegative() || !e.SpeedKmh.IsPositive() {
		return nil
	}
	travel := order.DeliveryDistanceKm.Div(e.SpeedKmh).Mul(minutesPerHour).Ceil().IntPart()
	at := now.Add(time.Duration(travel)*time.Minute + e.HandoffBuffer)
	return &at
}
