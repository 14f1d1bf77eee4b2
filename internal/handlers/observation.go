package handlers

import (
	"context"
	"github.com/golang/glog"
	"github.com/luckfunc/ticketBot/internal/models"
	"github.com/shopspring/decimal"
)

// Notifier sends the alert or informational message for a price.
type Notifier interface {
	Notify(ctx context.Context, price decimal.Decimal, alert bool)
}

// Publisher fans a recorded price out to other consumers.
type Publisher interface {
	Publish(ctx context.Context, event models.PriceEvent) error
}

// IsAlert 价格严格低于阈值才算提醒，没有冷却，每次运行都会重复提醒
func IsAlert(price, threshold decimal.Decimal) bool {
	return price.LessThan(threshold)
}

// ObservationHandler classifies a recorded observation and dispatches it.
type ObservationHandler struct {
	threshold decimal.Decimal
	notifier  Notifier
	publisher Publisher
}

func NewObservationHandler(threshold decimal.Decimal, notifier Notifier) *ObservationHandler {
	return &ObservationHandler{threshold: threshold, notifier: notifier}
}

// WithPublisher enables event publishing.
func (h *ObservationHandler) WithPublisher(p Publisher) *ObservationHandler {
	h.publisher = p
	return h
}

// Handle returns whether the observation was treated as an alert.
func (h *ObservationHandler) Handle(ctx context.Context, runID string, obs models.Observation) bool {
	alert := IsAlert(obs.Price, h.threshold)
	if alert {
		glog.Infof("handler: %s is below threshold %s", obs.Price.StringFixed(2), h.threshold.StringFixed(2))
	}

	if h.publisher != nil {
		event := models.PriceEvent{RunID: runID, Timestamp: obs.Timestamp, Price: obs.Price, Alert: alert}
		if err := h.publisher.Publish(ctx, event); err != nil {
			glog.Warningf("handler: publish: %v", err)
		}
	}

	h.notifier.Notify(ctx, obs.Price, alert)
	return alert
}
