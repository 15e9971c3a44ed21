// Package events announces habit changes on the message bus. Delivery is
// best effort: failures are logged and counted, never returned.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	mqcontracts "habitkeeper/contracts/mq"
	"habitkeeper/internal/model"
	"habitkeeper/pkg/circuitbreaker"
	"habitkeeper/pkg/metrics"
	"habitkeeper/pkg/trace"
)

const publishTimeout = 2 * time.Second

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type Notifier struct {
	pub     Publisher
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewNotifier accepts a nil publisher, in which case every event is
// dropped as "skipped".
func NewNotifier(pub Publisher, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Notifier {
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig())
	}
	return &Notifier{
		pub:     pub,
		breaker: breaker,
		logger:  logger,
	}
}

func (n *Notifier) HabitCreated(ctx context.Context, h model.Habit) {
	n.publish(ctx, mqcontracts.RoutingHabitCreated, mqcontracts.HabitCreatedPayload{
		HabitID:    h.ID,
		Title:      h.Title,
		Frequency:  string(h.Frequency),
		TargetDays: h.TargetDays,
		Urgency:    h.Urgency,
		CreatedAt:  h.CreatedAt,
		TraceID:    trace.FromContext(ctx),
	})
}

func (n *Notifier) CompletionToggled(ctx context.Context, h model.Habit, day string, completed bool) {
	n.publish(ctx, mqcontracts.RoutingHabitCompletionToggled, mqcontracts.HabitCompletionToggledPayload{
		HabitID:     h.ID,
		Date:        day,
		Completed:   completed,
		StreakCount: h.StreakCount,
		TraceID:     trace.FromContext(ctx),
	})
}

func (n *Notifier) HabitDeleted(ctx context.Context, id string) {
	n.publish(ctx, mqcontracts.RoutingHabitDeleted, mqcontracts.HabitDeletedPayload{
		HabitID: id,
		TraceID: trace.FromContext(ctx),
	})
}

func (n *Notifier) publish(ctx context.Context, routingKey string, payload any) {
	if n.pub == nil {
		metrics.IncrementEventPublish(routingKey, "skipped")
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := n.breaker.Execute(func() error {
		return n.pub.Publish(pubCtx, routingKey, payload)
	})
	if err != nil {
		metrics.IncrementEventPublish(routingKey, "failed")
		n.logger.Warn("Failed to publish habit event",
			zap.String("routing_key", routingKey),
			zap.String("breaker_state", n.breaker.GetState().String()),
			zap.Error(err),
		)
		return
	}

	metrics.IncrementEventPublish(routingKey, "success")
	n.logger.Debug("Habit event published", zap.String("routing_key", routingKey))
}
