package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storebot/internal/liqpay"
	"storebot/internal/models"
	"storebot/internal/store"
	"storebot/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is the durability boundary the reconciler depends on
type Repository interface {
	CreatePaidOrderFromCart(ctx context.Context, correlationID string, userID int64) (*models.Order, error)
	MarkOrderStatus(ctx context.Context, correlationID string, orderID int64, status string) (*models.Order, error)
	GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
}

// Locker serializes reconciliation per user so a callback cannot race a
// concurrent checkout over the same cart
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// Notifier informs the user of the reconciliation outcome
type Notifier interface {
	Notify(ctx context.Context, userID int64, status string, order *models.Order, staleMessageID int64)
}

// EventPublisher publishes reconciliation events for downstream consumers
type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderFailed(ctx context.Context, event *models.OrderFailedEvent) error
}

// userLockTTL bounds how long a crashed reconciliation can hold its lock.
// The lock covers only the database commit, never the chat sends.
const userLockTTL = 10 * time.Second

// Reconciler converts gateway-reported payment statuses into durable order
// state changes plus user notification. It is invoked concurrently by
// inbound callback requests and must stay safely re-entrant: the gateway
// retries on any non-2xx response.
type Reconciler struct {
	codec     *liqpay.Codec
	repo      Repository
	locker    Locker
	notifier  Notifier
	publisher EventPublisher
	logger    *zap.Logger
}

// NewReconciler creates a reconciler with its collaborators injected
func NewReconciler(codec *liqpay.Codec, repo Repository, locker Locker, notifier Notifier, publisher EventPublisher) *Reconciler {
	return &Reconciler{
		codec:     codec,
		repo:      repo,
		locker:    locker,
		notifier:  notifier,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// HandleCallback processes one inbound gateway callback. data is the base64
// JSON payload, signature its gateway-computed digest. Errors map onto the
// taxonomy in errors.go; anything else is transient and retried by the
// gateway.
func (r *Reconciler) HandleCallback(ctx context.Context, data, signature string) error {
	ctx, span := util.StartSpan(ctx, "Reconciler.HandleCallback")
	defer span.End()

	if data == "" || signature == "" {
		return fmt.Errorf("missing data or signature: %w", ErrBadRequest)
	}

	if !r.codec.Verify(data, signature) {
		r.logger.Warn("Callback signature mismatch")
		return fmt.Errorf("signature verification failed: %w", ErrForbidden)
	}

	payload, err := liqpay.DecodeCallback(data)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrBadRequest)
	}

	ref, err := liqpay.ParseRef(payload.OrderID)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrBadRequest)
	}

	status := liqpay.MapStatus(payload.Status)
	r.logger.Info("Processing payment callback",
		zap.String("correlation_id", ref.Raw),
		zap.String("gateway_status", payload.Status),
		zap.String("status", status))

	switch ref.Kind {
	case liqpay.CartRef:
		return r.reconcileCart(ctx, ref, status, payload.Status)
	default:
		return r.reconcileOrder(ctx, ref, status, payload.Status)
	}
}

// reconcileCart handles cart-derived correlation ids: no order exists yet,
// so a paid callback is order-creation time.
func (r *Reconciler) reconcileCart(ctx context.Context, ref liqpay.Ref, status, gatewayStatus string) error {
	if status != models.OrderStatusPaid {
		if status == models.OrderStatusFailed {
			staleMessageID := r.cartMessageID(ctx, ref.UserID)
			r.notifier.Notify(ctx, ref.UserID, models.OrderStatusFailed, nil, staleMessageID)
			r.publishFailed(ctx, ref, ref.UserID, 0, gatewayStatus)
			util.OrdersFailedTotal.WithLabelValues("gateway_declined").Inc()
			return nil
		}
		// Intermediate gateway status with no order to record it on
		r.logger.Info("Ignoring non-terminal status for cart reference",
			zap.String("correlation_id", ref.Raw),
			zap.String("status", status))
		return nil
	}

	lockKey := fmt.Sprintf("reconcile:user:%d", ref.UserID)
	token, ok, err := r.locker.AcquireLock(ctx, lockKey, userLockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire user lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("reconciliation for user %d already in progress", ref.UserID)
	}

	order, err := r.repo.CreatePaidOrderFromCart(ctx, ref.Raw, ref.UserID)

	// Release before any chat send: the lock scopes the database commit only
	if relErr := r.locker.ReleaseLock(ctx, lockKey, token); relErr != nil {
		r.logger.Warn("Failed to release user lock", zap.Error(relErr))
	}

	if err != nil {
		return r.mapRepoError(ref.Raw, err)
	}

	util.OrdersPaidTotal.Inc()
	r.logger.Info("Cart reconciled into order",
		zap.String("correlation_id", ref.Raw),
		zap.Int64("order_id", order.ID),
		zap.String("total", order.TotalPrice.String()))

	r.notifier.Notify(ctx, ref.UserID, models.OrderStatusPaid, order, order.MessageID.Int64)
	r.publishPaid(ctx, ref, order)
	return nil
}

// reconcileOrder handles order-derived correlation ids: the order already
// exists, only its status moves. The cart was cleared when the order was
// created, so there is no cart mutation here.
func (r *Reconciler) reconcileOrder(ctx context.Context, ref liqpay.Ref, status, gatewayStatus string) error {
	order, err := r.repo.MarkOrderStatus(ctx, ref.Raw, ref.OrderID, status)
	if err != nil {
		return r.mapRepoError(ref.Raw, err)
	}

	switch status {
	case models.OrderStatusPaid:
		util.OrdersPaidTotal.Inc()
		r.notifier.Notify(ctx, order.UserID, status, order, order.MessageID.Int64)
		r.publishPaid(ctx, ref, order)
	case models.OrderStatusFailed:
		util.OrdersFailedTotal.WithLabelValues("gateway_declined").Inc()
		r.notifier.Notify(ctx, order.UserID, status, order, order.MessageID.Int64)
		r.publishFailed(ctx, ref, order.UserID, order.ID, gatewayStatus)
	default:
		// Intermediate status stored verbatim, no user-facing message
		r.logger.Info("Order status passed through",
			zap.Int64("order_id", order.ID),
			zap.String("status", status))
	}
	return nil
}

// mapRepoError translates store sentinels into the callback taxonomy. The
// repository reports sentinels via errors.Is-compatible wrapping.
func (r *Reconciler) mapRepoError(correlationID string, err error) error {
	switch {
	case errors.Is(err, store.ErrAlreadyReconciled):
		r.logger.Info("Duplicate callback ignored", zap.String("correlation_id", correlationID))
		return fmt.Errorf("%v: %w", err, ErrConflict)
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	default:
		return err
	}
}

// cartMessageID fetches the stale payment-prompt message id for a user's
// cart, if any. Best effort: a failure here only costs the retraction.
func (r *Reconciler) cartMessageID(ctx context.Context, userID int64) int64 {
	lines, err := r.repo.GetCartLines(ctx, userID)
	if err != nil || len(lines) == 0 {
		return 0
	}
	return lines[0].MessageID.Int64
}

func (r *Reconciler) publishPaid(ctx context.Context, ref liqpay.Ref, order *models.Order) {
	event := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPaid,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		UserID:        order.UserID,
		CorrelationID: ref.Raw,
		TotalPrice:    order.TotalPrice,
		Items:         order.Items,
	}
	if err := r.publisher.PublishOrderPaid(ctx, event); err != nil {
		r.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
	}
}

func (r *Reconciler) publishFailed(ctx context.Context, ref liqpay.Ref, userID, orderID int64, gatewayStatus string) {
	event := &models.OrderFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderFailed,
			Timestamp: time.Now(),
		},
		OrderID:       orderID,
		UserID:        userID,
		CorrelationID: ref.Raw,
		GatewayStatus: gatewayStatus,
	}
	if err := r.publisher.PublishOrderFailed(ctx, event); err != nil {
		r.logger.Error("Failed to publish OrderFailed event", zap.Error(err))
	}
}
