package service

import (
	"context"
	"fmt"
	"strings"

	"storebot/internal/models"
	"storebot/internal/util"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramSender is the slice of the Telegram API the notifier uses.
// *tgbotapi.BotAPI satisfies it.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ChatNotifier delivers reconciliation outcomes to the user and retracts
// stale payment prompts. Notification failures are logged, never propagated:
// an already-committed order must not be rolled back because a chat send
// failed.
type ChatNotifier struct {
	api    TelegramSender
	logger *zap.Logger
}

// NewChatNotifier creates a notifier backed by the Telegram API
func NewChatNotifier(api TelegramSender) *ChatNotifier {
	return &ChatNotifier{
		api:    api,
		logger: util.GetLogger(),
	}
}

// Notify implements the Notifier contract
func (n *ChatNotifier) Notify(ctx context.Context, userID int64, status string, order *models.Order, staleMessageID int64) {
	if staleMessageID != 0 {
		if _, err := n.api.Request(tgbotapi.NewDeleteMessage(userID, int(staleMessageID))); err != nil {
			util.NotificationFailuresTotal.WithLabelValues("retract").Inc()
			n.logger.Warn("Failed to retract payment prompt",
				zap.Int64("user_id", userID),
				zap.Int64("message_id", staleMessageID),
				zap.Error(err))
		}
	}

	var text string
	switch status {
	case models.OrderStatusPaid:
		text = receiptText(order)
	case models.OrderStatusFailed:
		text = "❌ Payment failed. Your cart is untouched — please try again."
	default:
		return
	}

	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		util.NotificationFailuresTotal.WithLabelValues("send").Inc()
		n.logger.Error("Failed to notify user",
			zap.Int64("user_id", userID),
			zap.String("status", status),
			zap.Error(err))
	}
}

// receiptText formats the paid-order receipt from the frozen line snapshots
func receiptText(order *models.Order) string {
	var b strings.Builder
	b.WriteString("✅ Payment received, thank you for your purchase!\n\n")
	b.WriteString("<b>Order details:</b>\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s (%s) x%d — %s UAH\n",
			item.Name, item.Variant, item.Quantity, item.Total.StringFixed(2))
	}
	fmt.Fprintf(&b, "\n<b>Total:</b> %s UAH\n", order.TotalPrice.StringFixed(2))
	fmt.Fprintf(&b, "<b>Date:</b> %s", order.CreatedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}
