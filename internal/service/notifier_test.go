package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storebot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent       []tgbotapi.Chattable
	requests   []tgbotapi.Chattable
	sendErr    error
	requestErr error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 1}, f.sendErr
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func paidOrder() *models.Order {
	return &models.Order{
		ID:         17,
		UserID:     42,
		Status:     models.OrderStatusPaid,
		TotalPrice: decimal.RequireFromString("250.00"),
		Items: models.LineSnapshots{
			{Name: "T-Shirt", Variant: "L", Quantity: 2,
				UnitPrice: decimal.RequireFromString("100.00"),
				Total:     decimal.RequireFromString("200.00")},
			{Name: "T-Shirt", Variant: "M", Quantity: 1,
				UnitPrice: decimal.RequireFromString("50.00"),
				Total:     decimal.RequireFromString("50.00")},
		},
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifyPaidSendsReceipt(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewChatNotifier(sender)

	notifier.Notify(context.Background(), 42, models.OrderStatusPaid, paidOrder(), 0)

	require.Len(t, sender.sent, 1)
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)

	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "T-Shirt (L) x2")
	assert.Contains(t, msg.Text, "T-Shirt (M) x1")
	assert.Contains(t, msg.Text, "250.00 UAH")
	assert.Contains(t, msg.Text, "2024-03-01 12:00:00")
}

func TestNotifyRetractsStalePrompt(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewChatNotifier(sender)

	notifier.Notify(context.Background(), 42, models.OrderStatusPaid, paidOrder(), 99)

	require.Len(t, sender.requests, 1)
	del, ok := sender.requests[0].(tgbotapi.DeleteMessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), del.ChatID)
	assert.Equal(t, 99, del.MessageID)

	assert.Len(t, sender.sent, 1, "receipt still sent after retraction")
}

func TestNotifyRetractionFailureIsNonFatal(t *testing.T) {
	sender := &fakeSender{requestErr: errors.New("message to delete not found")}
	notifier := NewChatNotifier(sender)

	notifier.Notify(context.Background(), 42, models.OrderStatusPaid, paidOrder(), 99)

	assert.Len(t, sender.sent, 1, "receipt sent despite failed retraction")
}

func TestNotifyFailedSendsRetryNotice(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewChatNotifier(sender)

	notifier.Notify(context.Background(), 42, models.OrderStatusFailed, nil, 0)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0].(tgbotapi.MessageConfig)
	assert.Contains(t, msg.Text, "try again")
}

func TestNotifyIntermediateStatusIsSilent(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewChatNotifier(sender)

	notifier.Notify(context.Background(), 42, "wait_secure", nil, 0)

	assert.Empty(t, sender.sent)
	assert.Empty(t, sender.requests)
}
