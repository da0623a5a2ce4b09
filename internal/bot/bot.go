package bot

import (
	"context"

	"storebot/internal/liqpay"
	"storebot/internal/store"
	"storebot/internal/util"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot drives the Telegram chat interface: catalog browsing, add-to-cart,
// and checkout link generation. Payment reconciliation happens elsewhere,
// on the HTTP callback path.
type Bot struct {
	api    *tgbotapi.BotAPI
	store  *store.Store
	liqpay *liqpay.Client
	logger *zap.Logger
}

// New creates a bot with its collaborators injected
func New(api *tgbotapi.BotAPI, store *store.Store, liqpayClient *liqpay.Client) *Bot {
	return &Bot{
		api:    api,
		store:  store,
		liqpay: liqpayClient,
		logger: util.GetLogger(),
	}
}

// Run registers the command menu and long-polls for updates until the
// context is cancelled. Each update is handled on its own goroutine so a
// slow user does not block the rest.
func (b *Bot) Run(ctx context.Context) error {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start or restart the bot"},
		tgbotapi.BotCommand{Command: "products", Description: "List products"},
	)
	if _, err := b.api.Request(commands); err != nil {
		b.logger.Warn("Failed to set bot commands", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}
