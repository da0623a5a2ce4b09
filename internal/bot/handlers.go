package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storebot/internal/liqpay"
	"storebot/internal/models"
	"storebot/internal/store"
	"storebot/internal/util"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	cartButton     = "🛒 Cart"
	productsButton = "📦 Products"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.handleStart(ctx, msg)
	case msg.IsCommand() && msg.Command() == "products":
		b.sendProducts(ctx, msg.Chat.ID)
	case msg.Text == productsButton:
		b.sendProducts(ctx, msg.Chat.ID)
	case msg.Text == cartButton:
		b.showCart(ctx, msg.Chat.ID)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	username := msg.From.UserName
	if username == "" {
		username = "Unknown"
	}

	user, err := b.store.UpsertUser(ctx, msg.From.ID, username)
	if err != nil {
		b.logger.Error("Failed to upsert user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		return
	}

	greeting := tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("Hi, %s! 👋\nI can help you buy our products. Here is what we have:", user.Username))
	greeting.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(cartButton),
			tgbotapi.NewKeyboardButton(productsButton),
		),
	)
	if _, err := b.api.Send(greeting); err != nil {
		b.logger.Error("Failed to send greeting", zap.Error(err))
		return
	}

	b.sendProducts(ctx, msg.Chat.ID)
}

// sendProducts sends one message per product with its variant buttons
func (b *Bot) sendProducts(ctx context.Context, chatID int64) {
	products, err := b.store.GetProducts(ctx)
	if err != nil {
		b.logger.Error("Failed to load products", zap.Error(err))
		return
	}

	if len(products) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "No products available right now."))
		return
	}

	for _, product := range products {
		text := fmt.Sprintf("🛒 <b>%s</b>\n\n%s\n💰 Price: %s UAH",
			product.Name, product.Description, product.Price.StringFixed(2))
		keyboard := variantsKeyboard(product)

		if product.PhotoURL.Valid {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(product.PhotoURL.String))
			photo.Caption = text
			photo.ParseMode = tgbotapi.ModeHTML
			photo.ReplyMarkup = keyboard
			b.send(photo)
		} else {
			msg := tgbotapi.NewMessage(chatID, text)
			msg.ParseMode = tgbotapi.ModeHTML
			msg.ReplyMarkup = keyboard
			b.send(msg)
		}
	}
}

// variantsKeyboard builds one inline button per variant label
func variantsKeyboard(product models.Product) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(product.Variants))
	for _, variant := range product.Variants {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			variant, fmt.Sprintf("variant_%d_%s", product.ID, variant)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if !strings.HasPrefix(query.Data, "variant_") {
		return
	}

	parts := strings.SplitN(query.Data, "_", 3)
	if len(parts) != 3 {
		return
	}
	productID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return
	}
	variant := parts[2]

	line, err := b.store.AddOrIncrement(ctx, query.From.ID, productID, variant)
	if err != nil {
		text := "Something went wrong, try again"
		if errors.Is(err, store.ErrNotFound) {
			text = "❌ Product not found"
		}
		b.logger.Error("Failed to add cart line",
			zap.Int64("user_id", query.From.ID),
			zap.Int64("product_id", productID),
			zap.Error(err))
		b.answerCallback(query.ID, text)
		return
	}

	util.CartLinesAddedTotal.Inc()
	b.answerCallback(query.ID, fmt.Sprintf("✅ %s (%s) added to cart!", line.ProductName, line.Variant))
}

// showCart renders the cart, generates a signed checkout link for its
// current total, and remembers the prompt message so the reconciler can
// retract it after payment.
func (b *Bot) showCart(ctx context.Context, userID int64) {
	lines, err := b.store.GetCartLines(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to load cart", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	if len(lines) == 0 {
		b.send(tgbotapi.NewMessage(userID, "🛒 Your cart is empty"))
		return
	}

	total, snapshots := models.PriceCart(lines)

	var text strings.Builder
	text.WriteString("🛒 <b>Your cart:</b>\n\n")
	for _, item := range snapshots {
		fmt.Fprintf(&text, "%s (%s) x%d\n💰 %s UAH\n\n",
			item.Name, item.Variant, item.Quantity, item.Total.StringFixed(2))
	}
	fmt.Fprintf(&text, "<b>Total:</b> %s UAH", total.StringFixed(2))

	correlationID := liqpay.CartRefID(userID, time.Now().Unix())
	link, err := b.liqpay.CheckoutLink(total, correlationID, "Cart payment")
	if err != nil {
		b.logger.Error("Failed to build checkout link",
			zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	msg := tgbotapi.NewMessage(userID, text.String())
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💳 Pay", link),
		),
	)

	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("Failed to send cart", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	if err := b.store.SetCartMessageID(ctx, userID, int64(sent.MessageID)); err != nil {
		b.logger.Error("Failed to record cart message id",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}
