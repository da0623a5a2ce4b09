package liqpay

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storebot/internal/util"
)

const checkoutURL = "https://www.liqpay.ua/api/3/checkout"

// checkoutRequest is the transient payment-request envelope sent to the
// gateway. It is serialized, signed and transmitted; never stored.
type checkoutRequest struct {
	Version     int     `json:"version"`
	PublicKey   string  `json:"public_key"`
	Action      string  `json:"action"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Sandbox     int     `json:"sandbox"`
	ResultURL   string  `json:"result_url"`
	ServerURL   string  `json:"server_url"`
}

// Client builds signed checkout links for the LiqPay hosted checkout page
type Client struct {
	codec     *Codec
	publicKey string
	serverURL string
	resultURL string
	sandbox   bool
	logger    *zap.Logger
}

// NewClient creates a gateway client. serverURL is the public base URL of
// this service; the callback route is appended to it.
func NewClient(publicKey, privateKey, serverURL, resultURL string, sandbox bool) *Client {
	return &Client{
		codec:     NewCodec(privateKey),
		publicKey: publicKey,
		serverURL: serverURL,
		resultURL: resultURL,
		sandbox:   sandbox,
		logger:    util.GetLogger(),
	}
}

// Codec returns the signature codec shared with the callback verifier
func (c *Client) Codec() *Codec {
	return c.codec
}

// CheckoutLink builds a signed checkout URL for the given total. The amount
// is rounded to 2 decimal places before signing: the signed amount and the
// displayed amount must match exactly or the gateway rejects the charge.
func (c *Client) CheckoutLink(total decimal.Decimal, orderID, description string) (string, error) {
	sandbox := 0
	if c.sandbox {
		sandbox = 1
	}

	req := checkoutRequest{
		Version:     3,
		PublicKey:   c.publicKey,
		Action:      "pay",
		Amount:      total.Round(2).InexactFloat64(),
		Currency:    "UAH",
		Description: description,
		OrderID:     orderID,
		Sandbox:     sandbox,
		ResultURL:   c.resultURL,
		ServerURL:   c.serverURL + "/payment-callback",
	}

	data, signature, err := c.codec.EncodePayload(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode checkout request: %w", err)
	}

	link := fmt.Sprintf("%s?data=%s&signature=%s",
		checkoutURL, url.QueryEscape(data), url.QueryEscape(signature))

	util.PaymentLinksGeneratedTotal.Inc()
	c.logger.Info("Generated payment link",
		zap.String("order_id", orderID),
		zap.String("amount", total.Round(2).String()))

	return link, nil
}
