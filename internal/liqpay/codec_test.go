package liqpay

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := NewCodec("sandbox_private_key")

	data, signature, err := codec.EncodePayload(map[string]interface{}{
		"order_id": "order_17",
		"status":   "success",
	})
	require.NoError(t, err)

	assert.True(t, codec.Verify(data, signature))
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	codec := NewCodec("sandbox_private_key")

	data, signature, err := codec.EncodePayload(map[string]string{"order_id": "order_17"})
	require.NoError(t, err)

	// flip one character of the encoded payload
	tampered := []byte(data)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}

	assert.False(t, codec.Verify(string(tampered), signature))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	codec := NewCodec("sandbox_private_key")

	data, signature, err := codec.EncodePayload(map[string]string{"order_id": "order_17"})
	require.NoError(t, err)

	tampered := []byte(signature)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}

	assert.False(t, codec.Verify(data, string(tampered)))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	signer := NewCodec("key_one")
	verifier := NewCodec("key_two")

	data, signature, err := signer.EncodePayload(map[string]string{"order_id": "order_17"})
	require.NoError(t, err)

	assert.False(t, verifier.Verify(data, signature))
}

func TestDecodeCallback(t *testing.T) {
	raw, err := json.Marshal(map[string]interface{}{
		"order_id": "cart_42_1700000000",
		"status":   "success",
		"amount":   250.00,
	})
	require.NoError(t, err)

	payload, err := DecodeCallback(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)

	assert.Equal(t, "cart_42_1700000000", payload.OrderID)
	assert.Equal(t, "success", payload.Status)
}

func TestDecodeCallbackRejectsGarbage(t *testing.T) {
	_, err := DecodeCallback("not base64!!!")
	assert.Error(t, err)

	_, err = DecodeCallback(base64.StdEncoding.EncodeToString([]byte("not json")))
	assert.Error(t, err)
}

func TestCheckoutLink(t *testing.T) {
	client := NewClient("pub_key", "priv_key", "https://shop.example.com", "https://t.me/shop_bot", true)

	total := decimal.RequireFromString("249.999")
	link, err := client.CheckoutLink(total, "cart_42_1700000000", "Cart payment")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://www.liqpay.ua/api/3/checkout?"))

	parsed, err := url.Parse(link)
	require.NoError(t, err)

	data := parsed.Query().Get("data")
	signature := parsed.Query().Get("signature")
	require.NotEmpty(t, data)
	require.NotEmpty(t, signature)

	// the emitted pair must pass our own verification
	assert.True(t, client.Codec().Verify(data, signature))

	raw, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)

	var payload checkoutRequest
	require.NoError(t, json.Unmarshal(raw, &payload))

	assert.Equal(t, 3, payload.Version)
	assert.Equal(t, "pay", payload.Action)
	assert.Equal(t, "pub_key", payload.PublicKey)
	assert.Equal(t, "UAH", payload.Currency)
	assert.Equal(t, "cart_42_1700000000", payload.OrderID)
	assert.Equal(t, 1, payload.Sandbox)
	assert.Equal(t, "https://shop.example.com/payment-callback", payload.ServerURL)
	assert.Equal(t, "https://t.me/shop_bot", payload.ResultURL)

	// signed amount is rounded to 2 decimal places
	assert.Equal(t, 250.00, payload.Amount)
}
