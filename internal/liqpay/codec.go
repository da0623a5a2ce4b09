package liqpay

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Codec signs and authenticates payloads exchanged with the LiqPay gateway.
//
// The scheme is base64(SHA1(private_key || data || private_key)). It is the
// gateway's legacy construction, not a real HMAC (RFC 2104): the secret is
// affixed rather than used as a MAC key. It must be reproduced bit-for-bit
// for interop, so it is isolated here behind the Codec type.
type Codec struct {
	privateKey string
}

// NewCodec creates a codec bound to the gateway private key
func NewCodec(privateKey string) *Codec {
	return &Codec{privateKey: privateKey}
}

// Sign computes the signature for an already-encoded payload
func (c *Codec) Sign(data string) string {
	digest := sha1.Sum([]byte(c.privateKey + data + c.privateKey))
	return base64.StdEncoding.EncodeToString(digest[:])
}

// Verify recomputes the signature for the received encoded payload and
// compares it in constant time against the received signature.
func (c *Codec) Verify(data, signature string) bool {
	expected := c.Sign(data)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// EncodePayload serializes a payload to the base64 JSON the gateway expects
// and signs it.
func (c *Codec) EncodePayload(payload interface{}) (data, signature string, err error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	data = base64.StdEncoding.EncodeToString(raw)
	return data, c.Sign(data), nil
}

// CallbackPayload is the subset of the gateway callback body the reconciler
// needs. Remaining gateway fields are ignored.
type CallbackPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// DecodeCallback decodes the base64 JSON body of a gateway callback.
// Signature verification is the caller's job; decoding does not authenticate.
func DecodeCallback(data string) (*CallbackPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode callback data: %w", err)
	}

	var payload CallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal callback data: %w", err)
	}
	return &payload, nil
}
