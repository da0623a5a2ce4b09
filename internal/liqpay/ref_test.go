package liqpay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Ref
	}{
		{
			name: "order reference",
			raw:  "order_17",
			want: Ref{Kind: OrderRef, OrderID: 17, Raw: "order_17"},
		},
		{
			name: "cart reference",
			raw:  "cart_42_1700000000",
			want: Ref{Kind: CartRef, UserID: 42, IssuedAt: 1700000000, Raw: "cart_42_1700000000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRef(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRefRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"order_",
		"order_abc",
		"cart_42",
		"cart_42_abc",
		"cart_x_1700000000",
		"invoice_17",
		"order_17_extra",
	} {
		_, err := ParseRef(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestRefFormattersRoundTrip(t *testing.T) {
	orderRef, err := ParseRef(OrderRefID(17))
	require.NoError(t, err)
	assert.Equal(t, int64(17), orderRef.OrderID)

	cartRef, err := ParseRef(CartRefID(42, 1700000000))
	require.NoError(t, err)
	assert.Equal(t, int64(42), cartRef.UserID)
	assert.Equal(t, int64(1700000000), cartRef.IssuedAt)
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		gateway string
		want    string
	}{
		{"success", "paid"},
		{"sandbox", "paid"},
		{"failure", "failed"},
		{"error", "failed"},
		{"limit", "failed"},
		{"9859", "failed"},
		{"wait_secure", "wait_secure"},
		{"reversed", "reversed"},
		{"SUCCESS", "SUCCESS"}, // mapping is case-sensitive
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapStatus(tt.gateway), "status %q", tt.gateway)
	}
}
