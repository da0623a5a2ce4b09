package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceCart(t *testing.T) {
	lines := []CartLine{
		{ProductName: "T-Shirt", Variant: "L", Quantity: 2, ProductPrice: decimal.RequireFromString("100.00")},
		{ProductName: "T-Shirt", Variant: "M", Quantity: 1, ProductPrice: decimal.RequireFromString("50.00")},
	}

	total, snapshots := PriceCart(lines)

	assert.True(t, total.Equal(decimal.RequireFromString("250.00")), "total = %s", total)
	require.Len(t, snapshots, 2)

	assert.Equal(t, "T-Shirt", snapshots[0].Name)
	assert.Equal(t, "L", snapshots[0].Variant)
	assert.Equal(t, 2, snapshots[0].Quantity)
	assert.True(t, snapshots[0].Total.Equal(decimal.RequireFromString("200.00")))
	assert.True(t, snapshots[1].Total.Equal(decimal.RequireFromString("50.00")))
}

func TestPriceCartTotalEqualsSumOfLineTotals(t *testing.T) {
	lines := []CartLine{
		{ProductName: "A", Variant: "1", Quantity: 3, ProductPrice: decimal.RequireFromString("33.33")},
		{ProductName: "B", Variant: "2", Quantity: 1, ProductPrice: decimal.RequireFromString("0.01")},
		{ProductName: "C", Variant: "3", Quantity: 7, ProductPrice: decimal.RequireFromString("19.90")},
	}

	total, snapshots := PriceCart(lines)

	sum := decimal.Zero
	for _, snapshot := range snapshots {
		sum = sum.Add(snapshot.Total)
	}
	assert.True(t, total.Equal(sum))
}

func TestPriceCartSnapshotsAreFrozen(t *testing.T) {
	lines := []CartLine{
		{ProductName: "Mug", Variant: "red", Quantity: 1, ProductPrice: decimal.RequireFromString("80.00")},
	}

	_, snapshots := PriceCart(lines)

	// a later product edit must not leak into an existing snapshot
	lines[0].ProductPrice = decimal.RequireFromString("999.00")
	lines[0].ProductName = "Renamed"

	assert.Equal(t, "Mug", snapshots[0].Name)
	assert.True(t, snapshots[0].UnitPrice.Equal(decimal.RequireFromString("80.00")))
}

func TestPriceCartEmpty(t *testing.T) {
	total, snapshots := PriceCart(nil)
	assert.True(t, total.IsZero())
	assert.Empty(t, snapshots)
}

func TestLineSnapshotsSQLRoundTrip(t *testing.T) {
	snapshots := LineSnapshots{
		{Name: "T-Shirt", Variant: "L", Quantity: 2,
			UnitPrice: decimal.RequireFromString("100.00"),
			Total:     decimal.RequireFromString("200.00")},
	}

	value, err := snapshots.Value()
	require.NoError(t, err)

	var decoded LineSnapshots
	require.NoError(t, decoded.Scan(value))
	require.Len(t, decoded, 1)
	assert.Equal(t, "T-Shirt", decoded[0].Name)
	assert.True(t, decoded[0].Total.Equal(snapshots[0].Total))
}

func TestVariantListScan(t *testing.T) {
	raw, err := json.Marshal([]string{"S", "M", "L"})
	require.NoError(t, err)

	var variants VariantList
	require.NoError(t, variants.Scan(raw))
	assert.Equal(t, VariantList{"S", "M", "L"}, variants)
}

func TestTerminalStatus(t *testing.T) {
	assert.True(t, TerminalStatus(OrderStatusPaid))
	assert.True(t, TerminalStatus(OrderStatusFailed))
	assert.False(t, TerminalStatus(OrderStatusPending))
	assert.False(t, TerminalStatus("wait_secure"))
}
