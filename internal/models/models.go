package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// User represents a bot user, keyed by their Telegram chat id
type User struct {
	TgID      int64     `db:"tg_id" json:"tg_id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product represents a product in the catalog. Products are managed
// externally; the bot only reads them.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Variants    VariantList     `db:"variants" json:"variants"`
	PhotoURL    sql.NullString  `db:"photo_url" json:"photo_url,omitempty"`
}

// VariantList is the ordered set of variant labels stored as a JSON column
type VariantList []string

// Value implements driver.Valuer
func (v VariantList) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan implements sql.Scanner
func (v *VariantList) Scan(src interface{}) error {
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	case nil:
		*v = nil
		return nil
	default:
		return fmt.Errorf("unsupported variants column type %T", src)
	}
}

// CartLine represents one (user, product, variant) line of a shopping cart.
// At most one line exists per triple; repeated adds bump the quantity.
// MessageID references the last chat message that displayed this cart, so a
// stale payment prompt can be retracted after reconciliation.
type CartLine struct {
	ID        int64         `db:"id" json:"id"`
	UserID    int64         `db:"user_id" json:"user_id"`
	ProductID int64         `db:"product_id" json:"product_id"`
	Variant   string        `db:"variant" json:"variant"`
	Quantity  int           `db:"quantity" json:"quantity"`
	MessageID sql.NullInt64 `db:"message_id" json:"message_id,omitempty"`

	// joined from products
	ProductName  string          `db:"product_name" json:"product_name"`
	ProductPrice decimal.Decimal `db:"product_price" json:"product_price"`
}

// Order represents a committed purchase. The total and line snapshots are
// frozen at reconciliation time and never recomputed from live product rows.
type Order struct {
	ID         int64           `db:"id" json:"id"`
	UserID     int64           `db:"user_id" json:"user_id"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	Items      LineSnapshots   `db:"items" json:"items"`
	Status     string          `db:"status" json:"status"`
	MessageID  sql.NullInt64   `db:"message_id" json:"message_id,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// LineSnapshot is an embedded, immutable copy of a cart line taken at
// order-creation time. Historic orders survive product edits and deletes.
type LineSnapshot struct {
	Name      string          `json:"name"`
	Variant   string          `json:"variant"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// LineSnapshots is stored as a JSONB column on orders
type LineSnapshots []LineSnapshot

// Value implements driver.Valuer
func (l LineSnapshots) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *LineSnapshots) Scan(src interface{}) error {
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, l)
	case string:
		return json.Unmarshal([]byte(data), l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("unsupported items column type %T", src)
	}
}

// Order statuses. Statuses outside the known set are stored verbatim as
// reported by the gateway.
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"
)

// TerminalStatus reports whether a status ends the order lifecycle. A
// terminal order must never be re-transitioned by a later callback.
func TerminalStatus(status string) bool {
	return status == OrderStatusPaid || status == OrderStatusFailed
}

// PriceCart computes the total price of a cart and freezes per-line
// snapshots. Pure computation: prices are captured at the instant of call.
func PriceCart(lines []CartLine) (decimal.Decimal, LineSnapshots) {
	total := decimal.Zero
	snapshots := make(LineSnapshots, 0, len(lines))

	for _, line := range lines {
		lineTotal := line.ProductPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		snapshots = append(snapshots, LineSnapshot{
			Name:      line.ProductName,
			Variant:   line.Variant,
			Quantity:  line.Quantity,
			UnitPrice: line.ProductPrice,
			Total:     lineTotal,
		})
	}

	return total, snapshots
}
