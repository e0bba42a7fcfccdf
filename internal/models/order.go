package models

type OrderItem struct {
	ServiceID    string `json:"service_id"`
	ServiceTitle string `json:"service_title"`
	Quantity     int    `json:"quantity"`
	PriceCents   int64  `json:"price_cents"`
}

type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Items       []OrderItem `json:"items"`
	AmountCents int64       `json:"amount_cents"`
	Status      string      `json:"status"`
}

// ShortID returns the last six characters of the order id, for display only.
func (o Order) ShortID() string {
	return ShortRef(o.ID)
}

// CheckoutRequest is the body of POST /checkout.
type CheckoutRequest struct {
	UserID string      `json:"user_id"`
	Items  []OrderItem `json:"items"`
}

// Confirmation is what a completed booking keeps for display.
type Confirmation struct {
	OrderID     string `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
}

func (c Confirmation) ShortID() string {
	return ShortRef(c.OrderID)
}

// ShortRef keeps the trailing six runes of id. Uniqueness is not implied.
func ShortRef(id string) string {
	r := []rune(id)
	if len(r) <= 6 {
		return id
	}
	return string(r[len(r)-6:])
}
