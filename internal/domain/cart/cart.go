package cart

import "time"

// Item is one product line the visitor intends to buy. UnitPriceSnapshot is
// informational only; authoritative prices are resolved again at checkout.
type Item struct {
	ProductID         string `json:"product_id"`
	Quantity          int    `json:"quantity"`
	UnitPriceSnapshot int64  `json:"unit_price_snapshot"`
}

// Cart holds a visitor's intended purchases. All mutations are pure local
// state changes; persistence lives in the store layer.
type Cart struct {
	VisitorID string    `json:"visitor_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(visitorID string) *Cart {
	return &Cart{VisitorID: visitorID, Items: []Item{}, UpdatedAt: time.Now()}
}

// AddItem merges with an existing line (summing quantity) or appends a new
// one. A non-positive quantity is treated as 1.
func (c *Cart) AddItem(productID string, quantity int, unitPriceSnapshot int64) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.Items[i].UnitPriceSnapshot = unitPriceSnapshot
			c.touch()
			return
		}
	}
	c.Items = append(c.Items, Item{
		ProductID:         productID,
		Quantity:          quantity,
		UnitPriceSnapshot: unitPriceSnapshot,
	})
	c.touch()
}

// UpdateQuantity sets the quantity for a line. Zero or negative removes the
// line; a line with quantity 0 is never retained.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			c.touch()
			return
		}
	}
}

func (c *Cart) RemoveItem(productID string) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.touch()
			return
		}
	}
}

// Clear empties all lines. Callers must only invoke this after a confirmed
// checkout completion, never speculatively before payment is observed.
func (c *Cart) Clear() {
	c.Items = []Item{}
	c.touch()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
