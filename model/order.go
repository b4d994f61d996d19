package model

import "time"

// OrderStatus is the lifecycle status of a customer order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderContacted  OrderStatus = "contacted"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderContacted, OrderConfirmed, OrderProcessing,
	OrderShipped, OrderDelivered, OrderCancelled, OrderRefunded,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// PaymentMethod is how the customer chose to pay.
type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "cod"
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetbanking PaymentMethod = "netbanking"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentUPI, PaymentNetbanking:
		return true
	}
	return false
}

// PaymentStatus is the payment sub-record lifecycle, independent of the
// order status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// ContactMethod is the channel used for a customer-outreach event.
type ContactMethod string

const (
	ContactWhatsApp ContactMethod = "whatsapp"
	ContactPhone    ContactMethod = "phone"
	ContactEmail    ContactMethod = "email"
	ContactSMS      ContactMethod = "sms"
	ContactInPerson ContactMethod = "in_person"
)

// Valid reports whether m is a known contact method.
func (m ContactMethod) Valid() bool {
	switch m {
	case ContactWhatsApp, ContactPhone, ContactEmail, ContactSMS, ContactInPerson:
		return true
	}
	return false
}

// Customer is the customer snapshot captured at order time. It is not a live
// reference to a user profile.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Message string `json:"message,omitempty"`
}

// OrderItem is one line item. Name, price, and artisan fields are snapshots
// taken when the order was placed. Monetary values are in paise.
type OrderItem struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	ArtisanID   string `json:"artisan_id"`
	ArtisanName string `json:"artisan_name"`
	Image       string `json:"image,omitempty"`
}

// Payment is the payment sub-record attached to an order.
type Payment struct {
	Method PaymentMethod `json:"method"`
	Status PaymentStatus `json:"status"`
}

// StatusChange is one append-only status-history entry. One entry is recorded
// per transition, oldest first.
type StatusChange struct {
	Status OrderStatus `json:"status"`
	At     time.Time   `json:"at"`
	Actor  string      `json:"actor"`
	Reason string      `json:"reason,omitempty"`
	Notes  string      `json:"notes,omitempty"`
}

// ContactEntry is one append-only customer-outreach record, independent of
// the status history.
type ContactEntry struct {
	Method ContactMethod `json:"method"`
	Notes  string        `json:"notes,omitempty"`
	At     time.Time     `json:"at"`
	Actor  string        `json:"actor"`
}

// Order is a customer order. Orders are created when a customer expresses
// interest, mutated only through the workflow engine, and never deleted;
// cancellation and refund are terminal statuses, not deletions.
// All monetary fields are in paise.
type Order struct {
	ID          string         `json:"id"`
	OrderNumber string         `json:"order_number"`
	Status      OrderStatus    `json:"status"`
	Customer    Customer       `json:"customer"`
	Items       []OrderItem    `json:"items"`
	Subtotal    int64          `json:"subtotal"`
	Tax         int64          `json:"tax"`
	Discount    int64          `json:"discount"`
	Shipping    int64          `json:"shipping"`
	Total       int64          `json:"total"`
	Payment     Payment        `json:"payment"`
	History     []StatusChange `json:"history"`
	Contacts    []ContactEntry `json:"contacts"`
	Version     int64          `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TotalsValid reports whether the money invariant
// total = subtotal + tax + shipping - discount holds.
func (o *Order) TotalsValid() bool {
	return o.Total == o.Subtotal+o.Tax+o.Shipping-o.Discount
}
