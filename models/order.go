package models

import "time"

// ServiceFee is the fixed surcharge added to every order total.
const ServiceFee = 15.00

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// transitions is the closed state machine for Order.Status.
// cancelled and completed are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

type Order struct {
	OrderID             uint        `json:"order_id" gorm:"primaryKey"`
	UserID              string      `json:"user_id" gorm:"index;size:20;not null"`
	Total               float64     `json:"total" gorm:"type:numeric(10,2);not null"`
	Status              OrderStatus `json:"status" gorm:"size:20;not null;default:pending"`
	ItemsSummary        string      `json:"items_summary" gorm:"type:text"`
	SpecialInstructions string      `json:"special_instructions" gorm:"type:text"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// OrderItem snapshots the unit price at order time; later menu price
// changes never touch historical orders.
type OrderItem struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	OrderID  uint    `json:"order_id" gorm:"index;not null"`
	ItemID   uint    `json:"item_id" gorm:"not null"`
	Quantity int     `json:"quantity" gorm:"not null"`
	Price    float64 `json:"price" gorm:"type:numeric(10,2);not null"`
}

// OrderStatusLog is the append-only audit trail: one row at creation
// and one per status change. ChangedBy is a weak reference by id only.
type OrderStatusLog struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"index;not null"`
	Status     OrderStatus `json:"status" gorm:"size:20;not null"`
	ChangedBy  string      `json:"changed_by" gorm:"size:20"`
	Notes      string      `json:"notes" gorm:"type:text"`
	ChangeDate time.Time   `json:"change_date" gorm:"autoCreateTime"`
}

// CancelOutcome classifies a customer cancellation attempt.
type CancelOutcome int

const (
	CancelOK CancelOutcome = iota
	CancelNotPending
	CancelWindowExpired
)

// CancelCheck applies the customer cancellation rules: only pending
// orders, and only while the order is at most window old. Ownership is
// enforced by the caller's query.
func CancelCheck(status OrderStatus, createdAt, now time.Time, window time.Duration) CancelOutcome {
	if status != StatusPending {
		return CancelNotPending
	}
	if now.Sub(createdAt) > window {
		return CancelWindowExpired
	}
	return CancelOK
}

// PricedLine is one (item, quantity) pair with the server-side unit
// price already resolved.
type PricedLine struct {
	ItemID   uint
	Name     string
	Quantity int
	Price    float64
}

// OrderTotal computes Σ(price × quantity) plus the service fee.
// Client-supplied prices never reach this function.
func OrderTotal(lines []PricedLine) float64 {
	total := ServiceFee
	for _, l := range lines {
		total += l.Price * float64(l.Quantity)
	}
	return total
}
