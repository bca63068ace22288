package models

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderPaid       OrderStatus = "paid"
)

type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	TableID     uint        `gorm:"not null;index" json:"table_id"`
	Table       Table       `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table"`
	CustomerID  *uint       `gorm:"index" json:"customer_id,omitempty"`
	Customer    *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalAmount float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	OrderItems  []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
	CreatedAt   time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updated_at"`
}

// orderTransitions: pending -> in_progress -> completed -> paid (linear),
// cancelled hanya bisa dicapai dari pending atau in_progress.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderInProgress, OrderCancelled},
	OrderInProgress: {OrderCompleted, OrderCancelled},
	OrderCompleted:  {OrderPaid},
	OrderCancelled:  {},
	OrderPaid:       {},
}

// CanTransitionTo -> cek legalitas transisi status order
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	for _, s := range orderTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal -> order cancelled/paid tidak lagi mengklaim meja
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCancelled || s == OrderPaid
}

// CalculateTotal menjumlahkan subtotal semua item
func (o *Order) CalculateTotal() float64 {
	var total float64
	for _, item := range o.OrderItems {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
