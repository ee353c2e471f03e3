package models

import "time"

const (
	OrderPending        = "PENDING"
	OrderConfirmed      = "CONFIRMED"
	OrderPacking        = "PACKING"
	OrderReady          = "READY"
	OrderOutForDelivery = "OUT_FOR_DELIVERY"
	OrderDelivered      = "DELIVERED"
	OrderDeliveryFailed = "DELIVERY_FAILED"
	OrderReadyForPickup = "READY_FOR_PICKUP"
	OrderPickedUp       = "PICKED_UP"
	OrderCancelled      = "CANCELLED"
)

const (
	FulfillmentDelivery = "DELIVERY"
	FulfillmentPickup   = "PICKUP"

	DeliveryExpress   = "EXPRESS"
	DeliveryScheduled = "SCHEDULED"

	PaymentCOD    = "COD"
	PaymentOnline = "ONLINE"

	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentRefunded = "REFUNDED"
)

type Order struct {
	ID              uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string      `gorm:"uniqueIndex;not null"     json:"order_number"`
	StoreID         uint        `gorm:"index;not null"           json:"store_id"`
	CustomerID      uint        `gorm:"index;not null"           json:"customer_id"`
	Status          string      `gorm:"index;not null"           json:"status"`
	FulfillmentType string      `gorm:"not null"                 json:"fulfillment_type"`
	DeliveryType    string      `                                json:"delivery_type"`
	SlotID          *uint       `gorm:"index"                    json:"slot_id,omitempty"`
	PaymentMethod   string      `gorm:"not null"                 json:"payment_method"`
	PaymentStatus   string      `gorm:"not null"                 json:"payment_status"`
	Subtotal        int64       `gorm:"not null"                 json:"subtotal"`
	Discount        int64       `gorm:"not null"                 json:"discount"`
	PointsRedeemed  int64       `gorm:"not null"                 json:"points_redeemed"`
	DeliveryFee     int64       `gorm:"not null"                 json:"delivery_fee"`
	Total           int64       `gorm:"not null"                 json:"total"`
	CouponCode      string      `                                json:"coupon_code,omitempty"`
	AddressLine     string      `                                json:"address_line"`
	Lat             float64     `                                json:"lat"`
	Lng             float64     `                                json:"lng"`
	TripID          *uint       `gorm:"index"                    json:"trip_id,omitempty"`
	TripSequence    int         `                                json:"trip_sequence"`
	CODCollected    int64       `gorm:"column:cod_collected"     json:"cod_collected"`
	DeliveredAt     *time.Time  `                                json:"delivered_at,omitempty"`
	CancelReason    string      `                                json:"cancel_reason,omitempty"`
	Items           []OrderItem `gorm:"foreignKey:OrderID"       json:"items,omitempty"`
	CreatedAt       time.Time   `gorm:"index"                    json:"created_at"`
	UpdatedAt       time.Time   `                                json:"updated_at"`
}

func (o *Order) IsCompleted() bool {
	return o.Status == OrderDelivered || o.Status == OrderPickedUp
}

type OrderItem struct {
	ID             uint   `gorm:"primaryKey"                 json:"id"`
	OrderID        uint   `gorm:"index;not null"             json:"order_id"`
	StoreProductID uint   `gorm:"not null"                   json:"store_product_id"`
	Name           string `gorm:"not null"                   json:"name"`
	Quantity       int    `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice      int64  `gorm:"not null"                   json:"unit_price"`
	LineTotal      int64  `gorm:"not null"                   json:"line_total"`
}

type OrderStatusLog struct {
	ID          uint      `gorm:"primaryKey"     json:"id"`
	OrderID     uint      `gorm:"index;not null" json:"order_id"`
	FromStatus  string    `gorm:"not null"       json:"from_status"`
	ToStatus    string    `gorm:"not null"       json:"to_status"`
	ChangedByID uint      `                      json:"changed_by_id"`
	Note        string    `                      json:"note,omitempty"`
	CreatedAt   time.Time `                      json:"created_at"`
}
