package transport

import (
	"time"

	"github.com/Skotchmaster/quickcommerce/internal/models"
)

type CreateOrderItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	StoreID         uint              `json:"store_id"`
	Items           []CreateOrderItem `json:"items"`
	FulfillmentType string            `json:"fulfillment_type"`
	DeliveryType    string            `json:"delivery_type"`
	SlotID          *uint             `json:"slot_id"`
	PaymentMethod   string            `json:"payment_method"`
	CouponCode      string            `json:"coupon_code"`
	RedeemPoints    int64             `json:"redeem_points"`
	AddressLine     string            `json:"address_line"`
	Lat             float64           `json:"lat"`
	Lng             float64           `json:"lng"`
}

type StatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type BulkStatusRequest struct {
	OrderIDs []uint `json:"order_ids"`
	Status   string `json:"status"`
	Note     string `json:"note"`
}

type BulkStatusResult struct {
	OrderID uint   `json:"order_id"`
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

type BulkStatusResponse struct {
	Results   []BulkStatusResult `json:"results"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

type OrderDetail struct {
	models.Order
	AllowedNext []string                `json:"allowed_next"`
	History     []models.OrderStatusLog `json:"history"`
}

type TransitionTables struct {
	Delivery map[string][]string `json:"delivery"`
	Pickup   map[string][]string `json:"pickup"`
	Trip     map[string][]string `json:"trip"`
}

type CreateTripRequest struct {
	StoreID  uint   `json:"store_id"`
	RiderID  uint   `json:"rider_id"`
	OrderIDs []uint `json:"order_ids"`
}

type DeliverRequest struct {
	CODAmount *int64 `json:"cod_amount"`
}

type FailDeliveryRequest struct {
	Reason string `json:"reason"`
}

type SettleCashRequest struct {
	AmountReceived int64  `json:"amount_received"`
	Note           string `json:"note"`
}

type CODOrder struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Total       int64  `json:"total"`
	Collected   int64  `json:"collected"`
}

type CODSummary struct {
	TripID        uint       `json:"trip_id"`
	RiderID       uint       `json:"rider_id"`
	Status        string     `json:"status"`
	Expected      int64      `json:"expected"`
	Collected     int64      `json:"collected"`
	Settled       bool       `json:"settled"`
	SettledAmount int64      `json:"settled_amount"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`
	Discrepancy   int64      `json:"discrepancy"`
	Orders        []CODOrder `json:"orders"`
}

type RiderCODPending struct {
	RiderID   uint                  `json:"rider_id"`
	TotalHeld int64                 `json:"total_held"`
	Trips     []models.DeliveryTrip `json:"trips"`
}

type LocationRequest struct {
	Lat        *float64   `json:"lat"`
	Lng        *float64   `json:"lng"`
	Speed      float64    `json:"speed"`
	Heading    float64    `json:"heading"`
	Accuracy   float64    `json:"accuracy"`
	RecordedAt *time.Time `json:"recorded_at"`
	TripID     *uint      `json:"trip_id"`
}

type Position struct {
	RiderID    uint      `json:"rider_id"`
	TripID     *uint     `json:"trip_id,omitempty"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      float64   `json:"speed"`
	Heading    float64   `json:"heading"`
	Accuracy   float64   `json:"accuracy"`
	RecordedAt time.Time `json:"recorded_at"`
}
