package models

import "time"

type StoreProduct struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"          json:"id"`
	StoreID     uint      `gorm:"uniqueIndex:idx_store_sku;not null" json:"store_id"`
	SKU         string    `gorm:"uniqueIndex:idx_store_sku;not null" json:"sku"`
	Name        string    `gorm:"not null"                          json:"name"`
	Description string    `                                         json:"description"`
	Category    string    `gorm:"index"                             json:"category"`
	Price       int64     `gorm:"not null;check:price >= 0"         json:"price"`
	MRP         int64     `gorm:"not null"                          json:"mrp"`
	Stock       int       `gorm:"not null;check:stock >= 0"         json:"stock"`
	IsAvailable bool      `gorm:"not null"                          json:"is_available"`
	ImageURL    string    `                                         json:"image_url"`
	CreatedAt   time.Time `                                         json:"created_at"`
	UpdatedAt   time.Time `                                         json:"updated_at"`
}

type DeliverySlot struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID   uint      `gorm:"index;not null"           json:"store_id"`
	StartsAt  time.Time `gorm:"index;not null"           json:"starts_at"`
	EndsAt    time.Time `gorm:"not null"                 json:"ends_at"`
	Capacity  int       `gorm:"not null"                 json:"capacity"`
	Booked    int       `gorm:"not null"                 json:"booked"`
	IsActive  bool      `gorm:"not null"                 json:"is_active"`
	CreatedAt time.Time `                                json:"created_at"`
	UpdatedAt time.Time `                                json:"updated_at"`
}

const (
	CouponFlat    = "FLAT"
	CouponPercent = "PERCENT"
)

type Coupon struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"            json:"id"`
	OrganizationID uint       `gorm:"uniqueIndex:idx_org_code;not null"   json:"organization_id"`
	StoreID        *uint      `gorm:"index"                               json:"store_id,omitempty"`
	Code           string     `gorm:"uniqueIndex:idx_org_code;not null"   json:"code"`
	Type           string     `gorm:"not null"                            json:"type"`
	Value          int64      `gorm:"not null"                            json:"value"`
	MaxDiscount    int64      `                                           json:"max_discount"`
	MinOrderValue  int64      `                                           json:"min_order_value"`
	UsageLimit     int        `                                           json:"usage_limit"`
	UsedCount      int        `gorm:"not null"                            json:"used_count"`
	StartsAt       *time.Time `                                           json:"starts_at,omitempty"`
	EndsAt         *time.Time `                                           json:"ends_at,omitempty"`
	IsActive       bool       `gorm:"not null"                            json:"is_active"`
	CreatedAt      time.Time  `                                           json:"created_at"`
	UpdatedAt      time.Time  `                                           json:"updated_at"`
}

type Banner struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID uint       `gorm:"index;not null"           json:"organization_id"`
	StoreID        *uint      `gorm:"index"                    json:"store_id,omitempty"`
	Title          string     `gorm:"not null"                 json:"title"`
	ImageURL       string     `gorm:"not null"                 json:"image_url"`
	LinkURL        string     `                                json:"link_url"`
	Position       int        `gorm:"not null"                 json:"position"`
	IsActive       bool       `gorm:"not null"                 json:"is_active"`
	StartsAt       *time.Time `                                json:"starts_at,omitempty"`
	EndsAt         *time.Time `                                json:"ends_at,omitempty"`
	CreatedAt      time.Time  `                                json:"created_at"`
	UpdatedAt      time.Time  `                                json:"updated_at"`
}
