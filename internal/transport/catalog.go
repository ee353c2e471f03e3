package transport

import "time"

type CreateProductRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	MRP         int64  `json:"mrp"`
	Stock       int    `json:"stock"`
	IsAvailable *bool  `json:"is_available"`
	ImageURL    string `json:"image_url"`
}

type PatchProductRequest struct {
	SKU         *string `json:"sku"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       *int64  `json:"price"`
	MRP         *int64  `json:"mrp"`
	Stock       *int    `json:"stock"`
	IsAvailable *bool   `json:"is_available"`
	ImageURL    *string `json:"image_url"`
}

type StockUpdate struct {
	ProductID uint `json:"product_id"`
	Stock     int  `json:"stock"`
}

type BulkStockRequest struct {
	Items []StockUpdate `json:"items"`
}

type CreateSlotRequest struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Capacity int       `json:"capacity"`
}

type PatchSlotRequest struct {
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Capacity *int       `json:"capacity"`
	IsActive *bool      `json:"is_active"`
}

type CouponRequest struct {
	OrganizationID *uint      `json:"organization_id"`
	StoreID        *uint      `json:"store_id"`
	Code           string     `json:"code"`
	Type           string     `json:"type"`
	Value          int64      `json:"value"`
	MaxDiscount    int64      `json:"max_discount"`
	MinOrderValue  int64      `json:"min_order_value"`
	UsageLimit     int        `json:"usage_limit"`
	StartsAt       *time.Time `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at"`
	IsActive       *bool      `json:"is_active"`
}

type PatchCouponRequest struct {
	Value         *int64     `json:"value"`
	MaxDiscount   *int64     `json:"max_discount"`
	MinOrderValue *int64     `json:"min_order_value"`
	UsageLimit    *int       `json:"usage_limit"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
	IsActive      *bool      `json:"is_active"`
}

type ValidateCouponRequest struct {
	Code     string `json:"code"`
	StoreID  uint   `json:"store_id"`
	Subtotal int64  `json:"subtotal"`
}

type CouponQuote struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
	Valid    bool   `json:"valid"`
}

type BannerRequest struct {
	OrganizationID *uint      `json:"organization_id"`
	StoreID        *uint      `json:"store_id"`
	Title          string     `json:"title"`
	ImageURL       string     `json:"image_url"`
	LinkURL        string     `json:"link_url"`
	Position       int        `json:"position"`
	IsActive       *bool      `json:"is_active"`
	StartsAt       *time.Time `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at"`
}

type PatchBannerRequest struct {
	Title    *string    `json:"title"`
	ImageURL *string    `json:"image_url"`
	LinkURL  *string    `json:"link_url"`
	Position *int       `json:"position"`
	IsActive *bool      `json:"is_active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}
