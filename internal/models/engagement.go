package models

import "time"

const (
	AudienceAllCustomers   = "ALL_CUSTOMERS"
	AudienceStoreCustomers = "STORE_CUSTOMERS"
	AudienceUsers          = "USERS"

	CampaignQueued    = "QUEUED"
	CampaignSending   = "SENDING"
	CampaignCompleted = "COMPLETED"
	CampaignFailed    = "FAILED"
)

type NotificationCampaign struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID  uint       `gorm:"index;not null"           json:"organization_id"`
	StoreID         *uint      `gorm:"index"                    json:"store_id,omitempty"`
	Title           string     `gorm:"not null"                 json:"title"`
	Body            string     `gorm:"not null"                 json:"body"`
	Audience        string     `gorm:"not null"                 json:"audience"`
	UserIDs         string     `gorm:"column:user_ids"          json:"-"`
	Status          string     `gorm:"index;not null"           json:"status"`
	TotalRecipients int        `gorm:"not null"                 json:"total_recipients"`
	SentCount       int        `gorm:"not null"                 json:"sent_count"`
	FailedCount     int        `gorm:"not null"                 json:"failed_count"`
	CreatedByID     uint       `gorm:"not null"                 json:"created_by_id"`
	StartedAt       *time.Time `                                json:"started_at,omitempty"`
	CompletedAt     *time.Time `                                json:"completed_at,omitempty"`
	LastError       string     `                                json:"last_error,omitempty"`
	CreatedAt       time.Time  `gorm:"index"                    json:"created_at"`
	UpdatedAt       time.Time  `                                json:"updated_at"`
}

const (
	NotificationOrderStatus = "ORDER_STATUS"
	NotificationCampaignMsg = "CAMPAIGN"
	NotificationSupport     = "SUPPORT"
	NotificationLoyalty     = "LOYALTY"
)

type Notification struct {
	ID         uint       `gorm:"primaryKey"     json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	CampaignID *uint      `gorm:"index"          json:"campaign_id,omitempty"`
	Type       string     `gorm:"not null"       json:"type"`
	Title      string     `gorm:"not null"       json:"title"`
	Body       string     `gorm:"not null"       json:"body"`
	ReadAt     *time.Time `                      json:"read_at,omitempty"`
	CreatedAt  time.Time  `gorm:"index"          json:"created_at"`
}

type DeviceToken struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	UserID    uint      `gorm:"index;not null"       json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	Platform  string    `gorm:"not null"             json:"platform"`
	CreatedAt time.Time `                            json:"created_at"`
	UpdatedAt time.Time `                            json:"updated_at"`
}

const (
	ReturnRequested = "REQUESTED"
	ReturnApproved  = "APPROVED"
	ReturnRejected  = "REJECTED"
	ReturnRefunded  = "REFUNDED"

	RefundPoints   = "POINTS"
	RefundOriginal = "ORIGINAL"
)

type ReturnRequest struct {
	ID           uint         `gorm:"primaryKey;autoIncrement"  json:"id"`
	OrderID      uint         `gorm:"index;not null"            json:"order_id"`
	CustomerID   uint         `gorm:"index;not null"            json:"customer_id"`
	StoreID      uint         `gorm:"index;not null"            json:"store_id"`
	Reason       string       `gorm:"not null"                  json:"reason"`
	Status       string       `gorm:"index;not null"            json:"status"`
	RefundAmount int64        `gorm:"not null"                  json:"refund_amount"`
	RefundMethod string       `gorm:"not null"                  json:"refund_method"`
	ReviewedByID *uint        `                                 json:"reviewed_by_id,omitempty"`
	ReviewNote   string       `                                 json:"review_note,omitempty"`
	Items        []ReturnItem `gorm:"foreignKey:ReturnRequestID" json:"items,omitempty"`
	CreatedAt    time.Time    `                                 json:"created_at"`
	UpdatedAt    time.Time    `                                 json:"updated_at"`
}

type ReturnItem struct {
	ID              uint `gorm:"primaryKey"                 json:"id"`
	ReturnRequestID uint `gorm:"index;not null"             json:"return_request_id"`
	OrderItemID     uint `gorm:"index;not null"             json:"order_item_id"`
	Quantity        int  `gorm:"not null;check:quantity > 0" json:"quantity"`
}

const (
	TicketOpen       = "OPEN"
	TicketInProgress = "IN_PROGRESS"
	TicketResolved   = "RESOLVED"
	TicketClosed     = "CLOSED"

	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

type SupportTicket struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketNumber   string          `gorm:"uniqueIndex;not null"     json:"ticket_number"`
	OrganizationID uint            `gorm:"index;not null"           json:"organization_id"`
	StoreID        *uint           `gorm:"index"                    json:"store_id,omitempty"`
	CustomerID     uint            `gorm:"index;not null"           json:"customer_id"`
	OrderID        *uint           `gorm:"index"                    json:"order_id,omitempty"`
	Subject        string          `gorm:"not null"                 json:"subject"`
	Category       string          `                                json:"category"`
	Priority       string          `gorm:"not null"                 json:"priority"`
	Status         string          `gorm:"index;not null"           json:"status"`
	AssignedToID   *uint           `gorm:"index"                    json:"assigned_to_id,omitempty"`
	Messages       []TicketMessage `gorm:"foreignKey:TicketID"      json:"messages,omitempty"`
	CreatedAt      time.Time       `                                json:"created_at"`
	UpdatedAt      time.Time       `                                json:"updated_at"`
}

type TicketMessage struct {
	ID         uint      `gorm:"primaryKey"     json:"id"`
	TicketID   uint      `gorm:"index;not null" json:"ticket_id"`
	AuthorID   uint      `gorm:"not null"       json:"author_id"`
	Body       string    `gorm:"not null"       json:"body"`
	IsInternal bool      `gorm:"not null"       json:"is_internal"`
	CreatedAt  time.Time `                      json:"created_at"`
}

type StoreRating struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"           json:"id"`
	StoreID    uint       `gorm:"index;not null"                     json:"store_id"`
	OrderID    uint       `gorm:"uniqueIndex;not null"               json:"order_id"`
	CustomerID uint       `gorm:"index;not null"                     json:"customer_id"`
	Rating     int        `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
	Comment    string     `                                          json:"comment"`
	IsHidden   bool       `gorm:"not null"                           json:"is_hidden"`
	Reply      string     `                                          json:"reply,omitempty"`
	RepliedAt  *time.Time `                                          json:"replied_at,omitempty"`
	CreatedAt  time.Time  `                                          json:"created_at"`
	UpdatedAt  time.Time  `                                          json:"updated_at"`
}
