package transport

import (
	"github.com/Skotchmaster/quickcommerce/internal/models"
)

type AdjustPointsRequest struct {
	UserID         uint   `json:"user_id"`
	OrganizationID *uint  `json:"organization_id"`
	Points         int64  `json:"points"`
	Note           string `json:"note"`
}

type ReferralConfigRequest struct {
	OrganizationID      *uint `json:"organization_id"`
	IsActive            bool  `json:"is_active"`
	ReferrerPoints      int64 `json:"referrer_points"`
	RefereePoints       int64 `json:"referee_points"`
	MinOrderValue       int64 `json:"min_order_value"`
	MaxReferralsPerUser int   `json:"max_referrals_per_user"`
}

type ApplyReferralRequest struct {
	Code           string `json:"code"`
	OrganizationID uint   `json:"organization_id"`
}

type ReferralSummary struct {
	Code      string `json:"code"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Pending   int64  `json:"pending"`
}

type SendCampaignRequest struct {
	OrganizationID *uint  `json:"organization_id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	Audience       string `json:"audience"`
	StoreID        *uint  `json:"store_id"`
	UserIDs        []uint `json:"user_ids"`
}

type CampaignProgress struct {
	ID      uint   `json:"id"`
	Status  string `json:"status"`
	Total   int    `json:"total"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Percent int    `json:"percent"`
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
}

type DeviceTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type ReturnItemRequest struct {
	OrderItemID uint `json:"order_item_id"`
	Quantity    int  `json:"quantity"`
}

type CreateReturnRequest struct {
	OrderID      uint                `json:"order_id"`
	Reason       string              `json:"reason"`
	RefundMethod string              `json:"refund_method"`
	Items        []ReturnItemRequest `json:"items"`
}

type ApproveReturnRequest struct {
	RefundAmount *int64 `json:"refund_amount"`
	Restock      bool   `json:"restock"`
	Note         string `json:"note"`
}

type RejectReturnRequest struct {
	Note string `json:"note"`
}

type CreateTicketRequest struct {
	OrganizationID *uint  `json:"organization_id"`
	OrderID        *uint  `json:"order_id"`
	StoreID        *uint  `json:"store_id"`
	Subject        string `json:"subject"`
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	Message        string `json:"message"`
}

type TicketMessageRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
}

type PatchTicketRequest struct {
	Status       *string `json:"status"`
	Priority     *string `json:"priority"`
	AssignedToID *uint   `json:"assigned_to_id"`
}

type CreateRatingRequest struct {
	OrderID uint   `json:"order_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ModerateRatingRequest struct {
	Hidden bool `json:"hidden"`
}

type ReplyRatingRequest struct {
	Reply string `json:"reply"`
}

type RatingSummary struct {
	StoreID      uint          `json:"store_id"`
	Average      float64       `json:"average"`
	Count        int64         `json:"count"`
	Distribution map[int]int64 `json:"distribution"`
}

type PlanRequest struct {
	OrganizationID   *uint  `json:"organization_id"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	DurationDays     int    `json:"duration_days"`
	FreeDelivery     bool   `json:"free_delivery"`
	PointsMultiplier int64  `json:"points_multiplier"`
	IsActive         *bool  `json:"is_active"`
}

type PatchPlanRequest struct {
	Name             *string `json:"name"`
	Price            *int64  `json:"price"`
	DurationDays     *int    `json:"duration_days"`
	FreeDelivery     *bool   `json:"free_delivery"`
	PointsMultiplier *int64  `json:"points_multiplier"`
	IsActive         *bool   `json:"is_active"`
}

type SubscribeRequest struct {
	PlanID uint `json:"plan_id"`
}

type CancelMembershipRequest struct {
	OrganizationID uint `json:"organization_id"`
}

type LoyaltySummary struct {
	Balance      *models.LoyaltyBalance `json:"balance"`
	PointValue   int64                  `json:"point_value"`
	RedeemableBy int64                  `json:"redeemable_value"`
}
