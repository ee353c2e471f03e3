package models

import "time"

const (
	LoyaltyEarn     = "EARN"
	LoyaltyRedeem   = "REDEEM"
	LoyaltyAdjust   = "ADJUST"
	LoyaltyReferral = "REFERRAL"
	LoyaltyRefund   = "REFUND"
)

type LoyaltyBalance struct {
	ID             uint      `gorm:"primaryKey"                             json:"id"`
	UserID         uint      `gorm:"uniqueIndex:idx_loyalty_user_org;not null" json:"user_id"`
	OrganizationID uint      `gorm:"uniqueIndex:idx_loyalty_user_org;not null" json:"organization_id"`
	Points         int64     `gorm:"not null;check:points >= 0"             json:"points"`
	LifetimeEarned int64     `gorm:"not null"                               json:"lifetime_earned"`
	UpdatedAt      time.Time `                                              json:"updated_at"`
}

type LoyaltyTransaction struct {
	ID             uint      `gorm:"primaryKey"     json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	OrganizationID uint      `gorm:"index;not null" json:"organization_id"`
	Type           string    `gorm:"not null"       json:"type"`
	Points         int64     `gorm:"not null"       json:"points"`
	BalanceAfter   int64     `gorm:"not null"       json:"balance_after"`
	OrderID        *uint     `gorm:"index"          json:"order_id,omitempty"`
	Note           string    `                      json:"note,omitempty"`
	CreatedByID    *uint     `                      json:"created_by_id,omitempty"`
	CreatedAt      time.Time `gorm:"index"          json:"created_at"`
}

type ReferralConfig struct {
	ID                  uint      `gorm:"primaryKey"          json:"id"`
	OrganizationID      uint      `gorm:"uniqueIndex;not null" json:"organization_id"`
	IsActive            bool      `gorm:"not null"            json:"is_active"`
	ReferrerPoints      int64     `gorm:"not null"            json:"referrer_points"`
	RefereePoints       int64     `gorm:"not null"            json:"referee_points"`
	MinOrderValue       int64     `gorm:"not null"            json:"min_order_value"`
	MaxReferralsPerUser int       `gorm:"not null"            json:"max_referrals_per_user"`
	UpdatedAt           time.Time `                           json:"updated_at"`
}

const (
	ReferralPending   = "PENDING"
	ReferralCompleted = "COMPLETED"
)

type Referral struct {
	ID             uint       `gorm:"primaryKey"                              json:"id"`
	OrganizationID uint       `gorm:"uniqueIndex:idx_referral_referee;not null" json:"organization_id"`
	ReferrerID     uint       `gorm:"index;not null"                          json:"referrer_id"`
	RefereeID      uint       `gorm:"uniqueIndex:idx_referral_referee;not null" json:"referee_id"`
	Status         string     `gorm:"not null"                                json:"status"`
	OrderID        *uint      `                                               json:"order_id,omitempty"`
	RewardedAt     *time.Time `                                               json:"rewarded_at,omitempty"`
	CreatedAt      time.Time  `                                               json:"created_at"`
}

const (
	MembershipActive    = "ACTIVE"
	MembershipCancelled = "CANCELLED"
	MembershipExpired   = "EXPIRED"
)

type MembershipPlan struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID   uint      `gorm:"index;not null"           json:"organization_id"`
	Name             string    `gorm:"not null"                 json:"name"`
	Price            int64     `gorm:"not null"                 json:"price"`
	DurationDays     int       `gorm:"not null"                 json:"duration_days"`
	FreeDelivery     bool      `gorm:"not null"                 json:"free_delivery"`
	PointsMultiplier int64     `gorm:"not null"                 json:"points_multiplier"`
	IsActive         bool      `gorm:"not null"                 json:"is_active"`
	CreatedAt        time.Time `                                json:"created_at"`
	UpdatedAt        time.Time `                                json:"updated_at"`
}

type MembershipSubscriber struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID         uint            `gorm:"index;not null"           json:"plan_id"`
	Plan           *MembershipPlan `gorm:"foreignKey:PlanID"        json:"plan,omitempty"`
	UserID         uint            `gorm:"index;not null"           json:"user_id"`
	OrganizationID uint            `gorm:"index;not null"           json:"organization_id"`
	Status         string          `gorm:"index;not null"           json:"status"`
	StartsAt       time.Time       `gorm:"not null"                 json:"starts_at"`
	EndsAt         time.Time       `gorm:"index;not null"           json:"ends_at"`
	CancelledAt    *time.Time      `                                json:"cancelled_at,omitempty"`
	CreatedAt      time.Time       `                                json:"created_at"`
}
