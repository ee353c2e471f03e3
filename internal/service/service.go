package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/pkg/config"
	"github.com/Skotchmaster/quickcommerce/pkg/events"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
	"github.com/Skotchmaster/quickcommerce/pkg/tokens"
)

type Deps struct {
	Repo     *repo.GormRepo
	Events   events.Publisher
	Issuer   tokens.Issuer
	Business config.Business

	Products   ProductIndex
	Locations  LocationCache
	Broadcast  LocationBroadcaster
	Dispatcher CampaignDispatcher

	Clock func() time.Time
}

type core struct {
	Repo     *repo.GormRepo
	Events   events.Publisher
	Business config.Business
	Clock    func() time.Time
}

func (c *core) now() time.Time {
	if c.Clock != nil {
		return c.Clock().UTC()
	}
	return time.Now().UTC()
}

// publish sends a domain event. Delivery is best effort: a broker failure is
// logged and never fails the operation that produced the event.
func (c *core) publish(ctx context.Context, topic, key string, event map[string]any) {
	if c.Events == nil {
		return
	}
	if err := c.Events.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", event["type"], "error", err)
	}
}

type Services struct {
	Auth          *AuthService
	Tenancy       *TenancyService
	Catalog       *CatalogService
	Slots         *SlotService
	Coupons       *CouponService
	Orders        *OrderService
	Trips         *TripService
	Locations     *LocationService
	Loyalty       *LoyaltyService
	Referrals     *ReferralService
	Notifications *NotificationService
	Banners       *BannerService
	Returns       *ReturnService
	Support       *SupportService
	Ratings       *RatingService
	Memberships   *MembershipService
}

func New(d Deps) *Services {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	c := core{Repo: d.Repo, Events: d.Events, Business: d.Business, Clock: d.Clock}
	return &Services{
		Auth:          &AuthService{core: c, Issuer: d.Issuer},
		Tenancy:       &TenancyService{core: c},
		Catalog:       &CatalogService{core: c, Index: d.Products},
		Slots:         &SlotService{core: c},
		Coupons:       &CouponService{core: c},
		Orders:        &OrderService{core: c},
		Trips:         &TripService{core: c},
		Locations:     &LocationService{core: c, Cache: d.Locations, Broadcast: d.Broadcast},
		Loyalty:       &LoyaltyService{core: c},
		Referrals:     &ReferralService{core: c},
		Notifications: &NotificationService{core: c, Dispatcher: d.Dispatcher},
		Banners:       &BannerService{core: c},
		Returns:       &ReturnService{core: c},
		Support:       &SupportService{core: c},
		Ratings:       &RatingService{core: c},
		Memberships:   &MembershipService{core: c},
	}
}

func shortCode(prefix string, n int) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if prefix == "" {
		return raw[:n]
	}
	return prefix + "-" + raw[:n]
}

func uintPtr(v uint) *uint { return &v }
