package models

// All lists every table in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&Organization{}, &Store{}, &User{}, &RefreshToken{},
		&StoreProduct{}, &DeliverySlot{}, &Coupon{}, &Banner{},
		&DeliveryTrip{}, &Order{}, &OrderItem{}, &OrderStatusLog{}, &RiderLocation{},
		&LoyaltyBalance{}, &LoyaltyTransaction{}, &ReferralConfig{}, &Referral{},
		&MembershipPlan{}, &MembershipSubscriber{},
		&NotificationCampaign{}, &Notification{}, &DeviceToken{},
		&ReturnRequest{}, &ReturnItem{},
		&SupportTicket{}, &TicketMessage{},
		&StoreRating{},
	}
}
