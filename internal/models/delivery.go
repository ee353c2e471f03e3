package models

import "time"

const (
	TripPlanned    = "PLANNED"
	TripInProgress = "IN_PROGRESS"
	TripCompleted  = "COMPLETED"
	TripCancelled  = "CANCELLED"
)

type DeliveryTrip struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID        uint       `gorm:"index;not null"           json:"store_id"`
	RiderID        uint       `gorm:"index;not null"           json:"rider_id"`
	Status         string     `gorm:"index;not null"           json:"status"`
	StartedAt      *time.Time `                                json:"started_at,omitempty"`
	CompletedAt    *time.Time `                                json:"completed_at,omitempty"`
	CODExpected    int64      `gorm:"column:cod_expected"      json:"cod_expected"`
	CODCollected   int64      `gorm:"column:cod_collected"     json:"cod_collected"`
	CashSettled    bool       `gorm:"not null"                 json:"cash_settled"`
	SettledAmount  int64      `                                json:"settled_amount"`
	SettledAt      *time.Time `                                json:"settled_at,omitempty"`
	SettledByID    *uint      `                                json:"settled_by_id,omitempty"`
	SettlementNote string     `                                json:"settlement_note,omitempty"`
	Orders         []Order    `gorm:"foreignKey:TripID"        json:"orders,omitempty"`
	CreatedAt      time.Time  `gorm:"index"                    json:"created_at"`
	UpdatedAt      time.Time  `                                json:"updated_at"`
}

func (t *DeliveryTrip) Active() bool {
	return t.Status == TripPlanned || t.Status == TripInProgress
}

type RiderLocation struct {
	ID         uint      `gorm:"primaryKey"                          json:"id"`
	RiderID    uint      `gorm:"index:idx_rider_recorded;not null"    json:"rider_id"`
	TripID     *uint     `gorm:"index"                               json:"trip_id,omitempty"`
	Lat        float64   `gorm:"not null"                            json:"lat"`
	Lng        float64   `gorm:"not null"                            json:"lng"`
	Speed      float64   `                                           json:"speed"`
	Heading    float64   `                                           json:"heading"`
	Accuracy   float64   `                                           json:"accuracy"`
	RecordedAt time.Time `gorm:"index:idx_rider_recorded;not null"    json:"recorded_at"`
	CreatedAt  time.Time `                                           json:"created_at"`
}
