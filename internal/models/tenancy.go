package models

import "time"

const (
	RoleSuperAdmin   = "SUPER_ADMIN"
	RoleOrgAdmin     = "ORG_ADMIN"
	RoleStoreManager = "STORE_MANAGER"
	RoleStaff        = "STAFF"
	RoleRider        = "RIDER"
	RoleCustomer     = "CUSTOMER"
)

func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleOrgAdmin, RoleStoreManager, RoleStaff, RoleRider, RoleCustomer:
		return true
	}
	return false
}

type Organization struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null"                 json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null"     json:"slug"`
	CreatedAt time.Time `                                json:"created_at"`
	UpdatedAt time.Time `                                json:"updated_at"`
}

type Store struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID uint      `gorm:"index;not null"           json:"organization_id"`
	Name           string    `gorm:"not null"                 json:"name"`
	Address        string    `                                json:"address"`
	Lat            float64   `                                json:"lat"`
	Lng            float64   `                                json:"lng"`
	IsActive       bool      `gorm:"not null"                 json:"is_active"`
	CreatedAt      time.Time `                                json:"created_at"`
	UpdatedAt      time.Time `                                json:"updated_at"`
}

type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"not null"                 json:"name"`
	Email          string    `gorm:"uniqueIndex;not null"     json:"email"`
	Phone          string    `gorm:"index"                    json:"phone"`
	PasswordHash   string    `gorm:"not null"                 json:"-"`
	Role           string    `gorm:"index;not null"           json:"role"`
	OrganizationID *uint     `gorm:"index"                    json:"organization_id,omitempty"`
	StoreID        *uint     `gorm:"index"                    json:"store_id,omitempty"`
	ReferralCode   string    `gorm:"uniqueIndex;not null"     json:"referral_code"`
	IsActive       bool      `gorm:"not null"                 json:"is_active"`
	CreatedAt      time.Time `                                json:"created_at"`
	UpdatedAt      time.Time `                                json:"updated_at"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"-"`
	TokenHash string    `gorm:"not null"            json:"-"`
	UserID    uint      `gorm:"index;not null"      json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"            json:"expires_at"`
	Revoked   bool      `gorm:"not null"            json:"revoked"`
	CreatedAt time.Time `                           json:"created_at"`
}
