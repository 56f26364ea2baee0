package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

type VendorStatus string

const (
	VendorStatusNone     VendorStatus = "none"
	VendorStatusPending  VendorStatus = "pending"
	VendorStatusApproved VendorStatus = "approved"
	VendorStatusRejected VendorStatus = "rejected"
)

const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

type User struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash    string     `json:"-"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Image           string     `json:"image"`
	Role            Role       `gorm:"type:VARCHAR(20);default:'user';index" json:"role"`
	Provider        string     `gorm:"type:VARCHAR(20);default:'credentials'" json:"provider"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	Address         Address    `gorm:"embedded" json:"address"` // Embeds address fields directly

	StoreName        string       `json:"store_name,omitempty"`
	StoreDescription string       `json:"store_description,omitempty"`
	VendorStatus     VendorStatus `gorm:"type:VARCHAR(20);default:'none';index" json:"vendor_status"`

	Cart   *Cart   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"cart,omitempty"`
	Tokens []Token `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address is embedded in User and Order.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.VendorStatus == "" {
		u.VendorStatus = VendorStatusNone
	}
	if u.Provider == "" {
		u.Provider = ProviderCredentials
	}
	return nil
}

func (u User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// PublicUser is the subset of a user that is safe to show next to products and ratings.
type PublicUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	StoreName string `json:"store_name,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Image: u.Image, StoreName: u.StoreName}
}
