package models

import "time"

type TokenKind string

const (
	TokenVerifyEmail   TokenKind = "verify_email"
	TokenResetPassword TokenKind = "reset_password"
)

// Token is a single-use email token. Only the sha256 of the raw value is stored.
type Token struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"size:36;index;not null"`
	Kind      TokenKind `gorm:"type:VARCHAR(20);not null"`
	Hash      string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (t Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
