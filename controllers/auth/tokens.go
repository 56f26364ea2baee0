package authControllers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/auth"
	"github.com/junaidrashid-git/market-hub/models"
	"gorm.io/gorm"
)

// issueToken replaces any outstanding token of the same kind for the user and
// returns the raw value to put in the email link.
func issueToken(tx *gorm.DB, userID string, kind models.TokenKind, ttl time.Duration) (string, error) {
	raw, hash, err := auth.NewToken()
	if err != nil {
		return "", err
	}
	if err := tx.Where("user_id = ? AND kind = ?", userID, kind).Delete(&models.Token{}).Error; err != nil {
		return "", err
	}
	token := models.Token{UserID: userID, Kind: kind, Hash: hash, ExpiresAt: time.Now().Add(ttl)}
	if err := tx.Create(&token).Error; err != nil {
		return "", err
	}
	return raw, nil
}

// consumeToken looks up and deletes a token. Unknown, expired and wrong-kind
// tokens all come back as the same validation error.
func consumeToken(tx *gorm.DB, raw string, kind models.TokenKind) (*models.Token, error) {
	invalid := apperr.Field("token", "is invalid or has expired")

	var token models.Token
	err := tx.Where("hash = ? AND kind = ?", auth.HashToken(raw), kind).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperr.Internal("load token", err)
	}
	if err := tx.Delete(&token).Error; err != nil {
		return nil, apperr.Internal("consume token", err)
	}
	if token.Expired(time.Now()) {
		return nil, invalid
	}
	return &token, nil
}

type sendFunc func(ctx context.Context, user models.User, token string) error

func sendToken(ctx context.Context, db *gorm.DB, user models.User, kind models.TokenKind, ttl time.Duration, send sendFunc) {
	raw, err := issueToken(db.WithContext(ctx), user.ID, kind, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "issue email token failed", "kind", kind, "user_id", user.ID, "error", err)
		return
	}
	if err := send(ctx, user, raw); err != nil {
		slog.ErrorContext(ctx, "send email failed", "kind", kind, "user_id", user.ID, "error", err)
	}
}
