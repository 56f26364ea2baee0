// Package slug turns names into URL-safe identifiers and keeps them unique
// against a store.
package slug

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const (
	suffixLen   = 6
	maxAttempts = 10
	alphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	fallback    = "item"
)

var ErrExhausted = errors.New("slug: could not find a free slug")

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Normalize strips accents, lower-cases, and collapses every run of other
// characters into a single dash.
func Normalize(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return fallback
	}
	return out
}

// Unique normalizes name and, while the result is taken, appends a short random
// token and checks again.
func Unique(ctx context.Context, name string, exists ExistsFunc) (string, error) {
	base := Normalize(name)
	candidate := base
	for attempt := 0; attempt < maxAttempts; attempt++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug lookup: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + randomToken(suffixLen)
	}
	return "", ErrExhausted
}

// GormExists checks the slug column of model's table. excludeID skips the row
// being renamed; soft-deleted rows still count.
func GormExists(db *gorm.DB, model any, excludeID uint) ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		var count int64
		q := db.WithContext(ctx).Unscoped().Model(model).Where("slug = ?", candidate)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("slug: crypto/rand failed: %v", err))
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}
