package slug

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Hello World":            "hello-world",
		"  Trailing spaces  ":    "trailing-spaces",
		"Crème Brûlée":           "creme-brulee",
		"iPhone 15 Pro / 256GB!": "iphone-15-pro-256gb",
		"---":                    "item",
		"":                       "item",
		"Already-a-slug":         "already-a-slug",
		"Ünïcödé__Name":          "unicode-name",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestUnique_FreeOnFirstTry(t *testing.T) {
	calls := 0
	got, err := Unique(context.Background(), "Red Shoes", func(_ context.Context, c string) (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "red-shoes", got)
	assert.Equal(t, 1, calls)
}

func TestUnique_AppendsSuffixUntilFree(t *testing.T) {
	taken := map[string]bool{"red-shoes": true}
	calls := 0
	got, err := Unique(context.Background(), "Red Shoes", func(_ context.Context, c string) (bool, error) {
		calls++
		if calls == 2 {
			// pretend the first random candidate also collides
			taken[c] = true
		}
		return taken[c], nil
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^red-shoes-[a-z0-9]{6}$`), got)
	assert.Equal(t, 3, calls)
}

func TestUnique_Exhausted(t *testing.T) {
	_, err := Unique(context.Background(), "x", func(context.Context, string) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestUnique_LookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Unique(context.Background(), "x", func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRandomToken(t *testing.T) {
	tok := randomToken(32)
	assert.Len(t, tok, 32)
	assert.Empty(t, strings.Trim(tok, alphabet))
}
