package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/sells-group/leadfinder/internal/model"
)

// Cache stores resolved centers keyed by a hash of the geocode query. Only
// successful matches are cached so a later search retries failed lookups.
type Cache interface {
	GetCenter(ctx context.Context, key string) (model.Center, bool, error)
	PutCenter(ctx context.Context, key, query string, c model.Center) error
}

// cacheKey returns SHA-256 hex of the normalized query.
func cacheKey(query string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("%x", h)
}
