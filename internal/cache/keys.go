package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ValidationKey is keyed on a hash of the trimmed URL so arbitrary URL text
// never ends up in a key.
func ValidationKey(url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return fmt.Sprintf("validate:url:%s", hex.EncodeToString(sum[:]))
}

func RateLimitKey(identity string) string {
	return fmt.Sprintf("ratelimit:%s", identity)
}
