package matcher

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const CodeLength = 8

// GenerateCode derives an 8 character uppercase hex code from the handle and
// the given time.
func GenerateCode(handle string, now time.Time) string {
	sum := sha256.Sum256([]byte(handle + now.Format(time.RFC3339Nano)))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:CodeLength])
}
