package logging

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

const logIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewLogID generates a 32 character lowercase hex correlation identifier.
// The digest input mixes the current microsecond timestamp, a short random
// suffix, and a UUID fragment so concurrently generated IDs stay unique.
func NewLogID() string {
	timestamp := fmt.Sprintf("%d", time.Now().UnixMicro())

	random := make([]byte, 8)
	for i := range random {
		random[i] = logIDCharset[rand.Intn(len(logIDCharset))]
	}

	uid := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	sum := md5.Sum([]byte(timestamp + string(random) + uid))
	return hex.EncodeToString(sum[:])
}

// ValidLogID reports whether s looks like an identifier produced by NewLogID.
func ValidLogID(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
