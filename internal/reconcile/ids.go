package reconcile

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxIDAttempts bounds regeneration before the suffix is widened.
const maxIDAttempts = 8

// IDFunc returns a candidate id for a record type prefix.
type IDFunc func(prefix string, now time.Time) string

// NewID builds "<prefix>_<base36 unix millis><6 random chars>".
func NewID(prefix string, now time.Time) string {
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 36) + randomSuffix(6)
}

func randomSuffix(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// uniqueID asks gen for ids until one is not in taken.
func uniqueID(gen IDFunc, prefix string, now time.Time, taken map[string]bool) string {
	for i := 0; i < maxIDAttempts; i++ {
		if id := gen(prefix, now); !taken[id] {
			return id
		}
	}
	for {
		if id := NewID(prefix, now) + randomSuffix(8); !taken[id] {
			return id
		}
	}
}
