package api

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const localIDPrefix = "local-"

// NewID generates a sortable-ish local ID using time and randomness.
// Used for optimistically created items before the backend returns the
// canonical record; the prefix marks ids that must never reach a PATCH
// route.
func NewID() ItemID {
	now := time.Now().UnixNano()
	ts := strconv.FormatInt(now, 36)
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	return ItemID(localIDPrefix + ts + hex.EncodeToString(buf[:]))
}

// IsLocalID reports whether id was generated locally.
func IsLocalID(id ItemID) bool {
	return strings.HasPrefix(string(id), localIDPrefix)
}
