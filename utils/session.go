// utils/session.go
package utils

import (
	"fmt"
	"strings"
	"time"
)

// DefaultSessionPrefix tags sessions generated server-side.
const DefaultSessionPrefix = "wq"

// GenerateSessionID builds a correlation id of the form
// <prefix>_<ms-epoch>_<random>. It carries no server-side state; it only
// binds the records produced during one interaction.
func GenerateSessionID(prefix string) string {
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), GenerateRandomString(9))
}

// EnsureSessionID returns the given id when present, else a fresh one.
func EnsureSessionID(sessionID string) string {
	if strings.TrimSpace(sessionID) != "" {
		return sessionID
	}
	return GenerateSessionID(DefaultSessionPrefix)
}
