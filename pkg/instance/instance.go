package instance

import (
	"os"
	"strings"
)

// GetID names the running process for logs. DYNO wins over WORKER_ID, then
// the hostname; fallback is used when none is set.
func GetID(fallback string) string {
	for _, key := range []string{"DYNO", "WORKER_ID"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallback
}
