package env

import (
	"os"
	"strings"
)

// Prefix namespaces every variable the services read through envconfig.
const Prefix = "TUNEDASH"

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// Service returns the service name used in log lines, falling back to name.
func Service(name string) string {
	return Get(Prefix+"_SERVICE_NAME", name)
}
