package cmn

import (
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// The following typed helpers parse environment variables with a safe
// fallback to a documented default, logging (without leaking the raw
// value) whenever the input could not be parsed. This mirrors the
// teacher's convention of a small `EnvVars` table of string constants
// (see the teacher's cmd/cli/config/config.go) generalized into a
// parse-with-fallback helper set, since this deployment has no cluster
// config document to read from — environment variables are authoritative.

// GetString returns os.Getenv(key) or def if unset or empty.
func GetString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetInt parses key as a base-10 integer, falling back to def and logging
// a warning (naming only the key, never the value) on a malformed input.
func GetInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		glog.Warningf("cmn: invalid integer value for %s, falling back to default %d", key, def)
		return def
	}
	return n
}

// GetBool accepts the usual truthy/falsy spellings case-insensitively.
func GetBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "t", "true", "yes", "y", "on":
		return true
	case "0", "f", "false", "no", "n", "off":
		return false
	default:
		glog.Warningf("cmn: invalid boolean value for %s, falling back to default %v", key, def)
		return def
	}
}

// IsSet reports whether key has any non-empty value in the environment;
// useful for feature-gating an entire optional config group (e.g. the
// publish mirrors) on the presence of its primary variable.
func IsSet(key string) bool {
	return os.Getenv(key) != ""
}
