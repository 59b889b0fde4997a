package textnorm

import (
	"strings"
	"time"
)

// Identity composes a stable synthetic `_identity` key for upstreams that
// provide no durable id of their own, as required by §4.2:
// "provider|category|line|localdate".
func Identity(provider, category string, lines []string, at time.Time) string {
	loc := viennaLocation()
	day := at.In(loc).Format("2006-01-02")
	lineKey := strings.Join(lines, "+")
	return strings.Join([]string{provider, category, lineKey, day}, "|")
}
