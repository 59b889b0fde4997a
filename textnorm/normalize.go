// Package textnorm holds the text-cleanup and time-phrase rules shared by
// every provider adapter (§4.2): HTML stripping, whitespace collapsing,
// heading/trailing-noise removal, description clipping and the "Am/Seit/Ab/
// interval" time-phrase grammar.
package textnorm

import (
	"regexp"
	"strings"
	"time"
)

var (
	tagRe         = regexp.MustCompile(`(?s)<[^>]*>`)
	controlRe     = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	ansiRe        = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	multiSpaceRe  = regexp.MustCompile(`[ \t]+`)
	multiBlankRe  = regexp.MustCompile(`\n{2,}`)
	leadingNoise  = regexp.MustCompile(`(?i)^\s*(bauarbeiten|störung|zeitraum:)\s*[:\-–]?\s*`)
	trailingNoise = regexp.MustCompile(`(?i)\s*(mehr\s+info(?:rmationen)?\.?|weiterlesen\.?)\s*$`)

	entityReplacer = strings.NewReplacer(
		"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&apos;", "'",
		"&nbsp;", " ",
	)
)

// StripHTML removes HTML tags, decodes the handful of entities common in
// upstream payloads, collapses runs of horizontal whitespace, preserves
// intended paragraph breaks as single "\n", and strips control characters
// and ANSI escapes so the result can never smuggle raw markup or terminal
// sequences into a log or the feed.
func StripHTML(s string) string {
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, "<br/>", "\n")
	s = strings.ReplaceAll(s, "<br />", "\n")
	s = strings.ReplaceAll(s, "</p>", "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	s = ansiRe.ReplaceAllString(s, "")
	s = controlRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = multiBlankRe.ReplaceAllString(s, "\n")
	return strings.Trim(s, "\n ")
}

// StripNoise removes redundant leading headings ("Bauarbeiten", "Störung",
// "Zeitraum:") and trailing call-to-action noise ("Weiterlesen", ...).
func StripNoise(s string) string {
	s = leadingNoise.ReplaceAllString(s, "")
	s = trailingNoise.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Clip enforces limit characters on s, breaking on a sentence boundary in
// the second half of the window, else on the last word boundary, and
// appending a single ellipsis. When the first limit characters hold no
// space or newline, it cuts at limit, inside that word.
func Clip(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := limit
	// Prefer a sentence boundary.
	if idx := lastIndexAny(r[:cut], ".!?"); idx > limit/2 {
		return strings.TrimSpace(string(r[:idx+1])) + "…"
	}
	// Fall back to a word boundary.
	for cut > 0 && r[cut-1] != ' ' && r[cut-1] != '\n' {
		cut--
	}
	if cut == 0 {
		cut = limit
	}
	return strings.TrimSpace(string(r[:cut])) + "…"
}

func lastIndexAny(r []rune, chars string) int {
	for i := len(r) - 1; i >= 0; i-- {
		if strings.ContainsRune(chars, r[i]) {
			return i
		}
	}
	return -1
}

// TimePhrase composes the description's second line per §4.2: the four
// mutually exclusive cases below are evaluated against Europe/Vienna local
// calendar days.
func TimePhrase(now time.Time, starts, ends *time.Time) string {
	loc := viennaLocation()
	nowLocal := now.In(loc)

	switch {
	case starts != nil && ends != nil:
		sl, el := starts.In(loc), ends.In(loc)
		if sameDay(sl, el) && sl.After(nowLocal) {
			return "Am " + formatDate(sl)
		}
		if el.After(sl) {
			return formatDate(sl) + " – " + formatDate(el)
		}
		// ends_at <= starts_at: treat as open-ended from starts_at.
		return sinceOrFrom(nowLocal, sl)
	case starts != nil:
		return sinceOrFrom(nowLocal, starts.In(loc))
	default:
		return ""
	}
}

func sinceOrFrom(now, starts time.Time) string {
	if starts.After(now) {
		return "Ab " + formatDate(starts)
	}
	return "Seit " + formatDate(starts)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

var vienna *time.Location

func viennaLocation() *time.Location {
	if vienna != nil {
		return vienna
	}
	loc, err := time.LoadLocation("Europe/Vienna")
	if err != nil {
		// Fixed UTC+1/+2 is not observed here on purpose: without tzdata
		// we fall back to UTC rather than guess a DST offset, which
		// shifts day-boundary phrasing by the one- or two-hour Vienna
		// offset.
		loc = time.UTC
	}
	vienna = loc
	return vienna
}
