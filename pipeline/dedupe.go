package pipeline

import (
	"strings"

	"github.com/OneOfOne/xxhash"
	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/origamihase/wien-oepnv-feed/model"
)

// providerRank gives lower numbers higher precedence per §4.7 rule 4:
// regional-authority > national-railway > municipal.
var providerRank = map[string]int{
	"regional": 0,
	"railway":  1,
	"municipal": 2,
}

func rank(source string) int {
	if r, ok := providerRank[source]; ok {
		return r
	}
	return len(providerRank) // unknown providers sort last
}

// dedupeKey returns the first non-empty of _identity, guid, or a content
// hash of source|title|description, per §4.7.
func dedupeKey(e model.Event) string {
	if e.Identity != "" {
		return e.Identity
	}
	if e.GUID != "" {
		return e.GUID
	}
	sum := xxhash.ChecksumString64(e.Source + "|" + e.Title + "|" + e.Description)
	return "hash:" + strconv64(sum)
}

func strconv64(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

// dedupe groups events by dedupeKey and keeps the best candidate per group
// per the §4.7 tie-break order, merging unique description sentences from
// losers into the winner.
//
// Every key is also inserted into a cuckoo filter, but the filter's answer
// does not change anything: every event, repeated key or not, is grouped
// through the groups map.
func dedupe(events []model.Event) []model.Event {
	if len(events) == 0 {
		return nil
	}

	filter := cuckoo.NewFilter(uint(nextPow2(len(events) * 2)))
	groups := make(map[string][]model.Event, len(events))
	order := make([]string, 0, len(events))

	for _, e := range events {
		key := dedupeKey(e)
		if !filter.InsertUnique([]byte(key)) {
			// Key possibly seen before (the filter can report false
			// positives); groups[key] below decides grouping either way.
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], e)
	}

	out := make([]model.Event, 0, len(order))
	for _, key := range order {
		out = append(out, resolveGroup(groups[key]))
	}
	return out
}

func nextPow2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// resolveGroup picks the winner of a duplicate group per §4.7's five-level
// tie-break and merges unique sentences from every loser's description.
func resolveGroup(group []model.Event) model.Event {
	if len(group) == 1 {
		return group[0]
	}

	winnerIdx := 0
	for i := 1; i < len(group); i++ {
		if better(group[i], group[winnerIdx], i, winnerIdx) {
			winnerIdx = i
		}
	}
	winner := group[winnerIdx]

	seen := sentenceSet(winner.Description)
	var merged strings.Builder
	merged.WriteString(winner.Description)
	for i, e := range group {
		if i == winnerIdx {
			continue
		}
		for _, s := range splitSentences(e.Description) {
			norm := strings.ToLower(strings.TrimSpace(s))
			if norm == "" || seen[norm] {
				continue
			}
			seen[norm] = true
			merged.WriteString(" ")
			merged.WriteString(strings.TrimSpace(s))
		}
	}
	winner.Description = merged.String()
	return winner
}

// better reports whether candidate a beats candidate b under §4.7's
// five-level tie-break order. Index values break the final, stable-input-order tie.
func better(a, b model.Event, aIdx, bIdx int) bool {
	aEndsSet, bEndsSet := a.EndsAt != nil, b.EndsAt != nil
	if aEndsSet != bEndsSet {
		return aEndsSet
	}
	if aEndsSet && !a.EndsAt.Equal(*b.EndsAt) {
		return a.EndsAt.After(*b.EndsAt)
	}
	if !a.PubDate.Equal(b.PubDate) {
		return a.PubDate.After(b.PubDate)
	}
	aStartsSet, bStartsSet := a.StartsAt != nil, b.StartsAt != nil
	if aStartsSet != bStartsSet {
		return aStartsSet
	}
	if aStartsSet && !a.StartsAt.Equal(*b.StartsAt) {
		return a.StartsAt.After(*b.StartsAt)
	}
	if len(a.Description) != len(b.Description) {
		return len(a.Description) > len(b.Description)
	}
	if rank(a.Source) != rank(b.Source) {
		return rank(a.Source) < rank(b.Source)
	}
	return aIdx < bIdx
}

func splitSentences(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '\n' })
}

func sentenceSet(s string) map[string]bool {
	m := make(map[string]bool)
	for _, sentence := range splitSentences(s) {
		norm := strings.ToLower(strings.TrimSpace(sentence))
		if norm != "" {
			m[norm] = true
		}
	}
	return m
}
