// Package station loads and exposes the read-only station directory
// consulted by provider adapters for regional filtering and id lookup.
// The directory itself is maintained by tooling outside the core's scope
// (§1); this package only ever reads it.
package station

import (
	"os"
	"strings"
	"unicode"

	jsoniter "github.com/json-iterator/go"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one station as persisted in data/stations.json.
type Record struct {
	BstID      string   `json:"bst_id"`
	ShortCode  string   `json:"short_code,omitempty"`
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases,omitempty"`
	InVienna   bool     `json:"in_vienna"`
	Pendler    bool     `json:"pendler"`
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
	RegionalID string   `json:"regional_id,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// Catalogue is the pure in-memory, read-only station directory.
type Catalogue struct {
	byAlias map[string]*Record // canonical alias -> record
	all     []*Record
	polygon []point // Vienna administrative boundary, closed ring
}

// Load reads path once, building the alias index. A duplicate alias
// resolving to two different canonical records is logged and the later
// entry is ignored, per §4.4.
func Load(path string) (*Catalogue, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "station: read %s", path)
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, errors.Wrapf(err, "station: parse %s", path)
	}

	c := &Catalogue{
		byAlias: make(map[string]*Record, len(records)*2),
		all:     make([]*Record, 0, len(records)),
		polygon: viennaBoundary(),
	}
	for i := range records {
		rec := &records[i]
		c.all = append(c.all, rec)
		aliases := append([]string{rec.Name}, rec.Aliases...)
		for _, a := range aliases {
			key := Canonicalize(a)
			if key == "" {
				continue
			}
			if existing, ok := c.byAlias[key]; ok && existing != rec {
				glog.Warningf("station: alias %q already maps to %q, ignoring later entry %q", key, existing.Name, rec.Name)
				continue
			}
			c.byAlias[key] = rec
		}
	}
	return c, nil
}

// Canonicalize lowercases, strips diacritics, collapses whitespace and
// normalises common station-type suffixes (Bahnhof, Bf., Bhf -> "bahnhof").
func Canonicalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = stripDiacritics(s)
	s = collapseWhitespace(s)
	for _, rep := range suffixNormalizations {
		s = strings.ReplaceAll(s, rep[0], rep[1])
	}
	return s
}

var suffixNormalizations = [][2]string{
	{"hbf", "hauptbahnhof"},
	{"bhf.", "bahnhof"},
	{"bhf", "bahnhof"},
	{"bf.", "bahnhof"},
	{"bf", "bahnhof"},
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func stripDiacritics(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == 'ä':
			b.WriteString("ae")
		case r == 'ö':
			b.WriteString("oe")
		case r == 'ü':
			b.WriteString("ue")
		case r == 'ß':
			b.WriteString("ss")
		case unicode.Is(unicode.Mn, r):
			// combining mark, drop
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalName resolves raw to its canonical station name, or "" if unknown.
func (c *Catalogue) CanonicalName(raw string) string {
	if rec, ok := c.byAlias[Canonicalize(raw)]; ok {
		return rec.Name
	}
	return ""
}

func (c *Catalogue) lookup(name string) *Record {
	return c.byAlias[Canonicalize(name)]
}

// IsInVienna reports whether name, matched by alias, belongs to a station
// inside the Vienna service area; unknown names report false. Coordinates
// are tested separately by IsInViennaCoord.
func (c *Catalogue) IsInVienna(name string) bool {
	if rec := c.lookup(name); rec != nil {
		return rec.InVienna
	}
	return false
}

// IsInViennaCoord tests a coordinate against the bundled Vienna boundary,
// independent of any alias match.
func (c *Catalogue) IsInViennaCoord(lat, lon float64) bool {
	return pointInPolygon(point{lat, lon}, c.polygon)
}

// IsCommuter reports the explicit `pendler` flag for name.
func (c *Catalogue) IsCommuter(name string) bool {
	if rec := c.lookup(name); rec != nil {
		return rec.Pendler
	}
	return false
}

// RegionalIDs returns the regional-authority ids known for name. Station
// ids are always opaque strings (§9): this package never parses or
// compares them numerically.
func (c *Catalogue) RegionalIDs(name string) []string {
	rec := c.lookup(name)
	if rec == nil || rec.RegionalID == "" {
		return nil
	}
	return []string{rec.RegionalID}
}

// All returns every loaded record, for callers that need to enumerate the
// full station list (e.g. the regional-authority provider's rotation set).
func (c *Catalogue) All() []*Record {
	return c.all
}
