// Package state implements the first-seen map of §4.6: the UTC instant at
// which a given guid/identity was first admitted to any emitted feed.
package state

import (
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/origamihase/wien-oepnv-feed/cmn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store loads, mutates and persists the first-seen map at path.
type Store struct {
	al   *cmn.Allowlist
	path string
}

// New validates path against the allowlist.
func New(al *cmn.Allowlist, path string) (*Store, error) {
	real, err := al.Validate(path)
	if err != nil {
		return nil, errors.Wrap(err, "state: path")
	}
	return &Store{al: al, path: real}, nil
}

// Load reads { guid -> ISO-8601 UTC instant }, falling back to an empty
// map (with a warning, never an error) on a missing file or parse error.
func (s *Store) Load() map[string]time.Time {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			glog.Warningf("state: %s unreadable (%v), starting from empty first-seen map", s.path, err)
		}
		return map[string]time.Time{}
	}
	var raw map[string]time.Time
	if err := json.Unmarshal(b, &raw); err != nil {
		glog.Warningf("state: %s is not valid JSON (%v), starting from empty first-seen map", s.path, err)
		return map[string]time.Time{}
	}
	return raw
}

// Save persists m atomically. A failure here is logged but must never
// abort the feed build (§7 StatePersistError): the caller is expected to
// treat a non-nil return as "logged, continue".
func (s *Store) Save(m map[string]time.Time) error {
	b, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "state: marshal first-seen map")
	}
	if err := cmn.WriteFileAtomic(s.path, b, false); err != nil {
		return errors.Wrapf(err, "state: write %s", s.path)
	}
	return nil
}
