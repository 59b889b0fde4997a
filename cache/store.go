// Package cache implements the atomic, allowlisted JSON-array persistence
// of §4.5: the sole on-disk contract between a provider refresh run and
// any number of subsequent feed builds.
package cache

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/origamihase/wien-oepnv-feed/cmn"
	"github.com/origamihase/wien-oepnv-feed/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store reads and writes one provider's cache file. Each provider owns
// its Store exclusively; the feed builder only ever reads through one.
type Store struct {
	al       *cmn.Allowlist
	path     string
	compress bool
}

// New validates path against the allowlist and returns a Store for it.
func New(al *cmn.Allowlist, path string, compress bool) (*Store, error) {
	real, err := al.Validate(path)
	if err != nil {
		return nil, errors.Wrap(err, "cache: store path")
	}
	return &Store{al: al, path: real, compress: compress}, nil
}

// Load reads the cache file, returning an empty sequence (with a warning,
// never an error) if the file is missing, empty, or not a JSON array, per
// §4.5. Any other I/O error is surfaced.
func (s *Store) Load() ([]model.Event, error) {
	b, err := cmn.ReadFileMaybeCompressed(s.path, s.compress)
	if err != nil {
		if os.IsNotExist(err) {
			glog.Warningf("cache: %s does not exist, treating as empty", s.path)
			return nil, nil
		}
		return nil, errors.Wrapf(err, "cache: read %s", s.path)
	}
	if len(b) == 0 {
		glog.Warningf("cache: %s is empty, treating as empty", s.path)
		return nil, nil
	}

	var events []model.Event
	if err := json.Unmarshal(b, &events); err != nil {
		glog.Warningf("cache: %s is not a JSON array (%v), treating as empty", s.path, err)
		return nil, nil
	}
	return events, nil
}

// Save atomically persists events as a JSON array, per §4.5's
// write-temp-fsync-rename-fsync-dir procedure (delegated to
// cmn.WriteFileAtomic).
func (s *Store) Save(events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return errors.Wrap(err, "cache: marshal events")
	}
	if err := cmn.WriteFileAtomic(s.path, b, s.compress); err != nil {
		return errors.Wrapf(err, "cache: write %s", s.path)
	}
	return nil
}
