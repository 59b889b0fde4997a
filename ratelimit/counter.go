package ratelimit

import (
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/origamihase/wien-oepnv-feed/cmn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultLockTimeout = 10 * time.Second

type counterFile struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Counter is the per-provider daily request counter of §4.3, persisted at
// counterPath with a lock file at counterPath+".lock". The "operator's
// local calendar day" is Europe/Vienna, matching the transport operators
// this system aggregates for.
type Counter struct {
	path       string
	lockPath   string
	lockWait   time.Duration
	loc        *time.Location
}

// NewCounter returns a Counter backed by the validated, allowlisted path.
func NewCounter(al *cmn.Allowlist, path string) (*Counter, error) {
	real, err := al.Validate(path)
	if err != nil {
		return nil, errors.Wrap(err, "ratelimit: counter path")
	}
	loc, err := time.LoadLocation("Europe/Vienna")
	if err != nil {
		loc = time.UTC
	}
	return &Counter{
		path:     real,
		lockPath: real + ".lock",
		lockWait: defaultLockTimeout,
		loc:      loc,
	}, nil
}

// Increment executes the five-step protocol of §4.3 and returns the
// post-increment count for the current day. It must be called before the
// corresponding HTTP attempt is made, so that denials and timeouts still
// count against the budget.
func (c *Counter) Increment() (int, error) {
	lock, err := acquireLock(c.lockPath, c.lockWait)
	if err != nil {
		return 0, err
	}
	defer lock.release()

	today := time.Now().In(c.loc).Format("2006-01-02")

	cf := c.readTolerant()
	if cf.Day != today {
		cf.Day = today
		cf.Count = 0
	}
	cf.Count++

	b, err := json.Marshal(cf)
	if err != nil {
		return 0, errors.Wrap(err, "ratelimit: marshal counter")
	}
	if err := cmn.WriteFileAtomic(c.path, b, false); err != nil {
		return 0, errors.Wrap(err, "ratelimit: persist counter")
	}
	return cf.Count, nil
}

// Count returns today's count without incrementing, for pre-flight budget
// checks (§4.2.c). A missing or corrupt file reads as zero.
func (c *Counter) Count() int {
	cf := c.readTolerant()
	today := time.Now().In(c.loc).Format("2006-01-02")
	if cf.Day != today {
		return 0
	}
	return cf.Count
}

func (c *Counter) readTolerant() counterFile {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return counterFile{}
	}
	var cf counterFile
	if err := json.Unmarshal(b, &cf); err != nil {
		glog.Warningf("ratelimit: %s is not valid JSON, starting a new day at count 0", c.path)
		return counterFile{}
	}
	return cf
}
