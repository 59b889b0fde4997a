// Package publish uploads a successfully-built feed file to optional
// object-store mirrors. §4.10: best-effort, never affects the process exit
// code, and never runs unless its environment group is configured.
package publish

import (
	"context"

	"github.com/golang/glog"

	"github.com/origamihase/wien-oepnv-feed/cmn"
)

// Mirror uploads one blob to one object store under one key.
type Mirror interface {
	Name() string
	Upload(ctx context.Context, key string, data []byte) error
}

// ToAll attempts every configured mirror, logging (never propagating)
// individual failures, matching the "best-effort convenience" framing of
// §4.10.
func ToAll(ctx context.Context, c *cmn.Config, key string, data []byte) {
	mirrors := Configured(c)
	for _, m := range mirrors {
		if err := m.Upload(ctx, key, data); err != nil {
			glog.Warningf("publish: mirror %s upload failed: %v", m.Name(), err)
			continue
		}
		glog.V(1).Infof("publish: mirror %s upload of %s succeeded", m.Name(), key)
	}
}

// Configured returns one Mirror per non-empty target in c.Publish.
func Configured(c *cmn.Config) []Mirror {
	var mirrors []Mirror
	if c.Publish.S3Bucket != "" {
		mirrors = append(mirrors, newS3Mirror(c.Publish.S3Bucket, c.Publish.S3Region))
	}
	if c.Publish.AzureContainer != "" && c.Publish.AzureAccount != "" {
		if m, err := newAzureMirror(c.Publish.AzureAccount, c.Publish.AzureContainer); err != nil {
			glog.Warningf("publish: azure mirror misconfigured: %v", err)
		} else {
			mirrors = append(mirrors, m)
		}
	}
	if c.Publish.GCSBucket != "" {
		mirrors = append(mirrors, newGCSMirror(c.Publish.GCSBucket))
	}
	return mirrors
}
