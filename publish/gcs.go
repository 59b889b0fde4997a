package publish

import (
	"context"
	"os"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

type gcsMirror struct {
	bucket string
}

func newGCSMirror(bucket string) *gcsMirror {
	return &gcsMirror{bucket: bucket}
}

func (m *gcsMirror) Name() string { return "gcs:" + m.bucket }

func (m *gcsMirror) Upload(ctx context.Context, key string, data []byte) error {
	var opts []option.ClientOption
	if cred := os.Getenv("GCS_CREDENTIALS_FILE"); cred != "" {
		opts = append(opts, option.WithCredentialsFile(cred))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return errors.Wrap(err, "gcs: new client")
	}
	defer client.Close()

	w := client.Bucket(m.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/rss+xml"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return errors.Wrap(err, "gcs: write")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "gcs: close")
	}
	return nil
}
