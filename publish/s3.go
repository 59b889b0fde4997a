package publish

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

type s3Mirror struct {
	bucket string
	region string
}

func newS3Mirror(bucket, region string) *s3Mirror {
	return &s3Mirror{bucket: bucket, region: region}
}

func (m *s3Mirror) Name() string { return "s3:" + m.bucket }

func (m *s3Mirror) Upload(ctx context.Context, key string, data []byte) error {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(m.region)})
	if err != nil {
		return errors.Wrap(err, "s3: new session")
	}
	uploader := s3manager.NewUploader(sess)
	_, err = uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/rss+xml"),
	})
	if err != nil {
		return errors.Wrap(err, "s3: upload")
	}
	return nil
}
