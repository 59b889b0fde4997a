package publish

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/Azure/azure-storage-blob-go/azblob"
	"github.com/pkg/errors"
)

type azureMirror struct {
	container *azblob.ContainerURL
	name      string
}

func newAzureMirror(account, container string) (*azureMirror, error) {
	credential, err := azblob.NewSharedKeyCredential(account, os.Getenv("AZURE_MIRROR_KEY"))
	if err != nil {
		return nil, errors.Wrap(err, "azure: shared key credential")
	}
	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	u, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net/%s", account, container))
	if err != nil {
		return nil, errors.Wrap(err, "azure: container URL")
	}
	containerURL := azblob.NewContainerURL(*u, pipeline)

	return &azureMirror{container: &containerURL, name: "azure:" + account + "/" + container}, nil
}

func (m *azureMirror) Name() string { return m.name }

func (m *azureMirror) Upload(ctx context.Context, key string, data []byte) error {
	blobURL := m.container.NewBlockBlobURL(key)
	_, err := azblob.UploadBufferToBlockBlob(ctx, data, blobURL, azblob.UploadToBlockBlobOptions{
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{ContentType: "application/rss+xml"},
	})
	if err != nil {
		return errors.Wrap(err, "azure: upload")
	}
	return nil
}
