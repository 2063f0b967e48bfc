package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"docvault/internal/config"
)

type azureStorage struct {
	client    *azblob.Client
	container string
}

// NewAzure creates an Azure Blob Storage client from a connection string and
// makes sure the container exists.
func NewAzure(ctx context.Context, cfg config.AzureConfig) (Storage, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("azure connection string is required")
	}
	if cfg.Container == "" {
		return nil, fmt.Errorf("azure container is required")
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := client.CreateContainer(ctx, cfg.Container, nil); err != nil {
		if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil, fmt.Errorf("create container: %w", err)
		}
	}

	return &azureStorage{client: client, container: cfg.Container}, nil
}

func (a *azureStorage) blobClient(key string) *blob.Client {
	return a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(key)
}

func (a *azureStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return ObjectInfo{}, err
	}

	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(opt.ContentType)},
		Metadata:    toAzureMetadata(opt.Metadata),
	}
	resp, err := a.client.UploadStream(ctx, a.container, key, r, opts)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("upload blob %s: %w", key, err)
	}

	info := ObjectInfo{
		Key:          key,
		URL:          a.blobClient(key).URL(),
		Size:         opt.Size,
		ETag:         etag(resp.ETag),
		ContentType:  opt.ContentType,
		LastModified: time.Now().UTC(),
		Metadata:     opt.Metadata,
	}
	if resp.LastModified != nil {
		info.LastModified = resp.LastModified.UTC()
	}
	return info, nil
}

func (a *azureStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, ObjectInfo{}, err
	}

	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		return nil, ObjectInfo{}, mapAzureError(key, err)
	}

	return resp.Body, a.info(key, resp.ContentLength, resp.ContentType, resp.ETag, resp.LastModified, resp.Metadata), nil
}

func (a *azureStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return ObjectInfo{}, err
	}

	resp, err := a.blobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return ObjectInfo{}, mapAzureError(key, err)
	}
	return a.info(key, resp.ContentLength, resp.ContentType, resp.ETag, resp.LastModified, resp.Metadata), nil
}

func (a *azureStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := a.client.DeleteBlob(ctx, a.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// PresignGet issues a read-only SAS URL. Requires a shared key connection string.
func (a *azureStorage) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	u, err := a.blobClient(key).GetSASURL(sas.BlobPermissions{Read: true}, time.Now().UTC().Add(expiry), nil)
	if err != nil {
		return "", fmt.Errorf("sign blob %s: %w", key, err)
	}
	return u, nil
}

func (a *azureStorage) info(key string, size *int64, contentType *string, tag *azcore.ETag, modified *time.Time, meta map[string]*string) ObjectInfo {
	info := ObjectInfo{
		Key:      key,
		URL:      a.blobClient(key).URL(),
		ETag:     etag(tag),
		Metadata: fromAzureMetadata(meta),
	}
	if size != nil {
		info.Size = *size
	}
	if contentType != nil {
		info.ContentType = *contentType
	}
	if modified != nil {
		info.LastModified = modified.UTC()
	}
	return info
}

func mapAzureError(key string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return fmt.Errorf("blob %s: %w", key, err)
}

func etag(e *azcore.ETag) string {
	if e == nil {
		return ""
	}
	return string(*e)
}

func toAzureMetadata(m map[string]string) map[string]*string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]*string, len(m))
	for k, v := range m {
		out[k] = to.Ptr(v)
	}
	return out
}

func fromAzureMetadata(m map[string]*string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}
