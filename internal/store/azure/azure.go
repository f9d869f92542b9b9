// Package azure implements store.Store on an Azure Blob Storage container
// addressed by a SAS URL.
package azure

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/slmtnm/s4fs/internal/store"
)

type Store struct {
	client    *azblob.Client
	container string
}

// New creates a client from a container URL of the form
// https://{account}.blob.core.windows.net/{container}?{sas_token}.
func New(containerURL string) (*Store, error) {
	serviceURL, container, err := splitContainerURL(containerURL)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithNoCredential(serviceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}
	return &Store{client: client, container: container}, nil
}

// splitContainerURL separates the container name from the service URL,
// keeping the SAS query on the service URL.
func splitContainerURL(raw string) (serviceURL, container string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid container URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("invalid container URL '%s': missing scheme or host", raw)
	}
	container = strings.Trim(u.Path, "/")
	if container == "" || strings.Contains(container, "/") {
		return "", "", fmt.Errorf("invalid container URL '%s': expected exactly one container segment", raw)
	}

	u.Path = "/"
	return u.String(), container, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]store.Object, error) {
	opts := &azblob.ListBlobsFlatOptions{}
	if prefix != "" {
		opts.Prefix = &prefix
	}

	var objects []store.Object
	pager := s.client.NewListBlobsFlatPager(s.container, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			obj := store.Object{Key: *item.Name}
			if p := item.Properties; p != nil {
				if p.ContentLength != nil {
					obj.Size = *p.ContentLength
				}
				if p.LastModified != nil {
					obj.LastModified = *p.LastModified
				}
			}
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

func (s *Store) Put(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file '%s': %w", localPath, err)
	}
	defer f.Close()

	if _, err := s.client.UploadFile(ctx, s.container, key, f, nil); err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create file '%s': %w", localPath, err)
	}

	if _, err := s.client.DownloadFile(ctx, s.container, key, f, nil); err != nil {
		f.Close()
		os.Remove(localPath)
		return fmt.Errorf("failed to download blob %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write file '%s': %w", localPath, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// Copy performs a synchronous server-side copy. The source URL carries the
// client's SAS token, so no extra authorization is needed.
func (s *Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	cc := s.client.ServiceClient().NewContainerClient(s.container)
	srcURL := cc.NewBlobClient(srcKey).URL()

	if _, err := cc.NewBlobClient(dstKey).CopyFromURL(ctx, srcURL, nil); err != nil {
		return fmt.Errorf("failed to copy blob %s to %s: %w", srcKey, dstKey, err)
	}
	return nil
}

func (s *Store) Check(ctx context.Context) error {
	cc := s.client.ServiceClient().NewContainerClient(s.container)
	if _, err := cc.GetProperties(ctx, nil); err != nil {
		return fmt.Errorf("failed to access container '%s': %w", s.container, err)
	}
	return nil
}

func (s *Store) Bucket() string {
	return s.container
}

var _ store.Store = (*Store)(nil)
