// Package storage keeps uploaded submission documents in Cloudinary.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"osld-portal/internal/config"
)

// ErrNotConfigured is returned when no Cloudinary credentials are set
var ErrNotConfigured = errors.New("document storage is not configured")

// StoredFile is a document kept in the object store
type StoredFile struct {
	URL      string
	ObjectID string // "<resource type>:<public id>", needed to delete the file
}

// DocumentStore uploads and deletes documents
type DocumentStore struct {
	cld     *cloudinary.Cloudinary
	folder  string
	timeout time.Duration
}

// NewDocumentStore creates a Cloudinary backed document store
func NewDocumentStore(cfg *config.StorageConfig) (*DocumentStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrNotConfigured
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &DocumentStore{cld: cld, folder: cfg.Folder, timeout: timeout}, nil
}

// Upload stores r under name, a slash separated path inside the store folder
func (s *DocumentStore) Upload(ctx context.Context, r io.Reader, name string) (*StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dir, file := path.Split(strings.Trim(name, "/"))
	resp, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       path.Join(s.folder, dir),
		PublicID:     file,
		ResourceType: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("upload error: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("upload error: %s", resp.Error.Message)
	}

	return &StoredFile{
		URL:      resp.SecureURL,
		ObjectID: EncodeObjectID(resp.ResourceType, resp.PublicID),
	}, nil
}

// Delete removes a previously uploaded document
func (s *DocumentStore) Delete(ctx context.Context, objectID string) error {
	resourceType, publicID, err := DecodeObjectID(objectID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("delete error: %s", resp.Error.Message)
	}

	return nil
}

// EncodeObjectID joins a Cloudinary resource type and public id
func EncodeObjectID(resourceType, publicID string) string {
	if resourceType == "" {
		resourceType = "image"
	}
	return resourceType + ":" + publicID
}

// DecodeObjectID splits an object id produced by EncodeObjectID
func DecodeObjectID(objectID string) (resourceType, publicID string, err error) {
	resourceType, publicID, ok := strings.Cut(objectID, ":")
	if !ok || resourceType == "" || publicID == "" {
		return "", "", fmt.Errorf("invalid object id %q", objectID)
	}
	return resourceType, publicID, nil
}
