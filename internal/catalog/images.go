package catalog

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"

	"marine-catalog/internal/logger"
)

// ImageStore holds uploaded product pictures as individual objects. Delete
// is best-effort: callers never fail a document mutation over it. Owns
// reports whether a URL points into this store, so foreign URLs and data
// URIs are left alone on cleanup.
type ImageStore interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
	Owns(url string) bool
}

var whitespace = regexp.MustCompile(`\s+`)

func sanitizeFilename(name string) string {
	if name == "" {
		name = "upload"
	}
	return whitespace.ReplaceAllString(name, "-")
}

// imageObjectName namespaces uploads as products/<timestamp>-<tag>-<name>
// so concurrent uploads of identically named files cannot collide.
func imageObjectName(timestamp int64, tag, filename string) string {
	return fmt.Sprintf("products/%d-%s-%s", timestamp, tag, sanitizeFilename(filename))
}

func dataURI(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// uploadOrInline tries the image store first and falls back to embedding the
// bytes as a data URI. A transient store outage therefore degrades the
// document instead of failing the request.
func uploadOrInline(ctx context.Context, store ImageStore, objectName, contentType string, data []byte) string {
	url, err := store.Upload(ctx, objectName, contentType, data)
	if err != nil {
		logger.Warnf("image upload %s failed, inlining as data URI: %v", objectName, err)
		return dataURI(contentType, data)
	}
	return url
}

// deleteOwned removes every URL belonging to the store, swallowing errors.
func deleteOwned(ctx context.Context, store ImageStore, urls []string) {
	for _, u := range urls {
		if !store.Owns(u) {
			continue
		}
		if err := store.Delete(ctx, u); err != nil {
			logger.Warnf("image delete %s failed: %v", u, err)
		}
	}
}

// DisabledImageStore is used with the memory backend, where no object store
// exists. Every upload errors, which routes images through the data-URI
// fallback, and no URL is ever considered owned.
type DisabledImageStore struct{}

func (DisabledImageStore) Upload(context.Context, string, string, []byte) (string, error) {
	return "", errors.New("image store disabled")
}

func (DisabledImageStore) Delete(context.Context, string) error { return nil }

func (DisabledImageStore) Owns(string) bool { return false }
