package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	neturl "net/url"
	"strings"

	"github.com/minio/minio-go/v7"
)

// DocumentKey is the well-known object holding the catalog document.
const DocumentKey = "data/products.json"

// BlobStore persists the catalog document and uploaded images in an
// S3-compatible object store. It implements both DocumentStore and
// ImageStore: the document lives at DocumentKey, images under products/.
type BlobStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewBlobStore returns a store over the given bucket. publicBaseURL is the
// prefix of externally reachable object URLs; when empty it is derived from
// the client endpoint.
func NewBlobStore(client *minio.Client, bucket, publicBaseURL string) *BlobStore {
	if publicBaseURL == "" {
		publicBaseURL = client.EndpointURL().String() + "/" + bucket
	}
	return &BlobStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Load fetches the current document snapshot. A missing object or bucket
// reads as the empty catalog, not an error.
func (s *BlobStore) Load(ctx context.Context) (*Document, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, DocumentKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", DocumentKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isMissing(err) {
			return &Document{Products: []Product{}}, nil
		}
		return nil, fmt.Errorf("read %s: %w", DocumentKey, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", DocumentKey, err)
	}
	if doc.Products == nil {
		doc.Products = []Product{}
	}
	return &doc, nil
}

// Save overwrites the document object unconditionally. Last writer wins;
// there is no version compare at this layer.
func (s *BlobStore) Save(ctx context.Context, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, DocumentKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put %s: %w", DocumentKey, err)
	}
	return nil
}

// Upload stores image bytes under objectName and returns its public URL.
func (s *BlobStore) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", objectName, err)
	}
	return s.baseURL + "/" + objectName, nil
}

// Delete removes the object a previously returned URL points at.
func (s *BlobStore) Delete(ctx context.Context, url string) error {
	key, err := s.objectKey(url)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Owns matches URLs by endpoint host, the same substring test the catalog
// uses to tell its own uploads from foreign links and data URIs.
func (s *BlobStore) Owns(url string) bool {
	return strings.Contains(url, s.client.EndpointURL().Host)
}

func (s *BlobStore) objectKey(url string) (string, error) {
	u, err := neturl.Parse(url)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	key = strings.TrimPrefix(key, s.bucket+"/")
	if key == "" {
		return "", fmt.Errorf("no object key in url %q", url)
	}
	return key, nil
}

func isMissing(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
