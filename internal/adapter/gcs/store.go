// Package gcs stores uploaded files and embedding exports in Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const publicHost = "https://storage.googleapis.com"

type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewStore opens a client for bucket. Objects are written under prefix.
func NewStore(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// NewStoreFromURI accepts gs://bucket/prefix.
func NewStoreFromURI(ctx context.Context, uri string, opts ...option.ClientOption) (*Store, error) {
	bucket, prefix, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return NewStore(ctx, bucket, prefix, opts...)
}

func ParseURI(uri string) (bucket, prefix string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse bucket uri: %w", err)
	}
	if u.Scheme != "gs" || u.Host == "" {
		return "", "", fmt.Errorf("bucket uri must look like gs://bucket/prefix, got %q", uri)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// Put writes r to the object name and returns its URL. public grants
// allUsers read access and returns the public HTTPS URL.
func (s *Store) Put(ctx context.Context, name, contentType string, r io.Reader, public bool) (string, error) {
	key := s.key(name)
	obj := s.client.Bucket(s.bucket).Object(key)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", key, err)
	}

	if !public {
		return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
	}
	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("make object %s public: %w", key, err)
	}
	return PublicURL(s.bucket, key), nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// PublicURL escapes each segment of key but keeps its slashes.
func PublicURL(bucket, key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", publicHost, bucket, strings.Join(segs, "/"))
}
