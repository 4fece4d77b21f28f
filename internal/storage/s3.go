// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage resolves stored media references into URLs. Thumbnails
// and gallery images live in a public S3-compatible bucket; official
// document files live in a private bucket and are served through
// pre-signed links. Path-style addressing is used (required by CEPH/Hetzner).
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultDocumentLinkTTL is how long a pre-signed document link stays valid.
const DefaultDocumentLinkTTL = time.Hour

// Client wraps an S3 client for the two media buckets.
type Client struct {
	s3            *s3.Client
	presigner     *s3.PresignClient
	publicBucket  string
	privateBucket string
	endpoint      string
	publicURL     string // optional CDN/direct URL for public files
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) if endpoint or credentials are empty, allowing the app to
// start without storage.
func New(endpoint, region, accessKey, secretKey, publicBucket, privateBucket, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if publicBucket == "" || privateBucket == "" {
		return nil, fmt.Errorf("storage: both bucket names are required")
	}

	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:            s3Client,
		presigner:     s3.NewPresignClient(s3Client),
		publicBucket:  publicBucket,
		privateBucket: privateBucket,
		endpoint:      endpoint,
		publicURL:     strings.TrimRight(publicURL, "/"),
	}, nil
}

// FileURL returns the public URL for a key in the public bucket.
// Uses the configured public URL if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.publicBucket + "/" + key
}

// PresignedURL generates a pre-signed GET URL for a private object.
// The URL is valid for the specified duration (max 7 days per S3 spec).
func (c *Client) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.privateBucket),
		Key:    aws.String(strings.TrimLeft(key, "/")),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", c.privateBucket, key, err)
	}
	return req.URL, nil
}

// Resolver turns media references into browser URLs. A reference is either
// already a URL (absolute, protocol-relative or site-rooted) and is returned
// unchanged, or an object key. Without a storage client, keys are returned
// unchanged too.
type Resolver struct {
	client  *Client
	linkTTL time.Duration
}

// NewResolver creates a Resolver. client may be nil.
func NewResolver(client *Client, linkTTL time.Duration) *Resolver {
	if linkTTL <= 0 {
		linkTTL = DefaultDocumentLinkTTL
	}
	return &Resolver{client: client, linkTTL: linkTTL}
}

// URL resolves a public media reference.
func (r *Resolver) URL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || IsURL(ref) || r.client == nil {
		return ref
	}
	return r.client.FileURL(ref)
}

// DocumentURL resolves a document file reference. Keys point into the
// private bucket and get a short-lived pre-signed link. If signing fails
// the link is left empty so the page still renders.
func (r *Resolver) DocumentURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || IsURL(ref) || r.client == nil {
		return ref
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	u, err := r.client.PresignedURL(ctx, ref, r.linkTTL)
	if err != nil {
		slog.Warn("document link signing failed", "key", ref, "error", err)
		return ""
	}
	return u
}

// IsURL reports whether a reference is already usable as a link.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "//") ||
		strings.HasPrefix(ref, "/")
}
