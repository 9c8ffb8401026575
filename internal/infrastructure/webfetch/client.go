package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"tomp3/internal/domain/media"
)

const (
	// DefaultContentType is assumed when a server declares none. Video
	// hosts that answer probes without a type almost always serve MP4.
	DefaultContentType = "video/mp4"

	DefaultProbeTimeout = 10 * time.Second
	DefaultFetchTimeout = 2 * time.Minute
	DefaultMaxBytes     = int64(2) << 30
)

// Client retrieves remote payloads over HTTP.
type Client struct {
	HTTP         *http.Client
	ProbeTimeout time.Duration
	FetchTimeout time.Duration
	MaxBytes     int64
}

// NewClient creates the fetch adapter. Zero values fall back to the
// package defaults.
func NewClient(probeTimeout, fetchTimeout time.Duration, maxBytes int64) *Client {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Client{
		HTTP:         &http.Client{},
		ProbeTimeout: probeTimeout,
		FetchTimeout: fetchTimeout,
		MaxBytes:     maxBytes,
	}
}

// Probe issues a HEAD request against address and reports the metadata
// the server declares, redirects followed.
func (c *Client) Probe(ctx context.Context, address string) (media.RemoteInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, address, nil)
	if err != nil {
		return media.RemoteInfo{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return media.RemoteInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return media.RemoteInfo{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	info := media.RemoteInfo{
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}
	if info.ContentType == "" {
		info.ContentType = DefaultContentType
	}
	return info, nil
}

// Fetch retrieves the complete payload behind address into memory. The
// payload is bounded by MaxBytes; anything larger fails the fetch.
func (c *Client) Fetch(ctx context.Context, address string) (media.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return media.Payload{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return media.Payload{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return media.Payload{}, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if resp.ContentLength > c.MaxBytes {
		return media.Payload{}, fmt.Errorf("payload exceeds %d byte limit", c.MaxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.MaxBytes+1))
	if err != nil {
		return media.Payload{}, err
	}
	if int64(len(data)) > c.MaxBytes {
		return media.Payload{}, fmt.Errorf("payload exceeds %d byte limit", c.MaxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}
	return media.Payload{Data: data, ContentType: contentType}, nil
}
