// Package cloudinarytest provides an in-memory cloudinary.Client for tests.
package cloudinarytest

import (
	"context"
	"io"
	"sync"
)

type Client struct {
	mu      sync.Mutex
	Uploads map[string][]byte // keyed by returned URL
	Deleted []string
	Err     error
}

func New() *Client {
	return &Client{Uploads: make(map[string][]byte)}
}

func (c *Client) UploadImage(_ context.Context, file io.Reader, folder, publicID string) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", "", c.Err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", err
	}
	url := "https://res.cloudinary.com/test/image/upload/v1/" + folder + "/" + publicID + ".jpg"
	c.Uploads[url] = data
	return url, url, nil
}

func (c *Client) DeleteByURL(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.Uploads, url)
	c.Deleted = append(c.Deleted, url)
	return nil
}
