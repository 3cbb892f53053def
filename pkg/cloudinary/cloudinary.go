package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// ErrNotCloudinaryURL is returned when a URL does not point at an uploaded asset.
var ErrNotCloudinaryURL = errors.New("cloudinary: not an upload URL")

// Client uploads and removes listing images.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error)
	DeleteByURL(ctx context.Context, url string) error
}

// Optimized image params for fast frontend loading
const (
	ImageWidth = 1200
	ThumbWidth = 400
)

// imageEager is the single eager transformation requested at upload time.
const imageEager = "q_auto,f_auto,w_1200,c_limit"

var eagerAsyncFalse = false

var versionSegment = regexp.MustCompile(`^v\d+$`)

// BuildOptimizedImageURL returns a Cloudinary URL with transformations for optimized delivery.
func BuildOptimizedImageURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = ImageWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_fill/%s",
		cloudName, width, publicID)
}

// PublicIDFromURL extracts the public id (folder path without extension) from a
// delivery URL, skipping transformation and version segments.
func PublicIDFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrNotCloudinaryURL
	}
	_, rest, ok := strings.Cut(u.Path, "/upload/")
	if !ok || rest == "" {
		return "", ErrNotCloudinaryURL
	}
	segs := strings.Split(rest, "/")
	start := 0
	for i, s := range segs {
		if versionSegment.MatchString(s) {
			start = i + 1
			break
		}
		if strings.Contains(s, ",") || strings.IndexByte(s, '_') == 1 {
			start = i + 1
			continue
		}
		break
	}
	if start >= len(segs) {
		return "", ErrNotCloudinaryURL
	}
	id := strings.Join(segs[start:], "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	if id == "" {
		return "", ErrNotCloudinaryURL
	}
	return id, nil
}

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

// UploadImage uploads an image with eager optimizations (auto quality, format, resize).
func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", "", err
	}
	if result.Error.Message != "" {
		return "", "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	url = result.SecureURL
	if len(result.Eager) > 0 {
		thumbnailURL = result.Eager[0].SecureURL
	}
	if thumbnailURL == "" {
		thumbnailURL = BuildOptimizedImageURL(c.cloudName, result.PublicID, ThumbWidth)
	}
	return url, thumbnailURL, nil
}

// DeleteByURL destroys the asset behind url. A missing asset is not an error.
func (c *clientImpl) DeleteByURL(ctx context.Context, rawURL string) error {
	publicID, err := PublicIDFromURL(rawURL)
	if err != nil {
		return err
	}
	res, err := c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		cloudName: cloudName,
		uploader:  up,
	}, nil
}
