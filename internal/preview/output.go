package preview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
)

// DefaultThumbnailSize is the longest thumbnail side in pixels.
const DefaultThumbnailSize = 240

// Result is an encoded preview.
type Result struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Thumbnail shrinks img to fit a size×size box, keeping its aspect ratio.
// Images that already fit are returned unchanged.
func Thumbnail(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}
	return imaging.Fit(img, size, size, imaging.Lanczos)
}

// Save writes img to path as PNG, creating the parent folder.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	return nil
}

// Encode returns img as a base64 PNG.
func Encode(img image.Image) (*Result, error) {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return &Result{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// ThumbnailDataURI loads the PNG at path and returns a data URI of its
// thumbnail, ready for an <img> tag.
func ThumbnailDataURI(path string, size int) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("open preview: %w", err)
	}
	res, err := Encode(Thumbnail(img, size))
	if err != nil {
		return "", err
	}
	return "data:" + res.MimeType + ";base64," + res.ImageBase64, nil
}
