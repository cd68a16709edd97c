package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
)

var supportedImageMIMEs = map[string]string{
	MimePNG:  "png",
	MimeJPEG: "jpg",
}

// ErrUnsupportedImage is returned when a payload is not a decodable PNG or JPEG.
var ErrUnsupportedImage = errors.New("unsupported image encoding")

// ImageInfo describes a payload after content sniffing.
type ImageInfo struct {
	MimeType  string
	Extension string
	Width     int
	Height    int
}

// Inspect sniffs the real content type of data and decodes the image header.
// The bytes are never modified.
func Inspect(data []byte) (*ImageInfo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnsupportedImage)
	}

	detected := mimetype.Detect(data).String()
	ext, ok := supportedImageMIMEs[detected]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, detected)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	return &ImageInfo{
		MimeType:  detected,
		Extension: ext,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

// ExtensionForMIME returns the file extension (without dot) for a content type.
func ExtensionForMIME(contentType string) string {
	if ext, ok := supportedImageMIMEs[contentType]; ok {
		return ext
	}
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		return m.Extension()[1:]
	}
	return "bin"
}
