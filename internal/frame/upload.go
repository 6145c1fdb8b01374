package frame

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Decoders for the upload formats customers actually send.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
)

// DecodeUploadedImage validates that data is an image and decodes it into a
// bitmap for the decoder chain. Non-image uploads and corrupt images come
// back as ErrInvalidInput so the caller can prompt for another file.
func DecodeUploadedImage(name string, data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty file: %w", name, ErrInvalidInput)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%s: detected %s: %w", name, mime.String(), ErrInvalidInput)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: decode image: %w", name, ErrInvalidInput)
	}

	return img, nil
}
