package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // webp decoder
)

const (
	maxPhotoBytes = 8 << 20
	maxPhotoSide  = 1280
)

var ErrNotAnImage = errors.New("photo is not a decodable image")

// NormalizePhoto decodes a jpeg/png/gif/bmp/tiff/webp photo, applies its EXIF
// orientation, bounds it to maxPhotoSide and re-encodes it as JPEG.
func NormalizePhoto(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrNotAnImage
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("photo exceeds %d MB", maxPhotoBytes>>20)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	b := img.Bounds()
	if b.Dx() > maxPhotoSide || b.Dy() > maxPhotoSide {
		img = imaging.Fit(img, maxPhotoSide, maxPhotoSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode photo: %w", err)
	}
	return buf.Bytes(), nil
}
