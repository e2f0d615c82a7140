package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Image is an encoded image ready for upload
type Image struct {
	Data     []byte
	FileType FileType
}

// ContentType returns the MIME type of the image
func (i Image) ContentType() string {
	return i.FileType.ContentType()
}

// DefaultMaxPixels is the decode cap used when neither MaxPixels nor MaxDimension is set
const DefaultMaxPixels = 40_000_000

// Normalizer bounds uploaded images before they are stored and sent to providers
type Normalizer struct {
	MaxBytes     int64
	MaxDimension int
	// MaxPixels caps width*height read from the image header. Zero means
	// (4*MaxDimension)^2, or DefaultMaxPixels without a MaxDimension.
	MaxPixels int64
}

func (n Normalizer) maxPixels() int64 {
	switch {
	case n.MaxPixels > 0:
		return n.MaxPixels
	case n.MaxDimension > 0:
		side := int64(n.MaxDimension) * 4
		return side * side
	default:
		return DefaultMaxPixels
	}
}

// Normalize validates the upload, applies EXIF orientation and downscales it to
// fit MaxDimension. PNG stays PNG (item cut-outs keep transparency), everything
// else becomes JPEG.
func (n Normalizer) Normalize(data []byte) (Image, error) {
	if n.MaxBytes > 0 && int64(len(data)) > n.MaxBytes {
		return Image{}, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}
	fileType, err := DetectFileType(data)
	if err != nil {
		return Image{}, err
	}

	// The header is enough to refuse images whose bitmap would not fit in memory
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidFileType, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > n.maxPixels() {
		return Image{}, fmt.Errorf("%w: %dx%d pixels", ErrFileTooLarge, cfg.Width, cfg.Height)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidFileType, err)
	}

	var img image.Image = src
	bounds := src.Bounds()
	if n.MaxDimension > 0 && (bounds.Dx() > n.MaxDimension || bounds.Dy() > n.MaxDimension) {
		img = imaging.Fit(src, n.MaxDimension, n.MaxDimension, imaging.Lanczos)
	}

	out := FileTypeJPEG
	format := imaging.JPEG
	if fileType == FileTypePNG {
		out = FileTypePNG
		format = imaging.PNG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return Image{}, fmt.Errorf("failed to encode image: %w", err)
	}
	return Image{Data: buf.Bytes(), FileType: out}, nil
}
