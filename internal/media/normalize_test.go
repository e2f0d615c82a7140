package media

import (
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    FileType
		wantErr error
	}{
		{name: "png", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, want: FileTypePNG},
		{name: "jpeg", data: []byte{0xFF, 0xD8, 0xFF, 0xE0}, want: FileTypeJPEG},
		{name: "gif", data: []byte("GIF89a"), want: FileTypeGIF},
		{name: "pdf", data: []byte("%PDF-1.4"), wantErr: ErrInvalidFileType},
		{name: "empty", data: nil, wantErr: ErrEmptyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFileType(tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, ".jpg", FileTypeJPEG.Ext())
	assert.Equal(t, ".png", FileTypePNG.Ext())
	assert.Equal(t, "image/jpeg", FileTypeJPEG.ContentType())
}

func TestNormalize(t *testing.T) {
	n := Normalizer{MaxBytes: 5 << 20, MaxDimension: 64}

	t.Run("downscales large jpeg", func(t *testing.T) {
		img, err := n.Normalize(encodeTestImage(t, 200, 100, imaging.JPEG))
		require.NoError(t, err)
		assert.Equal(t, FileTypeJPEG, img.FileType)
		size := decodeSize(t, img.Data)
		assert.Equal(t, 64, size.X)
		assert.Equal(t, 32, size.Y)
	})

	t.Run("keeps png and small sizes", func(t *testing.T) {
		img, err := n.Normalize(encodeTestImage(t, 40, 20, imaging.PNG))
		require.NoError(t, err)
		assert.Equal(t, FileTypePNG, img.FileType)
		assert.Equal(t, "image/png", img.ContentType())
		size := decodeSize(t, img.Data)
		assert.Equal(t, 40, size.X)
		assert.Equal(t, 20, size.Y)
	})

	t.Run("gif becomes jpeg", func(t *testing.T) {
		img, err := n.Normalize(encodeTestImage(t, 10, 10, imaging.GIF))
		require.NoError(t, err)
		assert.Equal(t, FileTypeJPEG, img.FileType)
	})

	t.Run("rejects oversized uploads", func(t *testing.T) {
		small := Normalizer{MaxBytes: 10}
		_, err := small.Normalize(encodeTestImage(t, 10, 10, imaging.PNG))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("rejects huge dimensions before decoding", func(t *testing.T) {
		_, err := n.Normalize(pngHeader(30000, 30000))
		assert.ErrorIs(t, err, ErrFileTooLarge)

		_, err = Normalizer{}.Normalize(pngHeader(8000, 8000))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("explicit pixel cap", func(t *testing.T) {
		capped := Normalizer{MaxDimension: 64, MaxPixels: 100 * 100}
		_, err := capped.Normalize(encodeTestImage(t, 200, 100, imaging.PNG))
		assert.ErrorIs(t, err, ErrFileTooLarge)

		_, err = capped.Normalize(encodeTestImage(t, 100, 100, imaging.PNG))
		assert.NoError(t, err)
	})

	t.Run("rejects non images", func(t *testing.T) {
		_, err := n.Normalize([]byte("hello world"))
		assert.ErrorIs(t, err, ErrInvalidFileType)
	})

	t.Run("rejects truncated images", func(t *testing.T) {
		data := encodeTestImage(t, 10, 10, imaging.PNG)
		_, err := n.Normalize(data[:20])
		assert.ErrorIs(t, err, ErrInvalidFileType)
	})
}
