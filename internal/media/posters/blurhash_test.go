package posters

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), 200, 255})
		}
	}
	return img
}

func TestComputeBlurHash(t *testing.T) {
	hash, err := computeBlurHash(gradientImage(120, 180))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	// Same pixels encode to the same hash
	again, err := computeBlurHash(gradientImage(120, 180))
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestResizeForBlurHash(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{name: "landscape scales width to cap", w: 128, h: 64, wantW: 64, wantH: 32},
		{name: "portrait scales height to cap", w: 100, h: 200, wantW: 32, wantH: 64},
		{name: "square", w: 256, h: 256, wantW: 64, wantH: 64},
		{name: "small image passes through", w: 40, h: 30, wantW: 40, wantH: 30},
		{name: "exactly at cap passes through", w: 64, h: 64, wantW: 64, wantH: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resized := resizeForBlurHash(gradientImage(tt.w, tt.h))
			bounds := resized.Bounds()
			assert.Equal(t, tt.wantW, bounds.Dx())
			assert.Equal(t, tt.wantH, bounds.Dy())
		})
	}
}
