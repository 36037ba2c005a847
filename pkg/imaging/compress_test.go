package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
)

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestProcessRejectsNonImage(t *testing.T) {
	_, err := Process([]byte("%PDF-1.4 not an image"), Options{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestProcessRejectsEmptyPayload(t *testing.T) {
	_, err := Process(nil, Options{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestProcessKeepsSmallImagesVerbatim(t *testing.T) {
	data := noisyPNG(t, 40, 40)

	result, err := Process(data, Options{Threshold: 1 << 20})
	require.NoError(t, err)
	assert.False(t, result.Compressed)
	assert.Equal(t, data, result.Data)
	assert.Equal(t, "image/png", result.ContentType)
}

func TestProcessCompressesLargeImages(t *testing.T) {
	data := noisyPNG(t, 800, 600)

	result, err := Process(data, Options{Threshold: 1024, MaxDimension: 400, JPEGQuality: 70})
	require.NoError(t, err)
	assert.True(t, result.Compressed)
	assert.Equal(t, "image/jpeg", result.ContentType)
	assert.Less(t, len(result.Data), len(data))

	img, format, err := image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, img.Bounds().Dx(), 400)
	assert.LessOrEqual(t, img.Bounds().Dy(), 400)
}

func TestShrinkPreservesAspectRatio(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 500))
	out := shrink(img, 100)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())

	tall := image.NewRGBA(image.Rect(0, 0, 500, 1000))
	out = shrink(tall, 100)
	assert.Equal(t, 50, out.Bounds().Dx())
	assert.Equal(t, 100, out.Bounds().Dy())
}

func TestShrinkLeavesSmallImagesAlone(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	assert.Equal(t, img, shrink(img, 100))
}
