package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessellate-ai/mediagate/pkg/mediastore"
)

// testPNG encodes a solid-color image of the given dimensions.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return config.Width, config.Height
}

func TestDecode(t *testing.T) {
	tr := NewTransformer()

	info, err := tr.Decode(testPNG(t, 640, 480))
	require.NoError(t, err)
	assert.Equal(t, 640, info.Width)
	assert.Equal(t, 480, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 640, info.LongerEdge())

	_, err = tr.Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestTransformLongestEdge(t *testing.T) {
	tr := NewTransformer()
	src := testPNG(t, 640, 480)

	out, err := tr.Transform(src, mediastore.Size{Mode: mediastore.ModeLongestEdge, LongestSide: 200}, mediastore.FormatPNG, 80)
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.Equal(t, 200, w, "longer edge constrained")
	assert.Equal(t, 150, h, "aspect ratio preserved")
}

func TestTransformLongestEdgeNeverUpscales(t *testing.T) {
	tr := NewTransformer()
	src := testPNG(t, 100, 80)

	out, err := tr.Transform(src, mediastore.Size{Mode: mediastore.ModeLongestEdge, LongestSide: 400}, mediastore.FormatPNG, 80)
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.Equal(t, 100, w)
	assert.Equal(t, 80, h)
}

func TestTransformExactCoverCrop(t *testing.T) {
	tr := NewTransformer()
	src := testPNG(t, 640, 480)

	out, err := tr.Transform(src, mediastore.Size{Mode: mediastore.ModeExact, Width: 100, Height: 100}, mediastore.FormatPNG, 80)
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)
}

func TestTransformExactCoverCropClampsToSource(t *testing.T) {
	tr := NewTransformer()
	src := testPNG(t, 200, 100)

	out, err := tr.Transform(src, mediastore.Size{Mode: mediastore.ModeExact, Width: 400, Height: 400}, mediastore.FormatPNG, 80)
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.LessOrEqual(t, w, 200)
	assert.LessOrEqual(t, h, 100)
}

func TestTransformWidthOnly(t *testing.T) {
	tr := NewTransformer()
	src := testPNG(t, 640, 480)

	out, err := tr.Transform(src, mediastore.Size{Mode: mediastore.ModeExact, Width: 320}, mediastore.FormatPNG, 80)
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)

	// Width beyond the source keeps source dimensions.
	out, err = tr.Transform(src, mediastore.Size{Mode: mediastore.ModeExact, Width: 1000}, mediastore.FormatPNG, 80)
	require.NoError(t, err)
	w, h = decodeDims(t, out)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestTransformEncodesJPEG(t *testing.T) {
	tr := NewTransformer()
	src := testPNG(t, 640, 480)

	out, err := tr.Transform(src, mediastore.Size{Mode: mediastore.ModeLongestEdge, LongestSide: 200}, mediastore.FormatJPEG, 80)
	require.NoError(t, err)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestTransformRejectsGarbage(t *testing.T) {
	tr := NewTransformer()
	_, err := tr.Transform([]byte("junk"), mediastore.Size{Mode: mediastore.ModeLongestEdge, LongestSide: 100}, mediastore.FormatJPEG, 80)
	assert.Error(t, err)
}
