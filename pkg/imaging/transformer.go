// Package imaging implements the image decoding and resizing backend of the
// thumbnail engine.
package imaging

import (
	"bytes"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	_ "golang.org/x/image/webp"

	"github.com/tessellate-ai/mediagate/pkg/mediastore"
)

// Transformer resizes and re-encodes images in memory. It is stateless and
// safe for concurrent use.
type Transformer struct{}

// NewTransformer creates a transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Decode probes the dimensions and format of an encoded image without
// decoding pixel data.
func (t *Transformer) Decode(data []byte) (mediastore.ImageInfo, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return mediastore.ImageInfo{}, fmt.Errorf("decode image header: %w", err)
	}
	return mediastore.ImageInfo{Width: config.Width, Height: config.Height, Format: format}, nil
}

// Transform decodes, resizes per size and encodes to format at the given
// quality, in one pass. The source is never upscaled: longest-edge requests
// larger than the source return it re-encoded as-is, and exact crops are
// clamped to the source dimensions.
func (t *Transformer) Transform(data []byte, size mediastore.Size, format mediastore.ImageFormat, quality int) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := resize(src, size)

	var buf bytes.Buffer
	switch format {
	case mediastore.FormatPNG:
		err = imaging.Encode(&buf, resized, imaging.PNG)
	case mediastore.FormatWebP:
		err = webp.Encode(&buf, resized, webp.Options{Quality: quality})
	case mediastore.FormatAVIF:
		err = avif.Encode(&buf, resized, avif.Options{Quality: quality})
	default:
		err = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func resize(src image.Image, size mediastore.Size) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	if size.Mode == mediastore.ModeLongestEdge {
		if max(srcW, srcH) <= size.LongestSide {
			return src
		}
		return imaging.Fit(src, size.LongestSide, size.LongestSide, imaging.Lanczos)
	}

	if size.Height > 0 {
		w, h := clampBox(srcW, srcH, size.Width, size.Height)
		return imaging.Fill(src, w, h, imaging.Center, imaging.Lanczos)
	}

	if size.Width >= srcW {
		return src
	}
	return imaging.Resize(src, size.Width, 0, imaging.Lanczos)
}

// clampBox shrinks the target box proportionally until it fits inside the
// source, so cover-cropping never upscales.
func clampBox(srcW, srcH, w, h int) (int, int) {
	if w <= srcW && h <= srcH {
		return w, h
	}
	fw := float64(srcW) / float64(w)
	fh := float64(srcH) / float64(h)
	f := fw
	if fh < f {
		f = fh
	}
	w = int(float64(w) * f)
	h = int(float64(h) * f)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
