package mediastore

import (
	"path"
	"strings"
)

// ImageFormat is a supported thumbnail output format.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatWebP ImageFormat = "webp"
	FormatAVIF ImageFormat = "avif"
)

// TargetFormat describes the derived output format of a thumbnail.
type TargetFormat struct {
	Format      ImageFormat
	Extension   string
	ContentType string
}

// DetermineTargetFormat picks the thumbnail output format from the source
// object's file extension. Anything unrecognized falls back to jpeg.
func DetermineTargetFormat(sourcePath string) TargetFormat {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(sourcePath), "."))
	switch ext {
	case "webp":
		return TargetFormat{Format: FormatWebP, Extension: "webp", ContentType: "image/webp"}
	case "avif":
		return TargetFormat{Format: FormatAVIF, Extension: "avif", ContentType: "image/avif"}
	case "png":
		return TargetFormat{Format: FormatPNG, Extension: "png", ContentType: "image/png"}
	case "jpg", "jpeg":
		return TargetFormat{Format: FormatJPEG, Extension: "jpeg", ContentType: "image/jpeg"}
	default:
		return TargetFormat{Format: FormatJPEG, Extension: "jpeg", ContentType: "image/jpeg"}
	}
}

// ImageInfo describes a decoded image.
type ImageInfo struct {
	Width  int
	Height int
	Format string
}

// LongerEdge returns the larger of width and height.
func (i ImageInfo) LongerEdge() int {
	if i.Width > i.Height {
		return i.Width
	}
	return i.Height
}

// ImageTransformer is the image processing collaborator of the thumbnail
// engine. Decode probes dimensions without producing output; Transform
// resizes according to size (never upscaling) and encodes to format at the
// given quality in one pass.
type ImageTransformer interface {
	Decode(data []byte) (ImageInfo, error)
	Transform(data []byte, size Size, format ImageFormat, quality int) ([]byte, error)
}
