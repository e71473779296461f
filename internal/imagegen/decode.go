package imagegen

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ModeRGB is the canonical colour mode: three opaque 8-bit channels.
const ModeRGB = "RGB"

// TransportMIMEType is the encoding used for images sent to the model.
const TransportMIMEType = "image/png"

// DefaultMaxPixels bounds width*height of an accepted image. Decoding
// allocates the full raster up front, so the header is checked first.
const DefaultMaxPixels int64 = 40_000_000

// InvalidImageDetail is the client-facing message for undecodable images.
const InvalidImageDetail = "Invalid image format. Supported formats are PNG, JPEG, GIF, WebP, BMP and TIFF."

var (
	errEmptyImage  = errors.New("empty image")
	errEmptyRaster = errors.New("image has no pixels")
	errImageTooBig = errors.New("image dimensions exceed limit")
)

// Decode is DecodeWithLimit with DefaultMaxPixels.
func Decode(u UploadedImage) (UploadedImage, error) {
	return DecodeWithLimit(u, DefaultMaxPixels)
}

// DecodeWithLimit decodes u.Data and converts the raster to ModeRGB when it
// is in any other mode. Mode keeps the source mode for logging. Images whose
// header declares more than maxPixels pixels are rejected before the raster
// is allocated; maxPixels <= 0 means DefaultMaxPixels.
func DecodeWithLimit(u UploadedImage, maxPixels int64) (UploadedImage, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if len(u.Data) == 0 {
		return u, NewError(KindInvalidImageFormat, InvalidImageDetail, errEmptyImage)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(u.Data))
	if err != nil {
		return u, NewError(KindInvalidImageFormat, InvalidImageDetail, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return u, NewError(KindInvalidImageFormat, InvalidImageDetail, errEmptyRaster)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return u, NewError(KindInvalidImageFormat,
			fmt.Sprintf("Image too large: %dx%d exceeds the limit of %d pixels", cfg.Width, cfg.Height, maxPixels),
			fmt.Errorf("%w: %dx%d", errImageTooBig, cfg.Width, cfg.Height))
	}

	img, format, err := image.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return u, NewError(KindInvalidImageFormat, InvalidImageDetail, err)
	}

	u.Format = format
	u.Mode = ColorMode(img)
	if u.Mode != ModeRGB {
		img = ToRGB(img)
	}
	u.Image = img
	u.Width = img.Bounds().Dx()
	u.Height = img.Bounds().Dy()
	return u, nil
}

// ColorMode names the colour mode of img.
func ColorMode(img image.Image) string {
	switch m := img.(type) {
	case *image.YCbCr:
		return ModeRGB
	case *image.RGBA:
		if m.Opaque() {
			return ModeRGB
		}
		return "RGBA"
	case *image.RGBA64:
		if m.Opaque() {
			return ModeRGB
		}
		return "RGBA"
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return "RGBA"
	case *image.Gray:
		return "L"
	case *image.Gray16:
		return "I;16"
	case *image.Paletted:
		return "P"
	case *image.CMYK:
		return "CMYK"
	case *image.Alpha, *image.Alpha16:
		return "A"
	default:
		return fmt.Sprintf("%T", img)
	}
}

// ToRGB copies img into an opaque RGBA raster anchored at the origin. Alpha
// is discarded rather than composited, so colour values are kept as stored.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			srcRow := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			dstRow := dst.Pix[dst.PixOffset(0, y):]
			for x := 0; x < b.Dx(); x++ {
				i := x * 4
				dstRow[i] = srcRow[i]
				dstRow[i+1] = srcRow[i+1]
				dstRow[i+2] = srcRow[i+2]
				dstRow[i+3] = 0xff
			}
		}
		return dst
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

// EncodeTransport encodes a decoded image losslessly for the model request.
func EncodeTransport(u UploadedImage) ([]byte, error) {
	if !u.Decoded() {
		return nil, errors.New("image not decoded")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, u.Image); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
